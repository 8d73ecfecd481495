package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-rental/internal/model"
)

// UserRepo stores accounts together with their liked movies, purchase
// history and open rentals.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,user_name,password_hash,role,overdue_tax,created_at"

// Create inserts u and sets its ID. Unique-key violations are reported as
// ErrEmailExists or ErrUserNameExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, user_name, password_hash, role, overdue_tax) VALUES (?,?,?,?,?)",
		u.Email, u.UserName, u.PasswordHash, u.Role.String(), u.OverdueTax)
	if err != nil {
		if msg, ok := duplicateKey(err); ok {
			if strings.Contains(msg, "user_name") {
				return ErrUserNameExists
			}
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByID fetches a user and its collections by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByUserName fetches a user and its collections by handle.
func (r *UserRepo) GetByUserName(ctx context.Context, userName string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE user_name=? LIMIT 1", userName)
}

// EmailExists reports whether an account already uses email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE email=? LIMIT 1", email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := r.DB.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Email, &u.UserName, &u.PasswordHash, &role, &u.OverdueTax, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role, _ = model.ParseRole(role)
	if err := r.loadCollections(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) loadCollections(ctx context.Context, u *model.User) error {
	likes, err := r.DB.QueryContext(ctx,
		"SELECT movie_id FROM user_liked_movies WHERE user_id=? ORDER BY liked_at, movie_id", u.ID)
	if err != nil {
		return err
	}
	defer likes.Close()
	for likes.Next() {
		var id uint64
		if err := likes.Scan(&id); err != nil {
			return err
		}
		u.LikedMovies = append(u.LikedMovies, id)
	}
	if err := likes.Err(); err != nil {
		return err
	}

	purchases, err := r.DB.QueryContext(ctx,
		"SELECT id,movie_id,copies,purchase_date,unit_price,total_charge FROM purchases WHERE user_id=? ORDER BY id", u.ID)
	if err != nil {
		return err
	}
	defer purchases.Close()
	for purchases.Next() {
		var p model.PurchaseRecord
		if err := purchases.Scan(&p.ID, &p.MovieID, &p.Copies, &p.PurchaseDate, &p.UnitPrice, &p.TotalCharge); err != nil {
			return err
		}
		u.Purchases = append(u.Purchases, p)
	}
	if err := purchases.Err(); err != nil {
		return err
	}

	rentals, err := r.DB.QueryContext(ctx,
		"SELECT id,movie_id,copies,rental_date,return_date,unit_price,total_charge FROM rentals WHERE user_id=? ORDER BY id", u.ID)
	if err != nil {
		return err
	}
	defer rentals.Close()
	for rentals.Next() {
		var rr model.RentalRecord
		if err := rentals.Scan(&rr.ID, &rr.MovieID, &rr.Copies, &rr.RentalDate, &rr.ReturnDate, &rr.UnitPrice, &rr.TotalCharge); err != nil {
			return err
		}
		u.Rentals = append(u.Rentals, rr)
	}
	return rentals.Err()
}

// AddLike records that userID liked movieID. added is false when the pair
// already existed.
func (r *UserRepo) AddLike(ctx context.Context, userID, movieID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO user_liked_movies (user_id, movie_id) VALUES (?,?)", userID, movieID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AppendPurchase adds p to the user's purchase history and sets p.ID.
func (r *UserRepo) AppendPurchase(ctx context.Context, userID uint64, p *model.PurchaseRecord) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO purchases (user_id, movie_id, copies, purchase_date, unit_price, total_charge) VALUES (?,?,?,?,?,?)",
		userID, p.MovieID, p.Copies, p.PurchaseDate, p.UnitPrice, p.TotalCharge)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// AppendRental adds rr to the user's open rentals and sets rr.ID.
func (r *UserRepo) AppendRental(ctx context.Context, userID uint64, rr *model.RentalRecord) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO rentals (user_id, movie_id, copies, rental_date, return_date, unit_price, total_charge) VALUES (?,?,?,?,?,?,?)",
		userID, rr.MovieID, rr.Copies, rr.RentalDate, rr.ReturnDate, rr.UnitPrice, rr.TotalCharge)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rr.ID = uint64(id)
	return nil
}

// CloseRental removes one rental and adds tax to the user's overdue total
// in a single transaction. ErrRentalNotFound means the rental was already
// closed by a concurrent request.
func (r *UserRepo) CloseRental(ctx context.Context, userID, rentalID uint64, tax float64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM rentals WHERE id=? AND user_id=?", rentalID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrRentalNotFound
	}
	if tax != 0 {
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET overdue_tax = overdue_tax + ? WHERE id=?", tax, userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetRole changes the role of the named user.
func (r *UserRepo) SetRole(ctx context.Context, userName string, role model.Role) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE user_name=?", role.String(), userName)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByUserName(ctx, userName); err != nil {
			return err
		}
	}
	return nil
}
