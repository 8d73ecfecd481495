package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/movie-rental/internal/errs"
	"github.com/iliyamo/movie-rental/internal/model"
)

const movieColumns = `id, title, description, posters, stock, rental_price, sale_price, availability, likes`

// MovieRepo manages persistence for catalog entries.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*model.Movie, error) {
	var (
		m       model.Movie
		posters []byte
	)
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &posters, &m.Stock, &m.RentalPrice, &m.SalePrice, &m.Availability, &m.Likes); err != nil {
		return nil, err
	}
	if len(posters) > 0 {
		if err := json.Unmarshal(posters, &m.Posters); err != nil {
			return nil, fmt.Errorf("decode posters of movie %d: %w", m.ID, err)
		}
	}
	return &m, nil
}

// movieSchemaError converts validation and unique-key failures into errs values.
func movieSchemaError(m *model.Movie, err error) error {
	var se *model.SchemaError
	if errors.As(err, &se) {
		return errs.Validation(se.Error())
	}
	if _, ok := duplicateKey(err); ok {
		return errs.Validation(fmt.Sprintf("movie with title %q already exists", m.Title))
	}
	return err
}

// Create validates and inserts m, assigning the generated ID.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	if err := m.Validate(); err != nil {
		return movieSchemaError(m, err)
	}
	posters, err := json.Marshal(m.Posters)
	if err != nil {
		return err
	}
	const q = `INSERT INTO movies (title, description, posters, stock, rental_price, sale_price, availability, likes)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Description, posters, m.Stock, m.RentalPrice, m.SalePrice, m.Availability, m.Likes)
	if err != nil {
		return movieSchemaError(m, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID retrieves a movie by its ID. It returns ErrMovieNotFound if
// there is no matching row.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	return m, err
}

// GetByTitle retrieves a movie by exact title. When availableOnly is set,
// unavailable movies are treated as missing.
func (r *MovieRepo) GetByTitle(ctx context.Context, title string, availableOnly bool) (*model.Movie, error) {
	q := `SELECT ` + movieColumns + ` FROM movies WHERE title = ?`
	if availableOnly {
		q += ` AND availability = 1`
	}
	m, err := scanMovie(r.db.QueryRowContext(ctx, q+` LIMIT 1`, title))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	return m, err
}

// List filters, orders and paginates the catalog.
func (r *MovieRepo) List(ctx context.Context, mq model.MovieQuery) ([]model.Movie, error) {
	where := []string{}
	args := []any{}
	if mq.Availability != nil {
		where = append(where, "availability = ?")
		args = append(args, *mq.Availability)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	order := "id ASC"
	switch mq.Sort {
	case model.SortTitle:
		order = "title ASC, id ASC"
	case model.SortPopularity:
		order = "likes DESC, id ASC"
	}

	q := `SELECT ` + movieColumns + ` FROM movies WHERE ` + cond + ` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	args = append(args, mq.Limit, mq.Skip)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update validates m and overwrites every stored field of the row.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	if err := m.Validate(); err != nil {
		return movieSchemaError(m, err)
	}
	posters, err := json.Marshal(m.Posters)
	if err != nil {
		return err
	}
	const q = `UPDATE movies SET title = ?, description = ?, posters = ?, stock = ?, rental_price = ?,
	           sale_price = ?, availability = ?, likes = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Description, posters, m.Stock, m.RentalPrice, m.SalePrice, m.Availability, m.Likes, m.ID)
	if err != nil {
		return movieSchemaError(m, err)
	}
	// RowsAffected is 0 both for a missing row and for an unchanged one.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, m.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the movie. Deleting a missing movie is not an error.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	return err
}

// DecrementStock removes n copies from stock in a single guarded
// statement so that concurrent buyers cannot drive stock below zero.
func (r *MovieRepo) DecrementStock(ctx context.Context, id uint64, n int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE movies SET stock = stock - ? WHERE id = ? AND stock >= ?`, n, id, n)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

// IncrementLikes adds one like and returns the new count.
func (r *MovieRepo) IncrementLikes(ctx context.Context, id uint64) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE movies SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, ErrMovieNotFound
	}
	var likes int
	if err := r.db.QueryRowContext(ctx, `SELECT likes FROM movies WHERE id = ?`, id).Scan(&likes); err != nil {
		return 0, err
	}
	return likes, nil
}
