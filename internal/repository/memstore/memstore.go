// Package memstore provides in-memory implementations of the movie, user
// and revocation stores. They follow the same error contract as the MySQL
// repositories and are used by tests and by STORE_DRIVER=memory.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/movie-rental/internal/errs"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/repository"
	"github.com/iliyamo/movie-rental/internal/utils"
)

// Movies is a mutex-guarded catalog. Callers always receive copies.
type Movies struct {
	mu     sync.RWMutex
	nextID uint64
	rows   map[uint64]model.Movie
}

func NewMovies() *Movies {
	return &Movies{rows: make(map[uint64]model.Movie)}
}

func cloneMovie(m model.Movie) *model.Movie {
	m.Posters = append([]string(nil), m.Posters...)
	return &m
}

func (s *Movies) checkSchema(m *model.Movie) error {
	if err := m.Validate(); err != nil {
		return errs.Validation(err.Error())
	}
	for id, row := range s.rows {
		if id != m.ID && row.Title == m.Title {
			return errs.Validation(fmt.Sprintf("movie with title %q already exists", m.Title))
		}
	}
	return nil
}

func (s *Movies) Create(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = 0
	if err := s.checkSchema(m); err != nil {
		return err
	}
	s.nextID++
	m.ID = s.nextID
	s.rows[m.ID] = *cloneMovie(*m)
	return nil
}

func (s *Movies) GetByID(_ context.Context, id uint64) (*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return cloneMovie(m), nil
}

func (s *Movies) GetByTitle(_ context.Context, title string, availableOnly bool) (*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.sorted(model.SortNatural) {
		if m.Title == title && (!availableOnly || m.Availability) {
			return cloneMovie(m), nil
		}
	}
	return nil, repository.ErrMovieNotFound
}

// sorted must be called with the lock held.
func (s *Movies) sorted(order model.SortOrder) []model.Movie {
	out := make([]model.Movie, 0, len(s.rows))
	for _, m := range s.rows {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	switch order {
	case model.SortTitle:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	case model.SortPopularity:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Likes > out[j].Likes })
	}
	return out
}

func (s *Movies) List(_ context.Context, q model.MovieQuery) ([]model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Movie{}
	skipped := 0
	for _, m := range s.sorted(q.Sort) {
		if q.Availability != nil && m.Availability != *q.Availability {
			continue
		}
		if skipped < q.Skip {
			skipped++
			continue
		}
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
		out = append(out, *cloneMovie(m))
	}
	return out, nil
}

func (s *Movies) Update(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[m.ID]; !ok {
		return repository.ErrMovieNotFound
	}
	if err := s.checkSchema(m); err != nil {
		return err
	}
	s.rows[m.ID] = *cloneMovie(*m)
	return nil
}

func (s *Movies) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *Movies) DecrementStock(_ context.Context, id uint64, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return repository.ErrMovieNotFound
	}
	if m.Stock < n {
		return repository.ErrInsufficientStock
	}
	m.Stock -= n
	s.rows[id] = m
	return nil
}

func (s *Movies) IncrementLikes(_ context.Context, id uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return 0, repository.ErrMovieNotFound
	}
	m.Likes++
	s.rows[id] = m
	return m.Likes, nil
}

// Users is a mutex-guarded account store. Callers always receive copies.
type Users struct {
	mu       sync.RWMutex
	nextID   uint64
	recordID uint64
	rows     map[uint64]model.User
}

func NewUsers() *Users {
	return &Users{rows: make(map[uint64]model.User)}
}

func cloneUser(u model.User) *model.User {
	u.LikedMovies = append([]uint64(nil), u.LikedMovies...)
	u.Purchases = append([]model.PurchaseRecord(nil), u.Purchases...)
	u.Rentals = append([]model.RentalRecord(nil), u.Rentals...)
	return &u
}

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Email == u.Email {
			return repository.ErrEmailExists
		}
		if row.UserName == u.UserName {
			return repository.ErrUserNameExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.rows[u.ID] = *cloneUser(*u)
	return nil
}

func (s *Users) GetByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *Users) GetByUserName(_ context.Context, userName string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.rows {
		if u.UserName == userName {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *Users) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.rows {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Users) AddLike(_ context.Context, userID, movieID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[userID]
	if !ok {
		return false, repository.ErrUserNotFound
	}
	if u.HasLiked(movieID) {
		return false, nil
	}
	u.LikedMovies = append(append([]uint64(nil), u.LikedMovies...), movieID)
	s.rows[userID] = u
	return true, nil
}

func (s *Users) AppendPurchase(_ context.Context, userID uint64, p *model.PurchaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	s.recordID++
	p.ID = s.recordID
	u.Purchases = append(append([]model.PurchaseRecord(nil), u.Purchases...), *p)
	s.rows[userID] = u
	return nil
}

func (s *Users) AppendRental(_ context.Context, userID uint64, r *model.RentalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	s.recordID++
	r.ID = s.recordID
	u.Rentals = append(append([]model.RentalRecord(nil), u.Rentals...), *r)
	s.rows[userID] = u
	return nil
}

func (s *Users) CloseRental(_ context.Context, userID, rentalID uint64, tax float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	idx := -1
	for i, r := range u.Rentals {
		if r.ID == rentalID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return repository.ErrRentalNotFound
	}
	rentals := make([]model.RentalRecord, 0, len(u.Rentals)-1)
	rentals = append(rentals, u.Rentals[:idx]...)
	u.Rentals = append(rentals, u.Rentals[idx+1:]...)
	u.OverdueTax += tax
	s.rows[userID] = u
	return nil
}

func (s *Users) SetRole(_ context.Context, userName string, role model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.rows {
		if u.UserName == userName {
			u.Role = role
			s.rows[id] = u
			return nil
		}
	}
	return repository.ErrUserNotFound
}

// SetRentalDue overwrites the due date of an open rental. Tests use it to
// simulate late returns.
func (s *Users) SetRentalDue(userID, rentalID uint64, due time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[userID]
	if !ok {
		return false
	}
	for i := range u.Rentals {
		if u.Rentals[i].ID == rentalID {
			rentals := append([]model.RentalRecord(nil), u.Rentals...)
			rentals[i].ReturnDate = due
			u.Rentals = rentals
			s.rows[userID] = u
			return true
		}
	}
	return false
}

type revocationKey struct {
	hash     string
	userName string
}

// Revocations is an in-memory append-only denylist keyed by token digest
// and handle, like the revoked_tokens table.
type Revocations struct {
	mu   sync.RWMutex
	rows map[revocationKey]struct{}
}

func NewRevocations() *Revocations {
	return &Revocations{rows: make(map[revocationKey]struct{})}
}

func (s *Revocations) Revoke(_ context.Context, token, userName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[revocationKey{utils.HashToken(token), userName}] = struct{}{}
	return nil
}

func (s *Revocations) IsRevoked(_ context.Context, token, userName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[revocationKey{utils.HashToken(token), userName}]
	return ok, nil
}
