// Package service implements the transaction engine, the catalog query
// engine and account management. Every operation receives the resolved
// auth.Session and consults the access policy before touching a store.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/iliyamo/movie-rental/internal/auth"
	"github.com/iliyamo/movie-rental/internal/errs"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/queue"
	"github.com/iliyamo/movie-rental/internal/repository"
)

// MovieStore is the catalog persistence used by the services.
type MovieStore interface {
	Create(ctx context.Context, m *model.Movie) error
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
	GetByTitle(ctx context.Context, title string, availableOnly bool) (*model.Movie, error)
	List(ctx context.Context, q model.MovieQuery) ([]model.Movie, error)
	Update(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id uint64) error
	DecrementStock(ctx context.Context, id uint64, n int) error
	IncrementLikes(ctx context.Context, id uint64) (int, error)
}

// UserStore is the identity persistence used by the services.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByUserName(ctx context.Context, userName string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	AddLike(ctx context.Context, userID, movieID uint64) (bool, error)
	AppendPurchase(ctx context.Context, userID uint64, p *model.PurchaseRecord) error
	AppendRental(ctx context.Context, userID uint64, r *model.RentalRecord) error
	CloseRental(ctx context.Context, userID, rentalID uint64, tax float64) error
	SetRole(ctx context.Context, userName string, role model.Role) error
}

// Auditor receives one event per catalog or inventory mutation.
type Auditor interface {
	Record(ctx context.Context, ev queue.AuditEvent) error
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// Deps bundles the collaborators shared by the services.
type Deps struct {
	Movies      MovieStore
	Users       UserStore
	Revocations auth.RevocationList
	Audit       Auditor
	Clock       Clock
	Logger      *slog.Logger
}

func (d Deps) withDefaults(module string) Deps {
	if d.Clock == nil {
		d.Clock = func() time.Time { return time.Now().UTC() }
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	d.Logger = d.Logger.With("module", module)
	if d.Audit == nil {
		d.Audit = nopAuditor{}
	}
	return d
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, queue.AuditEvent) error { return nil }

// record hands ev to the auditor. A failing sink never fails the request.
func (d Deps) record(ctx context.Context, ev queue.AuditEvent) {
	if err := d.Audit.Record(ctx, ev); err != nil {
		d.Logger.Error("audit record failed", "operation", string(ev.Action), "event_id", ev.ID, "error", err)
	}
}

// classify passes *errs.Error values through and wraps everything else as
// an internal error so that raw store errors never reach clients.
func classify(op string, err error) error {
	if _, ok := errs.As(err); ok {
		return err
	}
	return errs.Internal(op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrMovieNotFound) || errors.Is(err, repository.ErrUserNotFound)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func actor(s auth.Session) string {
	if s.User == nil {
		return ""
	}
	return s.User.UserName
}
