package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/iliyamo/movie-rental/internal/auth"
	"github.com/iliyamo/movie-rental/internal/errs"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/queue"
	"github.com/iliyamo/movie-rental/internal/repository"
)

// Kind selects between a purchase and a rental.
type Kind uint8

const (
	Purchase Kind = iota
	Rental
)

// ParseKind maps the :transaction path segment.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "buy":
		return Purchase, true
	case "rent":
		return Rental, true
	}
	return 0, false
}

func (k Kind) String() string {
	if k == Rental {
		return "rent"
	}
	return "buy"
}

// Summary describes a completed buy or rent.
type Summary struct {
	Title           string     `json:"title"`
	UnitPrice       float64    `json:"unitPrice"`
	TotalCharge     float64    `json:"totalCharge"`
	Copies          int        `json:"copies"`
	TransactionDate time.Time  `json:"transactionDate"`
	ReturnDate      *time.Time `json:"returnDate,omitempty"`
}

// Transactions is the like/buy/rent/return engine.
type Transactions struct {
	d          Deps
	rentalDays int
	lateTax    float64
}

func NewTransactions(d Deps, rentalDays int, lateTaxPerDay float64) *Transactions {
	if rentalDays < 1 {
		rentalDays = 3
	}
	return &Transactions{d: d.withDefaults("transactions"), rentalDays: rentalDays, lateTax: lateTaxPerDay}
}

// MsgNotRenting is returned when a user returns a movie they do not rent.
const MsgNotRenting = "not currently renting"

func noSuchTitle(title string) error {
	return errs.NotFound("No movie with title: " + title)
}

// Like adds the movie to the user's liked set and bumps its like count.
// liked is false when the user had already liked the movie, in which case
// nothing changes.
func (t *Transactions) Like(ctx context.Context, s auth.Session, title string) (likes int, liked bool, err error) {
	if err := auth.Authorize(auth.OpLike, s); err != nil {
		return 0, false, err
	}
	if title == "" {
		return 0, false, errs.NotFound("No movie title specified")
	}
	movie, err := t.d.Movies.GetByTitle(ctx, title, false)
	if isNotFound(err) {
		return 0, false, noSuchTitle(title)
	}
	if err != nil {
		return 0, false, classify("like: load movie", err)
	}

	added, err := t.d.Users.AddLike(ctx, s.User.ID, movie.ID)
	if err != nil {
		return 0, false, classify("like: add like", err)
	}
	if !added {
		return movie.Likes, false, nil
	}
	likes, err = t.d.Movies.IncrementLikes(ctx, movie.ID)
	if err != nil {
		return 0, false, classify("like: increment", err)
	}
	t.d.Logger.Info("movie liked", "operation", "like", "outcome", "ok", "movie_id", movie.ID, "likes", likes)
	return likes, true, nil
}

// Buy and Rent share the same stock and record mechanics.
func (t *Transactions) Buy(ctx context.Context, s auth.Session, title string, copies int) (*Summary, error) {
	return t.Transact(ctx, s, Purchase, title, copies)
}

func (t *Transactions) Rent(ctx context.Context, s auth.Session, title string, copies int) (*Summary, error) {
	return t.Transact(ctx, s, Rental, title, copies)
}

// Transact removes copies from stock and appends the matching record to
// the user's history. Stock is decremented with a guarded update, so two
// concurrent requests cannot oversell. If appending the record fails the
// stock decrement is not undone.
func (t *Transactions) Transact(ctx context.Context, s auth.Session, kind Kind, title string, copies int) (*Summary, error) {
	op := auth.OpBuy
	if kind == Rental {
		op = auth.OpRent
	}
	if err := auth.Authorize(op, s); err != nil {
		return nil, err
	}
	if copies < 1 {
		copies = 1
	}

	movie, err := t.d.Movies.GetByTitle(ctx, title, true)
	if isNotFound(err) {
		return nil, noSuchTitle(title)
	}
	if err != nil {
		return nil, classify(kind.String()+": load movie", err)
	}
	if movie.Stock < copies {
		return nil, outOfStock(movie, copies)
	}
	if err := t.d.Movies.DecrementStock(ctx, movie.ID, copies); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, outOfStock(movie, copies)
		}
		if isNotFound(err) {
			return nil, noSuchTitle(title)
		}
		return nil, classify(kind.String()+": decrement stock", err)
	}

	now := t.d.Clock().UTC()
	sum := &Summary{Title: movie.Title, Copies: copies, TransactionDate: now}
	ev := queue.NewAuditEvent(queue.ActionBuy, s.User.UserName, now)

	switch kind {
	case Purchase:
		sum.UnitPrice = movie.SalePrice
		sum.TotalCharge = roundCents(movie.SalePrice * float64(copies))
		rec := &model.PurchaseRecord{
			MovieID:      movie.ID,
			Copies:       copies,
			PurchaseDate: now,
			UnitPrice:    sum.UnitPrice,
			TotalCharge:  sum.TotalCharge,
		}
		if err := t.d.Users.AppendPurchase(ctx, s.User.ID, rec); err != nil {
			return nil, classify("buy: append purchase", err)
		}
	case Rental:
		due := now.AddDate(0, 0, t.rentalDays)
		sum.UnitPrice = movie.RentalPrice
		sum.TotalCharge = roundCents(movie.RentalPrice * float64(copies))
		sum.ReturnDate = &due
		rec := &model.RentalRecord{
			MovieID:     movie.ID,
			Copies:      copies,
			RentalDate:  now,
			ReturnDate:  due,
			UnitPrice:   sum.UnitPrice,
			TotalCharge: sum.TotalCharge,
		}
		if err := t.d.Users.AppendRental(ctx, s.User.ID, rec); err != nil {
			return nil, classify("rent: append rental", err)
		}
		ev.Action = queue.ActionRent
	}

	ev.MovieID, ev.MovieTitle, ev.Copies, ev.TotalCharge = movie.ID, movie.Title, copies, sum.TotalCharge
	t.d.record(ctx, ev)
	t.d.Logger.Info("transaction completed", "operation", kind.String(), "outcome", "ok",
		"movie_id", movie.ID, "copies", copies, "total", sum.TotalCharge)
	return sum, nil
}

func outOfStock(m *model.Movie, copies int) error {
	return errs.Validation(fmt.Sprintf("only %d copies of %s in stock, %d requested", m.Stock, m.Title, copies))
}

// Return closes the oldest open rental of the movie and accrues the
// overdue fee when the due date has passed. An unknown title cannot be
// rented, so it is reported as not renting. The fee is
// ceil(days late) * lateTaxPerDay * copies.
func (t *Transactions) Return(ctx context.Context, s auth.Session, title string) error {
	if err := auth.Authorize(auth.OpReturn, s); err != nil {
		return err
	}
	movie, err := t.d.Movies.GetByTitle(ctx, title, false)
	if isNotFound(err) {
		return errs.Validation(MsgNotRenting)
	}
	if err != nil {
		return classify("return: load movie", err)
	}

	// The session user may be stale; re-read the current rentals.
	user, err := t.d.Users.GetByID(ctx, s.User.ID)
	if err != nil {
		return classify("return: load user", err)
	}
	idx := user.FirstRental(movie.ID)
	if idx < 0 {
		return errs.Validation(MsgNotRenting)
	}
	rental := user.Rentals[idx]

	now := t.d.Clock().UTC()
	tax := t.OverdueFee(rental, now)
	if err := t.d.Users.CloseRental(ctx, user.ID, rental.ID, tax); err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			return errs.Validation(MsgNotRenting)
		}
		return classify("return: close rental", err)
	}

	ev := queue.NewAuditEvent(queue.ActionReturn, user.UserName, now)
	ev.MovieID, ev.MovieTitle, ev.Copies, ev.OverdueTax = movie.ID, movie.Title, rental.Copies, tax
	t.d.record(ctx, ev)
	t.d.Logger.Info("rental returned", "operation", "return", "outcome", "ok",
		"movie_id", movie.ID, "late", tax > 0, "overdue_tax", tax)
	return nil
}

// OverdueFee is zero when now is not after the due date.
func (t *Transactions) OverdueFee(r model.RentalRecord, now time.Time) float64 {
	if !now.After(r.ReturnDate) {
		return 0
	}
	daysLate := math.Ceil(now.Sub(r.ReturnDate).Hours() / 24)
	return roundCents(daysLate * t.lateTax * float64(r.Copies))
}
