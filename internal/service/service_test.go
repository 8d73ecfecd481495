package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-rental/internal/auth"
	"github.com/iliyamo/movie-rental/internal/errs"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/queue"
	"github.com/iliyamo/movie-rental/internal/repository/memstore"
)

type recorder struct {
	mu     sync.Mutex
	events []queue.AuditEvent
}

func (r *recorder) Record(_ context.Context, ev queue.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) last() queue.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type fixture struct {
	movies  *memstore.Movies
	users   *memstore.Users
	revoked *memstore.Revocations
	audit   *recorder
	now     time.Time
	tx      *Transactions
	catalog *Catalog
	acct    *Accounts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		movies:  memstore.NewMovies(),
		users:   memstore.NewUsers(),
		revoked: memstore.NewRevocations(),
		audit:   &recorder{},
		now:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	d := Deps{
		Movies:      f.movies,
		Users:       f.users,
		Revocations: f.revoked,
		Audit:       f.audit,
		Clock:       func() time.Time { return f.now },
	}
	f.tx = NewTransactions(d, 3, 5)
	f.catalog = NewCatalog(d, 5)
	f.acct = NewAccounts(d, AccountOptions{JWTSecret: "s", BcryptCost: bcrypt.MinCost})
	return f
}

func (f *fixture) movie(t *testing.T, title string, stock int, available bool) *model.Movie {
	t.Helper()
	m := &model.Movie{
		Title:        title,
		Description:  strings.Repeat("x", model.MinDescriptionLength),
		Posters:      []string{"p.jpg"},
		Stock:        stock,
		RentalPrice:  3,
		SalePrice:    12.5,
		Availability: available,
	}
	if err := f.movies.Create(context.Background(), m); err != nil {
		t.Fatalf("create movie: %v", err)
	}
	return m
}

func (f *fixture) session(t *testing.T, name string, role model.Role) auth.Session {
	t.Helper()
	u := &model.User{Email: name + "@example.com", UserName: name, Role: role}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return auth.Session{Status: auth.Authenticated, User: u, Token: "tok-" + name}
}

func TestLikeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.movie(t, "Alien", 1, true)
	s := f.session(t, "neo", model.RoleUser)

	likes, liked, err := f.tx.Like(ctx, s, "Alien")
	if err != nil || !liked || likes != 1 {
		t.Fatalf("first like: likes=%d liked=%v err=%v", likes, liked, err)
	}
	likes, liked, err = f.tx.Like(ctx, s, "Alien")
	if err != nil || liked || likes != 1 {
		t.Fatalf("second like: likes=%d liked=%v err=%v", likes, liked, err)
	}
	got, _ := f.movies.GetByID(ctx, m.ID)
	if got.Likes != 1 {
		t.Fatalf("expected 1 like, got %d", got.Likes)
	}
}

func TestLikeErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, "neo", model.RoleUser)

	if _, _, err := f.tx.Like(ctx, auth.Session{}, "Alien"); errs.ReasonOf(err) != errs.ReasonAuthRequired {
		t.Fatalf("expected auth required, got %v", err)
	}
	if _, _, err := f.tx.Like(ctx, s, ""); !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("expected not found for missing title, got %v", err)
	}
	if _, _, err := f.tx.Like(ctx, s, "Nope"); !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("expected not found for unknown title, got %v", err)
	}
	s.Status = auth.Revoked
	if _, _, err := f.tx.Like(ctx, s, "Alien"); errs.ReasonOf(err) != errs.ReasonLogoutRequired {
		t.Fatalf("expected logout required, got %v", err)
	}
}

func TestBuyDecrementsStockAndRecordsPurchase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.movie(t, "Alien", 3, true)
	s := f.session(t, "neo", model.RoleUser)

	sum, err := f.tx.Buy(ctx, s, "Alien", 2)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if sum.Copies != 2 || sum.UnitPrice != 12.5 || sum.TotalCharge != 25 || !sum.TransactionDate.Equal(f.now) || sum.ReturnDate != nil {
		t.Fatalf("unexpected summary %+v", sum)
	}
	got, _ := f.movies.GetByID(ctx, m.ID)
	if got.Stock != 1 {
		t.Fatalf("expected stock 1, got %d", got.Stock)
	}
	u, _ := f.users.GetByID(ctx, s.User.ID)
	if len(u.Purchases) != 1 || u.Purchases[0].MovieID != m.ID || u.Purchases[0].TotalCharge != 25 {
		t.Fatalf("unexpected purchases %+v", u.Purchases)
	}
	if ev := f.audit.last(); ev.Action != queue.ActionBuy || ev.Copies != 2 {
		t.Fatalf("unexpected audit event %+v", ev)
	}
}

func TestBuyRejectsMoreThanStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.movie(t, "Alien", 1, true)
	s := f.session(t, "neo", model.RoleUser)

	if _, err := f.tx.Buy(ctx, s, "Alien", 2); !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := f.movies.GetByID(ctx, m.ID)
	if got.Stock != 1 {
		t.Fatalf("stock must be unchanged, got %d", got.Stock)
	}
	u, _ := f.users.GetByID(ctx, s.User.ID)
	if len(u.Purchases) != 0 {
		t.Fatal("no purchase must be recorded")
	}
}

func TestBuyZeroCopiesMeansOne(t *testing.T) {
	f := newFixture(t)
	f.movie(t, "Alien", 2, true)
	s := f.session(t, "neo", model.RoleUser)
	sum, err := f.tx.Buy(context.Background(), s, "Alien", 0)
	if err != nil || sum.Copies != 1 {
		t.Fatalf("expected one copy, got %+v %v", sum, err)
	}
}

func TestRentSetsReturnDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.movie(t, "Alien", 2, true)
	s := f.session(t, "neo", model.RoleUser)

	sum, err := f.tx.Rent(ctx, s, "Alien", 1)
	if err != nil {
		t.Fatalf("rent: %v", err)
	}
	want := f.now.AddDate(0, 0, 3)
	if sum.ReturnDate == nil || !sum.ReturnDate.Equal(want) || sum.UnitPrice != 3 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	u, _ := f.users.GetByID(ctx, s.User.ID)
	if len(u.Rentals) != 1 || !u.Rentals[0].ReturnDate.Equal(want) {
		t.Fatalf("unexpected rentals %+v", u.Rentals)
	}
}

func TestTransactRequiresAvailableMovie(t *testing.T) {
	f := newFixture(t)
	f.movie(t, "Hidden", 2, false)
	s := f.session(t, "neo", model.RoleUser)
	if _, err := f.tx.Rent(context.Background(), s, "Hidden", 1); !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReturnOnTimeAccruesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.movie(t, "Alien", 2, true)
	s := f.session(t, "neo", model.RoleUser)
	if _, err := f.tx.Rent(ctx, s, "Alien", 1); err != nil {
		t.Fatalf("rent: %v", err)
	}
	f.now = f.now.AddDate(0, 0, 3)
	if err := f.tx.Return(ctx, s, "Alien"); err != nil {
		t.Fatalf("return: %v", err)
	}
	u, _ := f.users.GetByID(ctx, s.User.ID)
	if u.OverdueTax != 0 || len(u.Rentals) != 0 {
		t.Fatalf("expected no tax and no rentals, got tax=%v rentals=%d", u.OverdueTax, len(u.Rentals))
	}
}

func TestReturnLateAccruesOverdueTax(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.movie(t, "Alien", 2, true)
	s := f.session(t, "neo", model.RoleUser)
	if _, err := f.tx.Rent(ctx, s, "Alien", 1); err != nil {
		t.Fatalf("rent: %v", err)
	}
	// Due after 3 days, returned after 6: 3 late days * 5 * 1 copy.
	f.now = f.now.AddDate(0, 0, 6)
	if err := f.tx.Return(ctx, s, "Alien"); err != nil {
		t.Fatalf("return: %v", err)
	}
	u, _ := f.users.GetByID(ctx, s.User.ID)
	if u.OverdueTax != 15 {
		t.Fatalf("expected overdue tax 15, got %v", u.OverdueTax)
	}
}

func TestReturnDueInThePast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.movie(t, "Alien", 5, true)
	s := f.session(t, "neo", model.RoleUser)
	if _, err := f.tx.Rent(ctx, s, "Alien", 2); err != nil {
		t.Fatalf("rent: %v", err)
	}
	u, _ := f.users.GetByID(ctx, s.User.ID)
	f.users.SetRentalDue(u.ID, u.Rentals[0].ID, f.now.Add(-36*time.Hour))

	if err := f.tx.Return(ctx, s, "Alien"); err != nil {
		t.Fatalf("return: %v", err)
	}
	u, _ = f.users.GetByID(ctx, s.User.ID)
	// 1.5 days late rounds up to 2: 2 * 5 * 2 copies.
	if u.OverdueTax != 20 {
		t.Fatalf("expected overdue tax 20, got %v", u.OverdueTax)
	}
}

func TestReturnRemovesOnlyFirstRental(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.movie(t, "Alien", 5, true)
	s := f.session(t, "neo", model.RoleUser)
	_, _ = f.tx.Rent(ctx, s, "Alien", 1)
	_, _ = f.tx.Rent(ctx, s, "Alien", 2)

	if err := f.tx.Return(ctx, s, "Alien"); err != nil {
		t.Fatalf("return: %v", err)
	}
	u, _ := f.users.GetByID(ctx, s.User.ID)
	if len(u.Rentals) != 1 || u.Rentals[0].Copies != 2 {
		t.Fatalf("expected the second rental to remain, got %+v", u.Rentals)
	}
}

func TestReturnNotRenting(t *testing.T) {
	f := newFixture(t)
	f.movie(t, "Alien", 1, true)
	s := f.session(t, "neo", model.RoleUser)
	err := f.tx.Return(context.Background(), s, "Alien")
	if e, ok := errs.As(err); !ok || e.Kind != errs.KindValidation || e.Message != MsgNotRenting {
		t.Fatalf("expected not renting error, got %v", err)
	}
}

func TestReturnUnknownTitle(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, "neo", model.RoleUser)
	err := f.tx.Return(context.Background(), s, "Nope")
	if e, ok := errs.As(err); !ok || e.Kind != errs.KindValidation || e.Message != MsgNotRenting {
		t.Fatalf("expected not renting error, got %v", err)
	}
}

func TestListVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.movie(t, "A", 1, true)
	f.movie(t, "B", 1, false)
	f.movie(t, "C", 1, true)
	user := f.session(t, "neo", model.RoleUser)
	admin := f.session(t, "root", model.RoleAdministrator)

	for _, s := range []auth.Session{{}, user} {
		got, err := f.catalog.List(ctx, s, model.ViewUnavailable, Page{})
		if err != nil || len(got) != 2 {
			t.Fatalf("expected 2 available movies, got %d %v", len(got), err)
		}
		for _, m := range got {
			if !m.Availability {
				t.Fatalf("unavailable movie %q leaked", m.Title)
			}
		}
	}

	got, err := f.catalog.List(ctx, admin, model.ViewUnavailable, Page{})
	if err != nil || len(got) != 1 || got[0].Title != "B" {
		t.Fatalf("expected only B, got %+v %v", got, err)
	}
	got, _ = f.catalog.List(ctx, admin, model.ViewAll, Page{})
	if len(got) != 3 {
		t.Fatalf("expected all 3 movies, got %d", len(got))
	}

	admin.Status = auth.Revoked
	if _, err := f.catalog.List(ctx, admin, model.ViewAll, Page{}); errs.ReasonOf(err) != errs.ReasonLogoutRequired {
		t.Fatalf("expected logout required, got %v", err)
	}
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, title := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		f.movie(t, title, 1, true)
	}
	got, _ := f.catalog.List(ctx, auth.Session{}, model.ViewAll, Page{})
	if len(got) != 5 {
		t.Fatalf("expected default page of 5, got %d", len(got))
	}
	got, _ = f.catalog.List(ctx, auth.Session{}, model.ViewAll, Page{Skip: 3, Limit: 10})
	if len(got) != 4 || got[0].Title != "D" || got[3].Title != "G" {
		t.Fatalf("unexpected page %+v", got)
	}
}

type queryRecorder struct {
	*memstore.Movies
	last model.MovieQuery
}

func (q *queryRecorder) List(ctx context.Context, mq model.MovieQuery) ([]model.Movie, error) {
	q.last = mq
	return q.Movies.List(ctx, mq)
}

func TestPageLimitIsCapped(t *testing.T) {
	ctx := context.Background()
	store := &queryRecorder{Movies: memstore.NewMovies()}
	c := NewCatalog(Deps{Movies: store}, 5)

	if _, err := c.List(ctx, auth.Session{}, model.ViewAll, Page{Limit: 1_000_000}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.last.Limit != MaxPageSize {
		t.Fatalf("list limit = %d, want %d", store.last.Limit, MaxPageSize)
	}
	if _, err := c.Sort(ctx, model.SortPopularity, Page{Limit: MaxPageSize + 1}); err != nil {
		t.Fatalf("sort: %v", err)
	}
	if store.last.Limit != MaxPageSize {
		t.Fatalf("sort limit = %d, want %d", store.last.Limit, MaxPageSize)
	}
}

func TestSortOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i, title := range []string{"Cube", "Alien", "Brazil"} {
		m := f.movie(t, title, 1, true)
		for j := 0; j <= i; j++ {
			_, _ = f.movies.IncrementLikes(ctx, m.ID)
		}
	}
	f.movie(t, "Aaa hidden", 1, false)

	got, _ := f.catalog.Sort(ctx, model.SortTitle, Page{})
	for i := 1; i < len(got); i++ {
		if got[i-1].Title > got[i].Title {
			t.Fatalf("titles out of order: %q before %q", got[i-1].Title, got[i].Title)
		}
	}
	if len(got) != 3 {
		t.Fatalf("sort must only include available movies, got %d", len(got))
	}
	got, _ = f.catalog.Sort(ctx, model.SortPopularity, Page{})
	for i := 1; i < len(got); i++ {
		if got[i-1].Likes < got[i].Likes {
			t.Fatalf("likes out of order: %d before %d", got[i-1].Likes, got[i].Likes)
		}
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.movie(t, "Alien", 1, true)
	f.movie(t, "Hidden", 1, false)

	if m, err := f.catalog.Search(ctx, "Alien"); err != nil || m.Title != "Alien" {
		t.Fatalf("search: %+v %v", m, err)
	}
	_, err := f.catalog.Search(ctx, "Hidden")
	e, ok := errs.As(err)
	if !ok || e.Kind != errs.KindNotFound || e.Field != "message" || e.Message != `No movie with title "Hidden" found` {
		t.Fatalf("unexpected search error %v", err)
	}
}

func TestCreateRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.session(t, "root", model.RoleAdministrator)
	title, desc := "Solaris", strings.Repeat("s", 60)
	posters := []string{"a.png", "b.png"}
	stock, rent, sale := 4, 2.5, 9.99

	created, err := f.catalog.Create(ctx, admin, model.MoviePatch{
		Title: &title, Description: &desc, Posters: &posters, Stock: &stock, RentalPrice: &rent, SalePrice: &sale,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Availability || created.Likes != 0 {
		t.Fatalf("expected defaults, got %+v", created)
	}
	found, err := f.catalog.Search(ctx, "Solaris")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if found.Description != desc || found.Stock != 4 || found.RentalPrice != 2.5 || found.SalePrice != 9.99 || len(found.Posters) != 2 {
		t.Fatalf("round trip mismatch: %+v", found)
	}
	if ev := f.audit.last(); ev.Action != queue.ActionCreate || ev.MovieID != created.ID {
		t.Fatalf("unexpected audit event %+v", ev)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	admin := f.session(t, "root", model.RoleAdministrator)
	title, desc := "Short", "too short"
	_, err := f.catalog.Create(context.Background(), admin, model.MoviePatch{Title: &title, Description: &desc})
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminWritesDeniedForOthers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.movie(t, "Alien", 1, true)
	user := f.session(t, "neo", model.RoleUser)
	stock := 99

	for _, s := range []auth.Session{{}, user} {
		if _, err := f.catalog.Update(ctx, s, m.ID, model.MoviePatch{Stock: &stock}); !errs.Is(err, errs.KindAuthorization) {
			t.Fatalf("update: expected forbidden, got %v", err)
		}
		if err := f.catalog.Delete(ctx, s, m.ID); !errs.Is(err, errs.KindAuthorization) {
			t.Fatalf("delete: expected forbidden, got %v", err)
		}
		if _, err := f.catalog.Create(ctx, s, model.MoviePatch{}); !errs.Is(err, errs.KindAuthorization) {
			t.Fatalf("create: expected forbidden, got %v", err)
		}
	}
	got, _ := f.movies.GetByID(ctx, m.ID)
	if got.Stock != 1 {
		t.Fatalf("catalog must be unchanged, stock=%d", got.Stock)
	}
}

func TestUpdateKeepsZeroAndFalse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.movie(t, "Alien", 3, true)
	_, _ = f.movies.IncrementLikes(ctx, m.ID)
	admin := f.session(t, "root", model.RoleAdministrator)
	zero, no := 0, false

	got, err := f.catalog.Update(ctx, admin, m.ID, model.MoviePatch{Likes: &zero, Availability: &no})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Likes != 0 || got.Availability || got.Stock != 3 || got.Title != "Alien" {
		t.Fatalf("unexpected movie after update %+v", got)
	}
	ev := f.audit.last()
	if ev.Action != queue.ActionUpdate || len(ev.Changes) != 2 || ev.Changes[0].Field != "availability" || ev.Changes[1].Field != "likes" {
		t.Fatalf("unexpected audit changes %+v", ev.Changes)
	}
}

func TestDeleteIsUnconditional(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.movie(t, "Alien", 1, true)
	admin := f.session(t, "root", model.RoleAdministrator)
	if err := f.catalog.Delete(ctx, admin, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.catalog.Delete(ctx, admin, m.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := f.movies.GetByID(ctx, m.ID); err == nil {
		t.Fatal("movie must be gone")
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u, err := f.acct.Register(ctx, auth.Session{}, Registration{Email: "neo@example.com", Password: "pw", UserName: "neo", Role: "administrator"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != model.RoleUser {
		t.Fatal("anonymous registration must not grant administrator")
	}
	_, err = f.acct.Register(ctx, auth.Session{}, Registration{Email: "neo@example.com", Password: "pw", UserName: "other"})
	if e, ok := errs.As(err); !ok || e.Kind != errs.KindValidation || e.Field != "message" {
		t.Fatalf("expected duplicate email validation error, got %v", err)
	}

	if _, err := f.acct.Login(ctx, "neo", "wrong"); errs.KindOf(err) != errs.KindAuthentication {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if _, err := f.acct.Login(ctx, "nobody", "pw"); errs.KindOf(err) != errs.KindAuthentication {
		t.Fatalf("expected authentication error, got %v", err)
	}
	token, err := f.acct.Login(ctx, "neo", "pw")
	if err != nil || token == "" {
		t.Fatalf("login: %q %v", token, err)
	}

	if err := f.acct.Logout(ctx, "", token); !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := f.acct.Logout(ctx, "neo", token); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
	}
	if ok, _ := f.revoked.IsRevoked(ctx, token, "neo"); !ok {
		t.Fatal("token must be revoked")
	}
}

func TestLogoutChecksTokenOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, name := range []string{"alice", "mallory"} {
		if _, err := f.acct.Register(ctx, auth.Session{}, Registration{Email: name + "@example.com", Password: "pw", UserName: name}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	token, err := f.acct.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	err = f.acct.Logout(ctx, "mallory", token)
	if e, ok := errs.As(err); !ok || e.Kind != errs.KindValidation || e.Message != MsgLogoutMismatch {
		t.Fatalf("expected owner mismatch, got %v", err)
	}
	if err := f.acct.Logout(ctx, "alice", "not-a-jwt"); !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected validation error for a malformed token, got %v", err)
	}
	if ok, _ := f.revoked.IsRevoked(ctx, token, "mallory"); ok {
		t.Fatal("rejected logout must not be recorded")
	}

	if err := f.acct.Logout(ctx, "alice", token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ok, _ := f.revoked.IsRevoked(ctx, token, "alice"); !ok {
		t.Fatal("owner logout must revoke the token")
	}
}

func TestPromote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, "neo", model.RoleUser)
	if err := f.acct.Promote(ctx, "neo"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	u, _ := f.users.GetByID(ctx, s.User.ID)
	if !u.IsAdmin() {
		t.Fatal("expected administrator role")
	}
	if err := f.acct.Promote(ctx, "ghost"); !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOverdueFee(t *testing.T) {
	tx := NewTransactions(Deps{}, 3, 5)
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	r := model.RentalRecord{Copies: 3, ReturnDate: due}
	cases := []struct {
		now  time.Time
		want float64
	}{
		{due, 0},
		{due.Add(-time.Hour), 0},
		{due.Add(time.Minute), 15},
		{due.Add(48 * time.Hour), 30},
	}
	for _, tc := range cases {
		if got := tx.OverdueFee(r, tc.now); got != tc.want {
			t.Errorf("OverdueFee at %v = %v, want %v", tc.now, got, tc.want)
		}
	}
}
