package auth

import (
	"context"
	"testing"

	"github.com/iliyamo/movie-rental/internal/errs"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/repository/memstore"
	"github.com/iliyamo/movie-rental/internal/utils"
)

const secret = "test-secret"

func setup(t *testing.T) (*Resolver, *memstore.Users, *memstore.Revocations) {
	t.Helper()
	users := memstore.NewUsers()
	revoked := memstore.NewRevocations()
	return NewResolver(secret, users, revoked), users, revoked
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer abc":   "abc",
		"BEARER  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for in, want := range cases {
		if got := BearerToken(in); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveStates(t *testing.T) {
	ctx := context.Background()
	r, users, revoked := setup(t)
	u := &model.User{Email: "neo@matrix.io", UserName: "neo"}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	tok, _ := utils.NewSessionToken(secret, u.ID, u.UserName, 0)

	s, err := r.Resolve(ctx, "")
	if err != nil || s.Status != Anonymous {
		t.Fatalf("expected anonymous, got %v %v", s.Status, err)
	}

	s, err = r.Resolve(ctx, "Bearer "+tok)
	if err != nil || s.Status != Authenticated || s.User.ID != u.ID {
		t.Fatalf("expected authenticated, got %+v %v", s, err)
	}

	_, err = r.Resolve(ctx, "Bearer not-a-jwt")
	if errs.ReasonOf(err) != errs.ReasonAuthRequired {
		t.Fatalf("expected auth required, got %v", err)
	}

	_ = revoked.Revoke(ctx, tok, u.UserName)
	s, err = r.Resolve(ctx, "Bearer "+tok)
	if err != nil || s.Status != Revoked {
		t.Fatalf("expected revoked, got %v %v", s.Status, err)
	}
}

func TestResolveUnknownUserIsAnonymous(t *testing.T) {
	r, _, _ := setup(t)
	tok, _ := utils.NewSessionToken(secret, 99, "ghost", 0)
	s, err := r.Resolve(context.Background(), "Bearer "+tok)
	if err != nil || s.Status != Anonymous {
		t.Fatalf("expected anonymous, got %v %v", s.Status, err)
	}
}

func TestAuthorize(t *testing.T) {
	user := &model.User{ID: 1, UserName: "neo"}
	admin := &model.User{ID: 2, UserName: "root", Role: model.RoleAdministrator}

	anon := Session{Status: Anonymous}
	active := Session{Status: Authenticated, User: user}
	revoked := Session{Status: Revoked, User: user}
	activeAdmin := Session{Status: Authenticated, User: admin}
	revokedAdmin := Session{Status: Revoked, User: admin}

	cases := []struct {
		name string
		op   Operation
		s    Session
		want errs.Reason
	}{
		{"list anonymous", OpListCatalog, anon, errs.ReasonNone},
		{"list revoked user", OpListCatalog, revoked, errs.ReasonNone},
		{"list revoked admin", OpListCatalog, revokedAdmin, errs.ReasonLogoutRequired},
		{"sort revoked admin", OpSortCatalog, revokedAdmin, errs.ReasonNone},
		{"like anonymous", OpLike, anon, errs.ReasonAuthRequired},
		{"like revoked", OpLike, revoked, errs.ReasonLogoutRequired},
		{"like active", OpLike, active, errs.ReasonNone},
		{"create anonymous", OpCreateMovie, anon, errs.ReasonForbidden},
		{"create user", OpCreateMovie, active, errs.ReasonForbidden},
		{"create revoked user", OpCreateMovie, revoked, errs.ReasonForbidden},
		{"update revoked admin", OpUpdateMovie, revokedAdmin, errs.ReasonLogoutRequired},
		{"delete admin", OpDeleteMovie, activeAdmin, errs.ReasonNone},
		{"buy anonymous", OpBuy, anon, errs.ReasonAuthRequired},
		{"rent revoked", OpRent, revoked, errs.ReasonLogoutRequired},
		{"return admin", OpReturn, activeAdmin, errs.ReasonNone},
		{"profile anonymous", OpProfile, anon, errs.ReasonAuthRequired},
	}
	for _, tc := range cases {
		err := Authorize(tc.op, tc.s)
		if got := errs.ReasonOf(err); got != tc.want {
			t.Errorf("%s: reason %q, want %q (err=%v)", tc.name, got, tc.want, err)
		}
		if tc.want == errs.ReasonForbidden && errs.KindOf(err) != errs.KindAuthorization {
			t.Errorf("%s: expected authorization kind, got %v", tc.name, errs.KindOf(err))
		}
	}
}

func TestCatalogAvailability(t *testing.T) {
	admin := &model.User{ID: 2, Role: model.RoleAdministrator}
	user := &model.User{ID: 1}

	if f := CatalogAvailability(Session{Status: Authenticated, User: admin}, model.ViewUnavailable); f == nil || *f {
		t.Fatal("admin unavailable view must filter availability=false")
	}
	if f := CatalogAvailability(Session{Status: Authenticated, User: admin}, model.ViewAll); f != nil {
		t.Fatal("admin default view must not filter")
	}
	if f := CatalogAvailability(Session{Status: Authenticated, User: user}, model.ViewUnavailable); f == nil || !*f {
		t.Fatal("non-admin must only see available movies")
	}
	if f := CatalogAvailability(Session{Status: Anonymous}, model.ViewAll); f == nil || !*f {
		t.Fatal("anonymous must only see available movies")
	}
}

func TestSignupRole(t *testing.T) {
	admin := Session{Status: Authenticated, User: &model.User{Role: model.RoleAdministrator}}
	if SignupRole("administrator", Session{}, false) != model.RoleUser {
		t.Fatal("anonymous caller must not self-elevate")
	}
	if SignupRole("administrator", Session{}, true) != model.RoleAdministrator {
		t.Fatal("open admin signup must grant the role")
	}
	if SignupRole("admin", admin, false) != model.RoleAdministrator {
		t.Fatal("admin session must be able to create admins")
	}
	if SignupRole("", admin, false) != model.RoleUser {
		t.Fatal("default role must be user")
	}
}
