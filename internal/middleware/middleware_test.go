package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/auth"
	"github.com/iliyamo/movie-rental/internal/config"
	"github.com/iliyamo/movie-rental/internal/errs"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/repository/memstore"
	"github.com/iliyamo/movie-rental/internal/utils"
)

func TestSessionIsResolvedLazily(t *testing.T) {
	users := memstore.NewUsers()
	u := &model.User{Email: "neo@example.com", UserName: "neo"}
	_ = users.Create(context.Background(), u)
	resolver := auth.NewResolver("s", users, memstore.NewRevocations())
	tok, _ := utils.NewSessionToken("s", u.ID, u.UserName, 0)

	e := echo.New()
	e.Use(Session(resolver))
	e.GET("/ignore", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/whoami", func(c echo.Context) error {
		s, err := CurrentSession(c)
		if err != nil {
			return c.String(http.StatusUnauthorized, string(errs.ReasonOf(err)))
		}
		return c.String(http.StatusOK, s.Status.String())
	})

	cases := []struct {
		path, header string
		status       int
		body         string
	}{
		{"/ignore", "Bearer garbage", http.StatusOK, ""},
		{"/whoami", "", http.StatusOK, "anonymous"},
		{"/whoami", "Bearer " + tok, http.StatusOK, "authenticated"},
		{"/whoami", "Bearer garbage", http.StatusUnauthorized, string(errs.ReasonAuthRequired)},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.header != "" {
			req.Header.Set(echo.HeaderAuthorization, tc.header)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tc.status || rec.Body.String() != tc.body {
			t.Errorf("%s %q: got %d %q, want %d %q", tc.path, tc.header, rec.Code, rec.Body.String(), tc.status, tc.body)
		}
	}
}

func TestLocalRateLimiterBlocksAfterBurst(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, nil, nil))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, nil))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, rec.Code)
		}
	}
}

func TestCacheKeyDependsOnQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	e := echo.New()
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/api/movies")
		return cacheKeyFrom(cfg, c)
	}
	if key("/api/movies?skip=1") == key("/api/movies?skip=2") {
		t.Fatal("different queries must not share a cache key")
	}
	if key("/api/movies?skip=1") != key("/api/movies?skip=1") {
		t.Fatal("cache key must be stable")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[]`))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != "[]" {
		t.Fatalf("decode mismatch: %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload([]byte{0, 1}); ok {
		t.Fatal("short payload must be rejected")
	}
}
