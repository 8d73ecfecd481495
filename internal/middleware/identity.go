package middleware

// identity.go resolves the bearer credential of a request into an
// auth.Session. Resolution is lazy: routes that never look at the session
// (sort, search, login) are not affected by a malformed token and cost no
// store lookups.

import (
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/auth"
	"github.com/iliyamo/movie-rental/internal/utils"
)

const sessionKey = "session"

type lazySession struct {
	once    sync.Once
	resolve func() (auth.Session, error)
	s       auth.Session
	err     error
}

// Session stores a lazily resolved session in the echo context.
func Session(r *auth.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.Set(sessionKey, &lazySession{resolve: func() (auth.Session, error) {
				return r.Resolve(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			}})
			return next(c)
		}
	}
}

// CurrentSession resolves the session of c. Without the Session
// middleware every request is anonymous.
func CurrentSession(c echo.Context) (auth.Session, error) {
	ls, ok := c.Get(sessionKey).(*lazySession)
	if !ok {
		return auth.Session{Status: auth.Anonymous}, nil
	}
	ls.once.Do(func() { ls.s, ls.err = ls.resolve() })
	return ls.s, ls.err
}

// userID identifies the caller for rate limiting without touching the
// stores: a short digest of the bearer token, or "guest".
func userID(c echo.Context) string {
	tok := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if tok == "" {
		return "guest"
	}
	return utils.HashToken(tok)[:16]
}
