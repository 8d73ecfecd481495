package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/auth"
	"github.com/iliyamo/movie-rental/internal/middleware"
	"github.com/iliyamo/movie-rental/internal/service"
)

// UserHandler bundles the account endpoints.
type UserHandler struct {
	Accounts *service.Accounts
}

func NewUserHandler(a *service.Accounts) *UserHandler {
	return &UserHandler{Accounts: a}
}

// Register handles POST /api/users. A malformed bearer token does not
// block registration; the caller is treated as anonymous.
func (h *UserHandler) Register(c echo.Context) error {
	fields, err := bodyFields(c)
	if err != nil {
		return err
	}
	var in service.Registration
	in.Email, _ = stringField(fields, "email")
	in.Password, _ = stringField(fields, "password")
	in.UserName, _ = stringField(fields, "userName")
	in.Role, _ = stringField(fields, "role")

	s, err := middleware.CurrentSession(c)
	if err != nil {
		s = auth.Session{Status: auth.Anonymous}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Accounts.Register(ctx, s, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u.Public())
}

// Login handles POST /api/login {userName, password}.
func (h *UserHandler) Login(c echo.Context) error {
	fields, err := bodyFields(c)
	if err != nil {
		return err
	}
	userName, _ := stringField(fields, "userName")
	password, _ := stringField(fields, "password")

	ctx, cancel := reqCtx(c)
	defer cancel()
	token, err := h.Accounts.Login(ctx, userName, password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token, "userName": userName})
}

// Logout handles POST /api/logout {userName, token}.
func (h *UserHandler) Logout(c echo.Context) error {
	fields, err := bodyFields(c)
	if err != nil {
		return err
	}
	userName, _ := stringField(fields, "userName")
	token, _ := stringField(fields, "token")

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Accounts.Logout(ctx, userName, token); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(c echo.Context) error {
	s, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Accounts.Me(ctx, s)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u.Public())
}
