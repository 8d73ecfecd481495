package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/movie-rental/internal/auth"
	"github.com/iliyamo/movie-rental/internal/errs"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/repository"
	"github.com/iliyamo/movie-rental/internal/utils"
)

// AccountOptions configures token issuing and registration.
type AccountOptions struct {
	JWTSecret        string
	TokenTTL         time.Duration
	BcryptCost       int
	AllowAdminSignup bool
}

// Accounts handles registration, login, logout and role changes.
type Accounts struct {
	d    Deps
	opts AccountOptions
}

func NewAccounts(d Deps, opts AccountOptions) *Accounts {
	return &Accounts{d: d.withDefaults("accounts"), opts: opts}
}

// Registration is the payload of POST /users.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserName string `json:"userName"`
	Role     string `json:"role"`
}

// MsgBadCredentials is returned for unknown users and wrong passwords alike.
const MsgBadCredentials = "username or password is incorrect"

// MsgLogoutMissing is returned when logout lacks a token or a username.
const MsgLogoutMissing = "no token or username specified"

// MsgLogoutMismatch is returned when the token was not issued to userName.
const MsgLogoutMismatch = "token does not belong to this user"

func emailTaken(email string) error {
	return errs.Validation(fmt.Sprintf("User with email %s already exists", email)).WithField("message")
}

// Register creates an account. The requested role is honored only when
// auth.SignupRole allows it.
func (a *Accounts) Register(ctx context.Context, s auth.Session, in Registration) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.UserName = strings.TrimSpace(in.UserName)
	var missing []string
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.UserName == "" {
		missing = append(missing, "userName")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, errs.Validation("missing required fields: " + strings.Join(missing, ", "))
	}

	exists, err := a.d.Users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, classify("register: email lookup", err)
	}
	if exists {
		return nil, emailTaken(in.Email)
	}

	hash, err := utils.HashPassword(in.Password, a.opts.BcryptCost)
	if err != nil {
		return nil, errs.Internal("register: hash password", err)
	}
	u := &model.User{
		Email:        in.Email,
		UserName:     in.UserName,
		PasswordHash: hash,
		Role:         auth.SignupRole(in.Role, s, a.opts.AllowAdminSignup),
		CreatedAt:    a.d.Clock().UTC(),
	}
	switch err := a.d.Users.Create(ctx, u); {
	case errors.Is(err, repository.ErrEmailExists):
		return nil, emailTaken(in.Email)
	case errors.Is(err, repository.ErrUserNameExists):
		return nil, errs.Validation(fmt.Sprintf("User with userName %s already exists", in.UserName)).WithField("message")
	case err != nil:
		return nil, classify("register: create user", err)
	}
	a.d.Logger.Info("user registered", "operation", "register", "outcome", "ok", "user_id", u.ID, "role", u.Role.String())
	return u, nil
}

// Login verifies the credentials and issues a session token.
func (a *Accounts) Login(ctx context.Context, userName, password string) (string, error) {
	u, err := a.d.Users.GetByUserName(ctx, userName)
	if isNotFound(err) {
		return "", errs.Authentication(MsgBadCredentials)
	}
	if err != nil {
		return "", classify("login: load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		a.d.Logger.Info("login rejected", "operation", "login", "outcome", "bad_credentials")
		return "", errs.Authentication(MsgBadCredentials)
	}
	token, err := utils.NewSessionToken(a.opts.JWTSecret, u.ID, u.UserName, a.opts.TokenTTL)
	if err != nil {
		return "", errs.Internal("login: sign token", err)
	}
	return token, nil
}

// Logout adds token to the revocation list. Only the user named in the
// token's claims can revoke it. Revoking twice is not an error.
func (a *Accounts) Logout(ctx context.Context, userName, token string) error {
	if userName == "" || token == "" {
		return errs.Validation(MsgLogoutMissing)
	}
	claims, err := utils.ParseToken(a.opts.JWTSecret, token)
	if err != nil {
		return errs.Validation(errs.MsgAuthRequired)
	}
	if claims.UserName != userName {
		a.d.Logger.Warn("logout rejected", "operation", "logout", "outcome", "user_mismatch")
		return errs.Validation(MsgLogoutMismatch)
	}
	if err := a.d.Revocations.Revoke(ctx, token, userName); err != nil {
		return classify("logout: revoke", err)
	}
	return nil
}

// Me returns the current state of the session user.
func (a *Accounts) Me(ctx context.Context, s auth.Session) (*model.User, error) {
	if err := auth.Authorize(auth.OpProfile, s); err != nil {
		return nil, err
	}
	u, err := a.d.Users.GetByID(ctx, s.User.ID)
	if err != nil {
		return nil, classify("me: load user", err)
	}
	return u, nil
}

// Promote grants the administrator role to userName.
func (a *Accounts) Promote(ctx context.Context, userName string) error {
	err := a.d.Users.SetRole(ctx, userName, model.RoleAdministrator)
	if isNotFound(err) {
		return errs.NotFound("No user with userName " + userName)
	}
	if err != nil {
		return classify("promote user", err)
	}
	a.d.Logger.Info("user promoted", "operation", "promote", "outcome", "ok", "user_name", userName)
	return nil
}
