// Package auth resolves bearer credentials into sessions and decides which
// operations a session may perform.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/movie-rental/internal/errs"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/repository"
	"github.com/iliyamo/movie-rental/internal/utils"
)

// Status is the authentication state of a request.
type Status uint8

const (
	Anonymous Status = iota
	Authenticated
	Revoked
)

func (s Status) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Revoked:
		return "revoked"
	default:
		return "anonymous"
	}
}

// Session is the outcome of resolving an Authorization header. User and
// Token are set for Authenticated and Revoked sessions.
type Session struct {
	Status Status
	User   *model.User
	Token  string
}

// Active reports whether the session is authenticated and not revoked.
func (s Session) Active() bool { return s.Status == Authenticated && s.User != nil }

// IsAdmin reports whether the session belongs to an administrator,
// regardless of revocation.
func (s Session) IsAdmin() bool { return s.Status != Anonymous && s.User.IsAdmin() }

// UserLookup loads the account named by a token.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// RevocationList is the logout denylist. Implementations may be
// append-only or expiring.
type RevocationList interface {
	Revoke(ctx context.Context, token, userName string) error
	IsRevoked(ctx context.Context, token, userName string) (bool, error)
}

// Resolver turns a raw Authorization header into a Session.
type Resolver struct {
	secret  string
	users   UserLookup
	revoked RevocationList
}

func NewResolver(secret string, users UserLookup, revoked RevocationList) *Resolver {
	return &Resolver{secret: secret, users: users, revoked: revoked}
}

// BearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively; any other header yields "".
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// Resolve verifies the bearer token in header, if any. A token that fails
// verification is an authentication error; a verified token whose user no
// longer exists resolves to an anonymous session.
func (r *Resolver) Resolve(ctx context.Context, header string) (Session, error) {
	token := BearerToken(header)
	if token == "" {
		return Session{Status: Anonymous}, nil
	}
	claims, err := utils.ParseToken(r.secret, token)
	if err != nil {
		return Session{}, errs.AuthRequired()
	}
	user, err := r.users.GetByID(ctx, claims.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return Session{Status: Anonymous}, nil
	}
	if err != nil {
		return Session{}, errs.Internal("load session user", err)
	}
	revoked, err := r.revoked.IsRevoked(ctx, token, claims.UserName)
	if err != nil {
		return Session{}, errs.Internal("check revocation", err)
	}
	if revoked {
		return Session{Status: Revoked, User: user, Token: token}, nil
	}
	return Session{Status: Authenticated, User: user, Token: token}, nil
}
