package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-rental/internal/utils"
)

// TokenRepo is the append-only logout denylist. Only the SHA-256 digest of
// a token is stored; rows are never deleted.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Revoke adds token to the denylist. Revoking an already revoked token is
// a no-op.
func (r *TokenRepo) Revoke(ctx context.Context, token, userName string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO revoked_tokens (token_hash, user_name) VALUES (?,?)",
		utils.HashToken(token), userName)
	return err
}

// IsRevoked reports whether token was revoked for userName.
func (r *TokenRepo) IsRevoked(ctx context.Context, token, userName string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM revoked_tokens WHERE token_hash=? AND user_name=? LIMIT 1",
		utils.HashToken(token), userName).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
