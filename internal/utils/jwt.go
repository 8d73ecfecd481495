package utils // package utils provides helper functions for token signing and hashing

import (
	"crypto/sha256" // SHA-256 digests of tokens stored in the denylist
	"encoding/hex"  // hex encoding of digests
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// ErrInvalidToken is returned by ParseToken for any token that fails
// signature, algorithm or claim validation.
var ErrInvalidToken = errors.New("token missing or invalid")

// Claims is the payload carried by a session token. UserName is the
// handle used at login and ID the numeric user id. Tokens issued with a
// zero TTL carry no expiry and remain verifiable until revoked.
type Claims struct {
	UserName string `json:"userName"`
	ID       uint64 `json:"id"`
	jwt.RegisteredClaims
}

// NewSessionToken builds and signs an HS256 JWT for a user. When ttl is
// positive the token carries an exp claim; otherwise it never expires and
// only the revocation list can invalidate it.
func NewSessionToken(secret string, userID uint64, userName string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserName: userName,
		ID:       userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseToken verifies raw against secret and returns its claims. Only
// HS256 is accepted.
func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == 0 || claims.UserName == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashToken returns the SHA-256 hash of a raw token as a hex string. The
// denylist stores only this digest.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
