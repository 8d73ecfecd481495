// Package repository defines the MySQL-backed stores and the error values
// they share. Schema violations (duplicate titles, short descriptions,
// negative stock) are reported as validation errors from package errs so
// that the HTTP layer can translate them uniformly; missing rows and
// exhausted stock are reported through the sentinels below and classified
// by the service layer.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrMovieNotFound is returned when no movie matches the lookup.
var ErrMovieNotFound = errors.New("movie not found")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrInsufficientStock is returned by DecrementStock when fewer copies
// remain than were requested. Stock is left unchanged.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrRentalNotFound is returned when the rental to close no longer exists.
var ErrRentalNotFound = errors.New("rental not found")

// ErrEmailExists and ErrUserNameExists signal unique-key violations on
// registration.
var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUserNameExists = errors.New("username already exists")
)

// mysqlDuplicateEntry is the server error number for unique-key violations.
const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a unique-key violation and, if so,
// the lower-cased server message naming the offending key.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return strings.ToLower(me.Message), true
	}
	return "", false
}
