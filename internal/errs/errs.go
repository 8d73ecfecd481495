// Package errs defines the error taxonomy shared by the stores, the
// authorization layer and the transaction engine. Every error that is
// allowed to reach the HTTP layer is an *Error carrying a Kind; the
// centralized translator in package handler maps kinds to status codes.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for status code selection.
type Kind uint8

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindValidation
	KindCast
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindCast:
		return "cast"
	default:
		return "internal"
	}
}

// Reason is the machine-checkable cause of an access denial. Tests and
// clients rely on the distinction between a caller that never
// authenticated, one whose role is insufficient and one whose token was
// revoked by logout.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonAuthRequired   Reason = "auth_required"
	ReasonForbidden      Reason = "forbidden"
	ReasonLogoutRequired Reason = "logout_required"
)

// Error is the concrete error type produced throughout the service.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	// Field selects the JSON key of the response body ("error" or "message").
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Messages used by the access policy. They are part of the API contract.
const (
	MsgAuthRequired   = "token missing or invalid"
	MsgLogoutRequired = "token has been revoked, please log in again"
	MsgForbidden      = "forbidden"
)

func Authentication(msg string) *Error {
	return &Error{Kind: KindAuthentication, Reason: ReasonAuthRequired, Message: msg, Field: "error"}
}

// AuthRequired is returned when an operation needs a valid session and
// none (or an unverifiable one) was presented.
func AuthRequired() *Error { return Authentication(MsgAuthRequired) }

// LogoutRequired is returned when a verifiable token is on the revocation list.
func LogoutRequired() *Error {
	return &Error{Kind: KindAuthentication, Reason: ReasonLogoutRequired, Message: MsgLogoutRequired, Field: "error"}
}

func Forbidden() *Error {
	return &Error{Kind: KindAuthorization, Reason: ReasonForbidden, Message: MsgForbidden, Field: "error"}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Field: "error"}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Field: "error"}
}

func Cast(msg string) *Error {
	return &Error{Kind: KindCast, Message: msg, Field: "error"}
}

// Internal wraps an unexpected failure. The message is never sent to clients.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: op, Field: "error", Err: err}
}

// WithField returns a copy of e that is rendered under the given JSON key.
func (e *Error) WithField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the Kind of err, KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// ReasonOf reports the denial Reason of err, if any.
func ReasonOf(err error) Reason {
	if e, ok := As(err); ok {
		return e.Reason
	}
	return ReasonNone
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
