// Package apperr defines the named failure outcomes surfaced to callers.
//
// Every expected failure is an *Error whose Kind is one of the sentinels
// below, so callers branch with errors.Is. Anything that is not an *Error is
// an internal failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrRateLimited            = errors.New("rate limited")
	ErrModerationBlocked      = errors.New("moderation blocked")
)

// Error is a named outcome with a caller-facing message. Public marks a
// Forbidden message that may be shown as is.
type Error struct {
	Kind   error
	Msg    string
	Public bool
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error { return newf(ErrValidation, format, args...) }
func NotFound(format string, args ...any) error   { return newf(ErrNotFound, format, args...) }
func Conflict(format string, args ...any) error   { return newf(ErrConflict, format, args...) }
func Capacity(format string, args ...any) error   { return newf(ErrCapacityExceeded, format, args...) }
func RateLimited(format string, args ...any) error {
	return newf(ErrRateLimited, format, args...)
}
func Blocked(reason string) error { return &Error{Kind: ErrModerationBlocked, Msg: reason} }

// Forbidden carries a message for logs only; HTTP responses stay generic.
func Forbidden(format string, args ...any) error { return newf(ErrForbidden, format, args...) }

// VerificationRequired is a Forbidden outcome about the caller's own account
// state, so its message is safe to show.
func VerificationRequired(format string, args ...any) error {
	return &Error{Kind: ErrForbidden, Msg: fmt.Sprintf(format, args...), Public: true}
}

// Unauthenticated is returned when a mutation has no identity.
func Unauthenticated() error {
	return &Error{Kind: ErrAuthenticationRequired, Msg: "authentication required"}
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrModerationBlocked):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show to the caller. Authentication
// and authorization failures never reveal which check failed.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "an unexpected error occurred"
	}
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return "authentication required"
	case errors.Is(err, ErrForbidden) && !e.Public:
		return "forbidden"
	}
	return e.Msg
}
