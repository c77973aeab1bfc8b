// Package apperr defines the error taxonomy shared by the mutation
// handlers and the transport layer.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// KindValidation: missing required field or invalid shape. No side effect.
	KindValidation Kind = iota
	// KindAuthorization: actor lacks rights for this mutation. No side
	// effect, no fan-out.
	KindAuthorization
	// KindNotFound: referenced message/group/user absent.
	KindNotFound
	// KindStorage: backing store unavailable or write failed. Surfaced as a
	// generic failure; fan-out never executes after a storage error.
	KindStorage
	// KindRateLimited: admission control rejected the operation.
	KindRateLimited
)

// Error carries a kind, a client-facing message and an optional cause.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration // set for KindRateLimited
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Validation builds a validation rejection.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Authorization builds an authorization rejection.
func Authorization(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found rejection.
func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// Storage wraps a backing-store failure.
func Storage(cause error) *Error {
	return &Error{Kind: KindStorage, Message: "storage failure", cause: cause}
}

// RateLimited builds a throttling rejection carrying the remaining wait.
func RateLimited(retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimited, Message: "rate limit exceeded", RetryAfter: retryAfter}
}

// KindOf extracts the kind of an error; unknown errors map to KindStorage
// so they surface as a generic server failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// Is reports whether err is an apperr.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
