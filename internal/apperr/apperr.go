// Package apperr defines the flat error-kind taxonomy shared across every
// subsystem (scheduler, attention router, commitment engine). There is no
// type hierarchy: callers compare Kind values, not Go types.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for caller-visible handling and retry policy.
type Kind string

const (
	KindValidation     Kind = "validation_error"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindImmutableField Kind = "immutable_field"
	KindProviderError  Kind = "provider_error"
	KindRouterViolation Kind = "router_violation"
	KindFailClosed     Kind = "fail_closed"
	KindTimeout        Kind = "timeout"
	KindCanceled       Kind = "canceled"
	KindInternal       Kind = "internal_error"
)

// Error is the single error type used across the core. It never wraps
// another *Error in a hierarchy; Unwrap exposes only the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error that carries an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to KindInternal when err is
// not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
