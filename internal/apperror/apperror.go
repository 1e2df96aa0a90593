// Package apperror defines the application's error taxonomy.
//
// Policy and service code return these typed errors; only the HTTP layer
// translates them into status codes. Four sentinel categories cover every
// failure the domain can produce:
//
//	ErrNotFound   — entity absent, or not visible to the caller. The two are
//	                deliberately indistinguishable so a denied viewer cannot
//	                probe for the existence of private groups or events.
//	ErrForbidden  — entity visible, but the operation is not permitted.
//	ErrConflict   — an invariant would be violated: duplicate email, double
//	                vote, sold-out ticket type, last-admin removal, ...
//	ErrValidation — malformed input: inverted dates, missing exclusivity
//	                field, one-option question, ...
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

// AppError pairs a sentinel category with a human-readable message and,
// for validation failures, the offending field.
type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel so errors.Is works through any number of
// fmt.Errorf("%w") wrappings above this error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports an absent-or-invisible entity. The message never says
// which of the two it was.
func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Forbidden reports a permitted-to-see, not-permitted-to-do failure.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Conflict reports an invariant or uniqueness violation.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// ValidationFailed reports malformed input on a specific field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}
