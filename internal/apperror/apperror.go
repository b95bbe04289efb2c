package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the recoverable outcome kinds the core can produce.
// Handlers map these to HTTP status codes; services wrap them with
// human-readable context via the constructors below.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel identifying the error kind
	Message string // Human-readable error message
	Field   string // Optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict returns an AppError for a state-machine precondition failure:
// a duplicate bid, a gig that already left "open", or losing a hire race.
// The message must carry enough context for the caller to render an
// unambiguous explanation ("you have already bid on this gig", not just
// "conflict").
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks ownership of
// the target resource. HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for failed authentication — a bad login,
// not a missing permission. Deliberately vague messages only: "invalid
// credentials" must not reveal whether the email or the password was wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
