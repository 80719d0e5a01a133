// Package apperror defines the domain error taxonomy shared by every layer.
//
// Services return these errors; the HTTP layer maps them to status codes in
// one place (handler.writeError). The sentinel errors below are the "kinds";
// callers check them with errors.Is, which walks the chain because
// AppError implements Unwrap.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

// AppError is the concrete error type carried through the service layer.
//
// Message is safe to show to the client. Field scopes single-field errors
// (duplicates, one-off validation checks); Details carries the per-field
// messages of a full request-body validation failure.
type AppError struct {
	Err     error             // sentinel kind (ErrNotFound, ErrValidation, ...)
	Message string            // human-readable error message
	Field   string            // optional: field causing the error
	Details map[string]string // optional: field → message, for validation failures
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that an entity is absent or not owned by the caller.
// The message deliberately does not distinguish the two cases: a caller
// must not learn whether the entity exists under another owner.
func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// ValidationFailed reports a single-field validation error.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// ValidationDetails reports a request-body validation failure with one
// message per offending field. Produced by the validate package.
func ValidationDetails(details map[string]string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: "validation failed",
		Details: details,
	}
}

// Duplicate reports a unique-constraint violation translated from the store,
// scoped to the field the constraint covers.
func Duplicate(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists", resource),
		Field:   field,
	}
}

// InvalidCredentials reports a failed login or password change.
// The wording is intentionally generic: "user not found" and "wrong
// password" produce the same error to prevent username enumeration.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "incorrect username or password",
	}
}

// Unauthorized reports a missing, invalid, or expired token.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
