// Package apperror defines the typed errors shared by every layer.
//
// Services return these, repositories translate driver errors into them, and
// the HTTP layer (handler.writeError) is the only place that turns them into
// status codes. Callers test the kind with errors.Is against the sentinels.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrVerification = errors.New("verification failed")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
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

// InvalidCredentials is the single sign-in failure.
//
// It is returned both for an unknown email and for a wrong password, with the
// same message, so the response cannot reveal which emails exist.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: "no user found with that email and password",
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation on field.
// HTTP handlers map this to 400 Bad Request.
func Conflict(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s with this %s already exists", resource, field),
		Field:   field,
	}
}

// Unauthorized means no valid credential was presented.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// VerificationFault means the credential could not be checked at all, for
// example because the store was unreachable. cause is kept in the chain so it
// can be logged, but only Message is ever shown to the client.
func VerificationFault(message string, cause error) *AppError {
	return &AppError{
		Err:     errors.Join(ErrVerification, cause),
		Message: message,
	}
}
