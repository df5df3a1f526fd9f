// Package apperr holds the error taxonomy shared by services and HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidCredential = fmt.Errorf("%w: invalid credential", ErrValidation)
	ErrUnauthenticated   = errors.New("unable to authenticate")
	ErrNotFound          = errors.New("not found")
	ErrUploadRejected    = errors.New("upload rejected")
	ErrPersistence       = errors.New("persistence failure")
)

// Validation returns an ErrValidation carrying a field-level detail.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// UploadRejected returns an ErrUploadRejected with the specific reason.
func UploadRejected(reason string) error {
	return fmt.Errorf("%w: %s", ErrUploadRejected, reason)
}

// PersistenceError wraps a store failure. It matches ErrPersistence.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Persistence wraps err as a PersistenceError for op. A nil err stays nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// Status maps err to the HTTP status the routing layer answers with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUploadRejected):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text that is safe to show a caller. Internal
// failures never leak their cause.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUploadRejected):
		return err.Error()
	case errors.Is(err, ErrUnauthenticated):
		return ErrUnauthenticated.Error()
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	default:
		return "internal error"
	}
}
