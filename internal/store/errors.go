package store

import (
	"errors"
	"fmt"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
)

// Classify turns a store error into the service taxonomy. Errors that are
// already classified pass through unchanged.
func Classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrUnauthenticated),
		errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrUploadRejected),
		errors.Is(err, apperr.ErrPersistence):
		return err
	case errors.Is(err, ErrDuplicateEmail):
		return apperr.Validation("email is already registered")
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	default:
		return apperr.Persistence(op, err)
	}
}
