// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Storage engine not bound, not initialized, or gone away.
	ErrUnavailable = errors.New("storage unavailable")

	// Key/payload errors (corrupt blob or wrong key).
	ErrDecryptionFailed = errors.New("decryption failed")

	// Alias namespace collision budget exceeded.
	ErrAllocationExhausted = errors.New("alias allocation exhausted")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)

// ValidationError carries field-level detail for malformed input. It unwraps
// to ErrorValidation so callers can still branch with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrorValidation
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
