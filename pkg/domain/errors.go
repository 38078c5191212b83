package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned by login when the username or
	// credential does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMalformedState marks persisted data that could not be decoded.
	ErrMalformedState = errors.New("malformed persisted state")
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrQuotaExceeded is returned by key-value stores that ran out of space.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// ValidationError describes a rejected user input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
