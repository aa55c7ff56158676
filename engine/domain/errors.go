package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the service.
var (
	ErrNotFound     = errors.New("trend not found")
	ErrInvalidID    = errors.New("invalid id format")
	ErrMissingField = errors.New("missing required field")
)

// ValidationError wraps a sentinel with the offending field.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Wrapped, e.Field)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
