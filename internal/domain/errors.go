package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the orchestrator.
var (
	// ErrBatchNotFound is returned on status lookup of an unknown batch id.
	ErrBatchNotFound = errors.New("batch not found")
	// ErrRootNotFound is returned when the enumeration root does not exist
	// in the content repository.
	ErrRootNotFound = errors.New("root target not found")
)

// ValidationError rejects a request before any batch record is created.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a request field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// EnumerationError wraps a failure to expand the root target into
// candidates. Enumeration never partially succeeds.
type EnumerationError struct {
	RootTargetID string
	Err          error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate targets under %s: %v", e.RootTargetID, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}
