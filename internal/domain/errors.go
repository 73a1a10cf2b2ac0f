package domain

import (
	"errors"
	"fmt"
)

// Common domain errors for analysis operations.
var (
	// ErrUnknownEvidence indicates a citation referenced an evidence id
	// that was never registered with the tracker.
	ErrUnknownEvidence = errors.New("unknown evidence id")

	// ErrInvalidConfiguration indicates configuration is invalid or
	// incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMalformedResponse indicates a response record is missing its
	// required fields and cannot contribute evidence.
	ErrMalformedResponse = errors.New("malformed evaluation response")
)

// ValidationError aggregates one or more validation failures for a single
// entity.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
