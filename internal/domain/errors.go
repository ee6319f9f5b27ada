// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the service layer wraps exactly one
// of these, which is what the API uses to pick a status code.
var (
	// ErrValidation is returned when input or an entity fails validation.
	// This is usually carried inside a *ValidationError naming the field.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a record is missing, soft-deleted, or
	// not visible to the caller. Authorization denials use it too so that
	// they cannot be told apart from a missing record.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an operation collides with current state.
	ErrConflict = errors.New("conflict")

	// ErrUnauthenticated is returned when no verified actor is present.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Not-found variants.
var (
	ErrTaskNotFound    = fmt.Errorf("%w: task", ErrNotFound)
	ErrSubtaskNotFound = fmt.Errorf("%w: subtask", ErrNotFound)
	ErrTagNotFound     = fmt.Errorf("%w: tag", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("%w: user", ErrNotFound)
	ErrNotPermitted    = fmt.Errorf("%w: not permitted", ErrNotFound)

	// ErrAlreadyDeleted is returned when soft-deleting a deleted record.
	ErrAlreadyDeleted = fmt.Errorf("%w: already deleted", ErrNotFound)

	// ErrNotDeleted is returned when restoring a record that is not deleted.
	ErrNotDeleted = fmt.Errorf("%w: not deleted", ErrNotFound)
)

// Conflict variants.
var (
	ErrTagNameTaken     = fmt.Errorf("%w: tag name already exists", ErrConflict)
	ErrTagInUse         = fmt.Errorf("%w: tag is referenced by tasks", ErrConflict)
	ErrAssigneeNotFound = fmt.Errorf("%w: assignee does not exist", ErrConflict)
	ErrConcurrentUpdate = fmt.Errorf("%w: record was modified concurrently", ErrConflict)
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for field. A nil err
// defaults to ErrValidation.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Err, e.Message)
	}
	return fmt.Sprintf("%s: %s %s", e.Err, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
