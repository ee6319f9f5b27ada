package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// ServiceError wraps an unexpected failure with the operation it happened in.
// The API layer reports it as an internal error.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// mapStoreError translates store errors into domain errors. Errors that
// already carry a domain class pass through unchanged; anything else becomes
// a ServiceError for op.
func mapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return domain.ErrTaskNotFound
	case errors.Is(err, store.ErrSubtaskNotFound):
		return domain.ErrSubtaskNotFound
	case errors.Is(err, store.ErrTagNotFound):
		return domain.ErrTagNotFound
	case errors.Is(err, store.ErrUserNotFound):
		return domain.ErrUserNotFound
	case errors.Is(err, store.ErrVersionConflict):
		return domain.ErrConcurrentUpdate
	case errors.Is(err, store.ErrTagNameExists):
		return domain.ErrTagNameTaken
	case errors.Is(err, store.ErrReferenced):
		return domain.ErrTagInUse
	case errors.Is(err, store.ErrInvalidEntity):
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if isDomainError(err) {
		return err
	}
	return NewServiceError(op, "unexpected store failure", err)
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrUnauthenticated)
}
