package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
)

// MapErrorToStatusCode maps service and domain errors to HTTP status
// codes. Denied access is indistinguishable from a missing record.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrValidation), errors.As(err, &verrs):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message that never carries
// internal detail.
func GetSafeErrorMessage(err error) string {
	var ve *domain.ValidationError
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return "An unexpected error occurred"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.As(err, &ve):
		return validationMessage(ve)
	case errors.As(err, &verrs):
		return SanitizeValidationError(verrs)
	case errors.Is(err, domain.ErrValidation):
		return "Validation error"

	case errors.Is(err, domain.ErrNotPermitted):
		return "Not found"
	case errors.Is(err, domain.ErrSubtaskNotFound):
		return "Subtask not found"
	case errors.Is(err, domain.ErrTagNotFound):
		return "Tag not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, domain.ErrNotFound):
		// Covers denied access and lifecycle misses on tasks as well.
		return "Task not found"

	case errors.Is(err, domain.ErrTagNameTaken):
		return "A tag with this name already exists"
	case errors.Is(err, domain.ErrTagInUse):
		return "Tag is in use by one or more tasks"
	case errors.Is(err, domain.ErrAssigneeNotFound):
		return "Assignee does not exist"
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return "The record was modified by another request"
	case errors.Is(err, domain.ErrConflict):
		return "Conflict"

	default:
		return "An unexpected error occurred"
	}
}

func validationMessage(ve *domain.ValidationError) string {
	if ve.Field == "" {
		return ve.Message
	}
	return ve.Field + " " + ve.Message
}

// ErrorField returns the request field an error is about, if any.
func ErrorField(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}

// SanitizeValidationError turns validator errors into a short message
// naming the first offending field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status, safe message and field detail for err.
// A non-empty message overrides the derived one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	var opts []shared.ResponseOption
	if field := ErrorField(err); field != "" && status == http.StatusBadRequest {
		opts = append(opts, shared.WithField(field))
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
