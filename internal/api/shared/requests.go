package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tasktrack-api/internal/domain"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeJSON decodes the request body into v. Unknown fields are rejected
// and decode failures come back as *domain.ValidationError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var ve *domain.ValidationError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &ve):
			return ve
		case errors.As(err, &typeErr):
			return domain.NewValidationError(typeErr.Field, "has the wrong type", domain.ErrValidation)
		case errors.Is(err, io.EOF):
			return domain.NewValidationError("body", "is required", domain.ErrValidation)
		default:
			return domain.NewValidationError("body", fmt.Sprintf("is not valid JSON: %v", err), domain.ErrValidation)
		}
	}
	return nil
}

// ValidateRequest runs the struct's own Validate method when it has one,
// else its validate tags.
func ValidateRequest(v interface{}) error {
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}
	return validate.Struct(v)
}
