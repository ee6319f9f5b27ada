package domain

import (
	"strings"

	"github.com/google/uuid"
)

// User is the local read model of an identity known to the external
// identity provider. It is only used to resolve assignment targets and
// display names.
type User struct {
	ID       uuid.UUID `json:"id"`
	UserName string    `json:"user_name"`
	Email    string    `json:"email,omitempty"`
	Roles    []Role    `json:"roles"`
}

// Validate checks that the user can be stored.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(u.UserName) == "" {
		return NewValidationError("user_name", "cannot be empty", ErrValidation)
	}
	return nil
}
