package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Role is a named capability carried by an authenticated caller.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Actor is the verified identity a request runs as.
type Actor struct {
	UserID uuid.UUID
	Roles  []Role
}

// NewActor builds an Actor from a user ID and its roles.
func NewActor(userID uuid.UUID, roles ...Role) Actor {
	return Actor{UserID: userID, Roles: roles}
}

// IsAdmin reports whether the actor holds the admin role. Role names
// compare case-insensitively.
func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

// HasRole reports whether the actor holds role.
func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if strings.EqualFold(string(r), string(role)) {
			return true
		}
	}
	return false
}

// Validate returns ErrUnauthenticated when the actor has no identity.
func (a Actor) Validate() error {
	if a.UserID == uuid.Nil {
		return ErrUnauthenticated
	}
	return nil
}

// ParseRoles splits a list of raw role names, dropping blanks.
func ParseRoles(raw []string) []Role {
	roles := make([]Role, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r != "" {
			roles = append(roles, Role(r))
		}
	}
	return roles
}
