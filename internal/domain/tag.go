package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Tag name bounds, counted after trimming.
const (
	MinTagNameLength = 2
	MaxTagNameLength = 50
)

// Tag is a named label that can be attached to tasks. Names are unique
// ignoring case.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NewTag creates a tag with a fresh ID and a normalized name.
func NewTag(name string) (*Tag, error) {
	tag := &Tag{ID: uuid.New(), Name: NormalizeTagName(name)}
	if err := tag.Validate(); err != nil {
		return nil, err
	}
	return tag, nil
}

// Validate checks the tag name bounds.
func (t *Tag) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrValidation)
	}
	n := utf8.RuneCountInString(t.Name)
	if n < MinTagNameLength || n > MaxTagNameLength {
		return NewValidationError("name", "must be between 2 and 50 characters", ErrValidation)
	}
	return nil
}

// NormalizeTagName trims surrounding whitespace.
func NormalizeTagName(name string) string {
	return strings.TrimSpace(name)
}

// TagKey is the case-folded form used for uniqueness and matching.
func TagKey(name string) string {
	return strings.ToLower(NormalizeTagName(name))
}
