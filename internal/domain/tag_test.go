package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewTag(t *testing.T) {
	tag, err := NewTag("  work  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag.Name != "work" {
		t.Errorf("expected trimmed name, got %q", tag.Name)
	}
	if tag.ID == uuid.Nil {
		t.Error("expected generated ID")
	}

	for _, name := range []string{"a", " b ", strings.Repeat("z", MaxTagNameLength+1)} {
		if _, err := NewTag(name); !errors.Is(err, ErrValidation) {
			t.Errorf("NewTag(%q): expected validation error, got %v", name, err)
		}
	}
}

func TestTagKey(t *testing.T) {
	if TagKey(" Work ") != TagKey("work") {
		t.Error("tag keys must ignore case and surrounding space")
	}
}

func TestActorIsAdmin(t *testing.T) {
	id := uuid.New()
	if !NewActor(id, "admin").IsAdmin() {
		t.Error("role comparison must ignore case")
	}
	if NewActor(id, RoleUser).IsAdmin() {
		t.Error("plain user must not be admin")
	}
	if err := NewActor(uuid.Nil).Validate(); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}
