package domain

import (
	"time"

	"github.com/google/uuid"
)

// Subtask is a child item of a task. Its owner is always the owner of the
// parent at creation time.
type Subtask struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	IsCompleted  bool       `json:"is_completed"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	UserID       uuid.UUID  `json:"user_id"`
	ParentTaskID uuid.UUID  `json:"parent_task_id"`
	Priority     Priority   `json:"priority"`
	IsDeleted    bool       `json:"is_deleted"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	Version      int64      `json:"version"`
}

// Validate checks the field-level invariants of a subtask.
func (s *Subtask) Validate() error {
	if s.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrValidation)
	}
	if err := validateTitle(s.Title); err != nil {
		return err
	}
	if err := validateDescription(s.Description); err != nil {
		return err
	}
	if s.UserID == uuid.Nil {
		return NewValidationError("user_id", "cannot be empty", ErrValidation)
	}
	if s.ParentTaskID == uuid.Nil {
		return NewValidationError("parent_task_id", "cannot be empty", ErrValidation)
	}
	if !s.Priority.Valid() {
		return NewValidationError("priority", "is not a known level", ErrValidation)
	}
	if s.IsDeleted != (s.DeletedAt != nil) {
		return NewValidationError("deleted_at", "must be set exactly when the subtask is deleted", ErrValidation)
	}
	return nil
}

// SoftDelete marks the subtask deleted at now.
func (s *Subtask) SoftDelete(now time.Time) error {
	if s.IsDeleted {
		return ErrAlreadyDeleted
	}
	s.IsDeleted = true
	s.DeletedAt = &now
	s.UpdatedAt = now
	return nil
}

// Restore clears the deleted state.
func (s *Subtask) Restore(now time.Time) error {
	if !s.IsDeleted {
		return ErrNotDeleted
	}
	s.IsDeleted = false
	s.DeletedAt = nil
	s.UpdatedAt = now
	return nil
}

// Clone returns a deep copy of s.
func (s *Subtask) Clone() *Subtask {
	c := *s
	c.Description = clonePtr(s.Description)
	c.DueDate = clonePtr(s.DueDate)
	c.DeletedAt = clonePtr(s.DeletedAt)
	return &c
}
