package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Field limits shared by tasks and subtasks.
const (
	MaxTitleLength       = 250
	MaxDescriptionLength = 1000
)

// Task is a user-owned work item. UserID is the owner, who for an assigned
// task is also the assignee. AssignedByUserID records the admin who created
// or reassigned it, if any.
type Task struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      *string    `json:"description,omitempty"`
	IsCompleted      bool       `json:"is_completed"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	UserID           uuid.UUID  `json:"user_id"`
	AssignedByUserID *uuid.UUID `json:"assigned_by_user_id,omitempty"`
	Priority         Priority   `json:"priority"`
	IsDeleted        bool       `json:"is_deleted"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`

	IsNotificationEnabled bool       `json:"is_notification_enabled"`
	NotificationAt        *time.Time `json:"notification_at,omitempty"`
	IsNotified            bool       `json:"is_notified"`

	Tags []Tag `json:"tags"`

	// Version increments on every persisted change and guards against
	// lost updates.
	Version int64 `json:"version"`

	// Display names resolved at read time. Not persisted.
	OwnerName    string `json:"-"`
	AssignerName string `json:"-"`
}

// Validate checks the field-level invariants of a task.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrValidation)
	}
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if t.UserID == uuid.Nil {
		return NewValidationError("user_id", "cannot be empty", ErrValidation)
	}
	if !t.Priority.Valid() {
		return NewValidationError("priority", "is not a known level", ErrValidation)
	}
	if t.IsDeleted != (t.DeletedAt != nil) {
		return NewValidationError("deleted_at", "must be set exactly when the task is deleted", ErrValidation)
	}
	if t.IsNotificationEnabled && t.NotificationAt == nil {
		return NewValidationError("notification_at", "is required when notifications are enabled", ErrValidation)
	}
	return nil
}

// SoftDelete marks the task deleted at now.
func (t *Task) SoftDelete(now time.Time) error {
	if t.IsDeleted {
		return ErrAlreadyDeleted
	}
	t.IsDeleted = true
	t.DeletedAt = &now
	t.UpdatedAt = now
	return nil
}

// Restore clears the deleted state. The notified flag is reset so a
// restored task can be reminded again.
func (t *Task) Restore(now time.Time) error {
	if !t.IsDeleted {
		return ErrNotDeleted
	}
	t.IsDeleted = false
	t.DeletedAt = nil
	t.IsNotified = false
	t.UpdatedAt = now
	return nil
}

// ClearSchedule drops the due date and the reminder settings. Used when a
// task is handed to a different owner.
func (t *Task) ClearSchedule() {
	t.DueDate = nil
	t.IsNotificationEnabled = false
	t.NotificationAt = nil
}

// Notifiable reports whether the scheduler may still remind the owner.
func (t *Task) Notifiable() bool {
	return t.IsNotificationEnabled && t.NotificationAt != nil &&
		!t.IsNotified && !t.IsCompleted && !t.IsDeleted
}

// TagNames returns the names of the attached tags.
func (t *Task) TagNames() []string {
	names := make([]string, len(t.Tags))
	for i, tag := range t.Tags {
		names[i] = tag.Name
	}
	return names
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	c.Description = clonePtr(t.Description)
	c.DueDate = clonePtr(t.DueDate)
	c.AssignedByUserID = clonePtr(t.AssignedByUserID)
	c.DeletedAt = clonePtr(t.DeletedAt)
	c.NotificationAt = clonePtr(t.NotificationAt)
	if t.Tags != nil {
		c.Tags = append([]Tag(nil), t.Tags...)
	}
	return &c
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return NewValidationError("title", "cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return NewValidationError("title", "is too long", ErrValidation)
	}
	return nil
}

func validateDescription(desc *string) error {
	if desc != nil && utf8.RuneCountInString(*desc) > MaxDescriptionLength {
		return NewValidationError("description", "is too long", ErrValidation)
	}
	return nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
