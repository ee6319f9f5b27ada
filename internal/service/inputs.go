package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
)

// CreateTaskInput carries the caller-supplied fields of a new task.
// New tasks always start not completed.
type CreateTaskInput struct {
	Title                 string
	Description           *string
	DueDate               *time.Time
	Priority              *domain.Priority // nil means domain.DefaultPriority
	Tags                  []string         // tag names; each must already exist
	IsNotificationEnabled bool
	NotificationAt        *time.Time

	// AssignToUserID hands the task to another user. Only honoured for
	// admins.
	AssignToUserID *uuid.UUID
}

// UpdateTaskInput carries a full replacement of the editable task fields.
type UpdateTaskInput struct {
	ID                    uuid.UUID
	Title                 string
	Description           *string
	IsCompleted           bool
	DueDate               *time.Time
	Priority              *domain.Priority // nil keeps the current priority
	Tags                  []string         // nil keeps the current tags, empty clears them
	IsNotificationEnabled bool
	NotificationAt        *time.Time
	AssignToUserID        *uuid.UUID

	// Version, when set, must equal the stored version.
	Version *int64
}

// CreateSubtaskInput carries the fields of a new subtask.
type CreateSubtaskInput struct {
	ParentTaskID uuid.UUID
	Title        string
	Description  *string
	DueDate      *time.Time
	Priority     *domain.Priority
}

// UpdateSubtaskInput carries a full replacement of the editable subtask
// fields.
type UpdateSubtaskInput struct {
	ID           uuid.UUID
	ParentTaskID uuid.UUID
	Title        string
	Description  *string
	IsCompleted  bool
	DueDate      *time.Time
	Priority     *domain.Priority
	Version      *int64
}
