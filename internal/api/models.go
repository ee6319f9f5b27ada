package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/query"
	"github.com/phrazzld/tasktrack-api/internal/service"
)

// dateOnlyLayout is accepted alongside RFC 3339 and means midnight UTC.
const dateOnlyLayout = "2006-01-02"

// parseDate accepts RFC 3339 timestamps or bare YYYY-MM-DD dates.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(dateOnlyLayout, raw, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, domain.NewValidationError(field, "must be an RFC 3339 timestamp or YYYY-MM-DD", domain.ErrValidation)
}

// Date is a request timestamp that also accepts a bare date.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.NewValidationError("date", "must be a string", domain.ErrValidation)
	}
	t, err := parseDate("date", raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *Date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// CreateTaskRequest is the body of POST /api/Task.
type CreateTaskRequest struct {
	Title                 string           `json:"title"                   validate:"required"`
	Description           *string          `json:"description"`
	DueDate               *Date            `json:"due_date"`
	Priority              *domain.Priority `json:"priority"`
	Tags                  []string         `json:"tags"`
	IsNotificationEnabled bool             `json:"is_notification_enabled"`
	NotificationAt        *Date            `json:"notification_at"`

	// UserID assigns the task to another user. Admin only.
	UserID *uuid.UUID `json:"user_id"`
}

func (r CreateTaskRequest) toInput() service.CreateTaskInput {
	return service.CreateTaskInput{
		Title:                 r.Title,
		Description:           r.Description,
		DueDate:               r.DueDate.ptr(),
		Priority:              r.Priority,
		Tags:                  r.Tags,
		IsNotificationEnabled: r.IsNotificationEnabled,
		NotificationAt:        r.NotificationAt.ptr(),
		AssignToUserID:        r.UserID,
	}
}

// UpdateTaskRequest is the body of PUT /api/Task. Omitted tags and
// priority keep their current values; an empty tag list clears them.
type UpdateTaskRequest struct {
	ID                    uuid.UUID        `json:"id"`
	Title                 string           `json:"title"                   validate:"required"`
	Description           *string          `json:"description"`
	IsCompleted           bool             `json:"is_completed"`
	DueDate               *Date            `json:"due_date"`
	Priority              *domain.Priority `json:"priority"`
	Tags                  []string         `json:"tags"`
	IsNotificationEnabled bool             `json:"is_notification_enabled"`
	NotificationAt        *Date            `json:"notification_at"`
	UserID                *uuid.UUID       `json:"user_id"`
	Version               *int64           `json:"version"`
}

func (r UpdateTaskRequest) toInput() service.UpdateTaskInput {
	return service.UpdateTaskInput{
		ID:                    r.ID,
		Title:                 r.Title,
		Description:           r.Description,
		IsCompleted:           r.IsCompleted,
		DueDate:               r.DueDate.ptr(),
		Priority:              r.Priority,
		Tags:                  r.Tags,
		IsNotificationEnabled: r.IsNotificationEnabled,
		NotificationAt:        r.NotificationAt.ptr(),
		AssignToUserID:        r.UserID,
		Version:               r.Version,
	}
}

// CreateSubtaskRequest is the body of POST .../SubtaskItem.
type CreateSubtaskRequest struct {
	Title       string           `json:"title"       validate:"required"`
	Description *string          `json:"description"`
	DueDate     *Date            `json:"due_date"`
	Priority    *domain.Priority `json:"priority"`
}

// UpdateSubtaskRequest is the body of PUT .../SubtaskItem.
type UpdateSubtaskRequest struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"        validate:"required"`
	Description *string          `json:"description"`
	IsCompleted bool             `json:"is_completed"`
	DueDate     *Date            `json:"due_date"`
	Priority    *domain.Priority `json:"priority"`
	Version     *int64           `json:"version"`
}

// TagRequest is the body of POST and PUT /api/Tags. ID is optional on PUT
// and must match the path when present.
type TagRequest struct {
	ID   *uuid.UUID `json:"id"`
	Name string     `json:"name" validate:"required"`
}

// TaskResponse is a task as returned to clients.
type TaskResponse struct {
	ID                    uuid.UUID       `json:"id"`
	Title                 string          `json:"title"`
	Description           *string         `json:"description,omitempty"`
	IsCompleted           bool            `json:"is_completed"`
	DueDate               *time.Time      `json:"due_date,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	UserID                uuid.UUID       `json:"user_id"`
	UserName              string          `json:"user_name"`
	AssignedByUserID      *uuid.UUID      `json:"assigned_by_user_id,omitempty"`
	AssignedByUserName    string          `json:"assigned_by_user_name,omitempty"`
	Priority              domain.Priority `json:"priority"`
	IsDeleted             bool            `json:"is_deleted"`
	DeletedAt             *time.Time      `json:"deleted_at,omitempty"`
	IsNotificationEnabled bool            `json:"is_notification_enabled"`
	NotificationAt        *time.Time      `json:"notification_at,omitempty"`
	IsNotified            bool            `json:"is_notified"`
	Tags                  []string        `json:"tags"`
	Version               int64           `json:"version"`
}

func newTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:                    t.ID,
		Title:                 t.Title,
		Description:           t.Description,
		IsCompleted:           t.IsCompleted,
		DueDate:               t.DueDate,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
		UserID:                t.UserID,
		UserName:              t.OwnerName,
		AssignedByUserID:      t.AssignedByUserID,
		AssignedByUserName:    t.AssignerName,
		Priority:              t.Priority,
		IsDeleted:             t.IsDeleted,
		DeletedAt:             t.DeletedAt,
		IsNotificationEnabled: t.IsNotificationEnabled,
		NotificationAt:        t.NotificationAt,
		IsNotified:            t.IsNotified,
		Tags:                  t.TagNames(),
		Version:               t.Version,
	}
}

// SubtaskResponse is a subtask as returned to clients.
type SubtaskResponse struct {
	ID           uuid.UUID       `json:"id"`
	ParentTaskID uuid.UUID       `json:"parent_task_id"`
	Title        string          `json:"title"`
	Description  *string         `json:"description,omitempty"`
	IsCompleted  bool            `json:"is_completed"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	UserID       uuid.UUID       `json:"user_id"`
	Priority     domain.Priority `json:"priority"`
	IsDeleted    bool            `json:"is_deleted"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty"`
	Version      int64           `json:"version"`
}

func newSubtaskResponse(s *domain.Subtask) SubtaskResponse {
	return SubtaskResponse{
		ID:           s.ID,
		ParentTaskID: s.ParentTaskID,
		Title:        s.Title,
		Description:  s.Description,
		IsCompleted:  s.IsCompleted,
		DueDate:      s.DueDate,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		UserID:       s.UserID,
		Priority:     s.Priority,
		IsDeleted:    s.IsDeleted,
		DeletedAt:    s.DeletedAt,
		Version:      s.Version,
	}
}

// TagResponse is a tag as returned to clients.
type TagResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func newTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name}
}

// PageResponse is one page of a listing with its paging metadata.
type PageResponse[T any] struct {
	Items           []T  `json:"items"`
	TotalCount      int  `json:"total_count"`
	PageNumber      int  `json:"page_number"`
	PageSize        int  `json:"page_size"`
	TotalPages      int  `json:"total_pages"`
	HasNextPage     bool `json:"has_next_page"`
	HasPreviousPage bool `json:"has_previous_page"`
}

func newPageResponse[S, T any](p query.Page[S], convert func(S) T) PageResponse[T] {
	items := make([]T, len(p.Items))
	for i, item := range p.Items {
		items[i] = convert(item)
	}
	return PageResponse[T]{
		Items:           items,
		TotalCount:      p.TotalCount,
		PageNumber:      p.PageNumber,
		PageSize:        p.PageSize,
		TotalPages:      p.TotalPages(),
		HasNextPage:     p.HasNextPage(),
		HasPreviousPage: p.HasPreviousPage(),
	}
}

// MessageResponse carries a short confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
