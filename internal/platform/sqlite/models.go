package sqlite

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
)

// Rows store ids as text and times in UTC. Timestamps are always set by
// the caller, so gorm's automatic time tracking is switched off.

type userRow struct {
	ID        string    `gorm:"primaryKey;type:text"`
	UserName  string    `gorm:"not null"`
	Email     string    `gorm:"not null"`
	Roles     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (userRow) TableName() string { return "users" }

type taskRow struct {
	ID                    string  `gorm:"primaryKey;type:text"`
	Title                 string  `gorm:"type:varchar(250);not null"`
	Description           *string `gorm:"type:varchar(1000)"`
	IsCompleted           bool    `gorm:"not null"`
	DueDate               *time.Time
	CreatedAt             time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt             time.Time `gorm:"not null;autoUpdateTime:false"`
	UserID                string    `gorm:"type:text;not null;index"`
	AssignedByUserID      *string   `gorm:"type:text;index"`
	Priority              int       `gorm:"not null"`
	IsDeleted             bool      `gorm:"not null"`
	DeletedAt             *time.Time
	IsNotificationEnabled bool `gorm:"not null"`
	NotificationAt        *time.Time
	IsNotified            bool  `gorm:"not null"`
	Version               int64 `gorm:"not null"`
}

func (taskRow) TableName() string { return "tasks" }

type subtaskRow struct {
	ID           string  `gorm:"primaryKey;type:text"`
	Title        string  `gorm:"type:varchar(250);not null"`
	Description  *string `gorm:"type:varchar(1000)"`
	IsCompleted  bool    `gorm:"not null"`
	DueDate      *time.Time
	CreatedAt    time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime:false"`
	UserID       string    `gorm:"type:text;not null"`
	ParentTaskID string    `gorm:"type:text;not null;index"`
	Parent       *taskRow  `gorm:"foreignKey:ParentTaskID;constraint:OnDelete:CASCADE"`
	Priority     int       `gorm:"not null"`
	IsDeleted    bool      `gorm:"not null"`
	DeletedAt    *time.Time
	Version      int64 `gorm:"not null"`
}

func (subtaskRow) TableName() string { return "subtasks" }

type tagRow struct {
	ID   string `gorm:"primaryKey;type:text"`
	Name string `gorm:"type:varchar(50);not null"`
}

func (tagRow) TableName() string { return "tags" }

type taskTagRow struct {
	TaskID string   `gorm:"primaryKey;type:text"`
	Task   *taskRow `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	TagID  string   `gorm:"primaryKey;type:text;index"`
	Tag    *tagRow  `gorm:"foreignKey:TagID;constraint:OnDelete:RESTRICT"`
}

func (taskTagRow) TableName() string { return "task_tags" }

// tagLink is one row of the task/tag join used when loading tags.
type tagLink struct {
	TaskID string
	ID     string
	Name   string
}

func toTaskRow(t *domain.Task) taskRow {
	return taskRow{
		ID:                    t.ID.String(),
		Title:                 t.Title,
		Description:           t.Description,
		IsCompleted:           t.IsCompleted,
		DueDate:               utcPtr(t.DueDate),
		CreatedAt:             t.CreatedAt.UTC(),
		UpdatedAt:             t.UpdatedAt.UTC(),
		UserID:                t.UserID.String(),
		AssignedByUserID:      idPtrString(t.AssignedByUserID),
		Priority:              int(t.Priority),
		IsDeleted:             t.IsDeleted,
		DeletedAt:             utcPtr(t.DeletedAt),
		IsNotificationEnabled: t.IsNotificationEnabled,
		NotificationAt:        utcPtr(t.NotificationAt),
		IsNotified:            t.IsNotified,
		Version:               t.Version,
	}
}

func (r taskRow) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, err
	}
	assigner, err := parseIDPtr(r.AssignedByUserID)
	if err != nil {
		return nil, err
	}
	return &domain.Task{
		ID:                    id,
		Title:                 r.Title,
		Description:           r.Description,
		IsCompleted:           r.IsCompleted,
		DueDate:               utcPtr(r.DueDate),
		CreatedAt:             r.CreatedAt.UTC(),
		UpdatedAt:             r.UpdatedAt.UTC(),
		UserID:                owner,
		AssignedByUserID:      assigner,
		Priority:              domain.Priority(r.Priority),
		IsDeleted:             r.IsDeleted,
		DeletedAt:             utcPtr(r.DeletedAt),
		IsNotificationEnabled: r.IsNotificationEnabled,
		NotificationAt:        utcPtr(r.NotificationAt),
		IsNotified:            r.IsNotified,
		Tags:                  []domain.Tag{},
		Version:               r.Version,
	}, nil
}

func toSubtaskRow(s *domain.Subtask) subtaskRow {
	return subtaskRow{
		ID:           s.ID.String(),
		Title:        s.Title,
		Description:  s.Description,
		IsCompleted:  s.IsCompleted,
		DueDate:      utcPtr(s.DueDate),
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
		UserID:       s.UserID.String(),
		ParentTaskID: s.ParentTaskID.String(),
		Priority:     int(s.Priority),
		IsDeleted:    s.IsDeleted,
		DeletedAt:    utcPtr(s.DeletedAt),
		Version:      s.Version,
	}
}

func (r subtaskRow) toDomain() (*domain.Subtask, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, err
	}
	parent, err := uuid.Parse(r.ParentTaskID)
	if err != nil {
		return nil, err
	}
	return &domain.Subtask{
		ID:           id,
		Title:        r.Title,
		Description:  r.Description,
		IsCompleted:  r.IsCompleted,
		DueDate:      utcPtr(r.DueDate),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		UserID:       owner,
		ParentTaskID: parent,
		Priority:     domain.Priority(r.Priority),
		IsDeleted:    r.IsDeleted,
		DeletedAt:    utcPtr(r.DeletedAt),
		Version:      r.Version,
	}, nil
}

func (r tagRow) toDomain() (*domain.Tag, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Tag{ID: id, Name: r.Name}, nil
}

func (r userRow) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	roles := []domain.Role{}
	if r.Roles != "" {
		roles = domain.ParseRoles(strings.Split(r.Roles, ","))
	}
	return &domain.User{ID: id, UserName: r.UserName, Email: r.Email, Roles: roles}, nil
}

func joinRoles(roles []domain.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func idPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseIDPtr(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
