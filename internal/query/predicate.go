package query

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
)

// Fields is the flattened view of a task or subtask that predicates and
// sort keys are evaluated against. Fields that do not apply to a record
// kind are left zero.
type Fields struct {
	ID                  uuid.UUID
	Title               string
	Description         *string
	IsCompleted         bool
	DueDate             *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	OwnerID             uuid.UUID
	AssignerID          *uuid.UUID
	ParentID            uuid.UUID
	ParentDeleted       bool
	Priority            domain.Priority
	IsDeleted           bool
	NotificationEnabled bool
	NotificationAt      *time.Time
	IsNotified          bool
	TagKeys             []string
}

// TaskFields flattens a task.
func TaskFields(t *domain.Task) Fields {
	keys := make([]string, len(t.Tags))
	for i, tag := range t.Tags {
		keys[i] = domain.TagKey(tag.Name)
	}
	return Fields{
		ID:                  t.ID,
		Title:               t.Title,
		Description:         t.Description,
		IsCompleted:         t.IsCompleted,
		DueDate:             t.DueDate,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
		OwnerID:             t.UserID,
		AssignerID:          t.AssignedByUserID,
		Priority:            t.Priority,
		IsDeleted:           t.IsDeleted,
		NotificationEnabled: t.IsNotificationEnabled,
		NotificationAt:      t.NotificationAt,
		IsNotified:          t.IsNotified,
		TagKeys:             keys,
	}
}

// SubtaskFields flattens a subtask. parentDeleted carries the deleted state
// of the parent task.
func SubtaskFields(s *domain.Subtask, parentDeleted bool) Fields {
	return Fields{
		ID:            s.ID,
		Title:         s.Title,
		Description:   s.Description,
		IsCompleted:   s.IsCompleted,
		DueDate:       s.DueDate,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		OwnerID:       s.UserID,
		ParentID:      s.ParentTaskID,
		ParentDeleted: parentDeleted,
		Priority:      s.Priority,
		IsDeleted:     s.IsDeleted,
	}
}

// Predicate is one filter condition. The set of implementations is closed:
// storage backends translate each concrete type and reject anything else.
type Predicate interface {
	Matches(f Fields) bool
	predicate()
}

// Search matches records whose title or description contains Text,
// ignoring case. A missing description never matches.
type Search struct{ Text string }

// CompletedIs matches on the completion flag.
type CompletedIs struct{ Value bool }

// DueOnOrAfter matches records with a due date at or after From. Records
// without a due date never match.
type DueOnOrAfter struct{ From time.Time }

// DueOnOrBefore matches records with a due date at or before To. Records
// without a due date never match.
type DueOnOrBefore struct{ To time.Time }

// PriorityIn matches records whose priority is any of Values.
type PriorityIn struct{ Values []domain.Priority }

// HasAnyTag matches tasks carrying at least one tag whose name equals one
// of Names, ignoring case.
type HasAnyTag struct{ Names []string }

// NotDeleted excludes soft-deleted records.
type NotDeleted struct{}

// NotNotified excludes tasks whose reminder already fired.
type NotNotified struct{}

// NotificationEnabled matches tasks with reminders switched on.
type NotificationEnabled struct{}

// NotificationBetween matches tasks whose reminder instant falls in the
// closed range [From, To].
type NotificationBetween struct{ From, To time.Time }

// OwnedBy matches records owned by UserID.
type OwnedBy struct{ UserID uuid.UUID }

// OwnedOrAssignedBy matches tasks owned by, or assigned by, UserID.
type OwnedOrAssignedBy struct{ UserID uuid.UUID }

// ParentIs matches subtasks of TaskID.
type ParentIs struct{ TaskID uuid.UUID }

// ParentNotDeleted excludes subtasks whose parent task is soft-deleted.
type ParentNotDeleted struct{}

func (Search) predicate()              {}
func (CompletedIs) predicate()         {}
func (DueOnOrAfter) predicate()        {}
func (DueOnOrBefore) predicate()       {}
func (PriorityIn) predicate()          {}
func (HasAnyTag) predicate()           {}
func (NotDeleted) predicate()          {}
func (NotNotified) predicate()         {}
func (NotificationEnabled) predicate() {}
func (NotificationBetween) predicate() {}
func (OwnedBy) predicate()             {}
func (OwnedOrAssignedBy) predicate()   {}
func (ParentIs) predicate()            {}
func (ParentNotDeleted) predicate()    {}

func (p Search) Matches(f Fields) bool {
	needle := strings.ToLower(p.Text)
	if strings.Contains(strings.ToLower(f.Title), needle) {
		return true
	}
	return f.Description != nil && strings.Contains(strings.ToLower(*f.Description), needle)
}

func (p CompletedIs) Matches(f Fields) bool {
	return f.IsCompleted == p.Value
}

func (p DueOnOrAfter) Matches(f Fields) bool {
	return f.DueDate != nil && !f.DueDate.Before(p.From)
}

func (p DueOnOrBefore) Matches(f Fields) bool {
	return f.DueDate != nil && !f.DueDate.After(p.To)
}

func (p PriorityIn) Matches(f Fields) bool {
	for _, v := range p.Values {
		if f.Priority == v {
			return true
		}
	}
	return false
}

func (p HasAnyTag) Matches(f Fields) bool {
	for _, want := range p.Names {
		want = domain.TagKey(want)
		for _, have := range f.TagKeys {
			if have == want {
				return true
			}
		}
	}
	return false
}

func (NotDeleted) Matches(f Fields) bool {
	return !f.IsDeleted
}

func (NotNotified) Matches(f Fields) bool {
	return !f.IsNotified
}

func (NotificationEnabled) Matches(f Fields) bool {
	return f.NotificationEnabled
}

func (p NotificationBetween) Matches(f Fields) bool {
	return f.NotificationAt != nil && !f.NotificationAt.Before(p.From) && !f.NotificationAt.After(p.To)
}

func (p OwnedBy) Matches(f Fields) bool {
	return f.OwnerID == p.UserID
}

func (p OwnedOrAssignedBy) Matches(f Fields) bool {
	return f.OwnerID == p.UserID || (f.AssignerID != nil && *f.AssignerID == p.UserID)
}

func (p ParentIs) Matches(f Fields) bool {
	return f.ParentID == p.TaskID
}

func (ParentNotDeleted) Matches(f Fields) bool {
	return !f.ParentDeleted
}
