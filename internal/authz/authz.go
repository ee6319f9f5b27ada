// Package authz holds the visibility and permission rules for tasks,
// subtasks and tags. The rules are pure functions of the actor and the
// record; callers turn a denial into a not-found outcome.
package authz

import (
	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/query"
)

// TaskListScope narrows a task listing to what the actor may see: their
// own tasks, plus for admins the tasks they assigned to others.
func TaskListScope(a domain.Actor) query.Predicate {
	if a.IsAdmin() {
		return query.OwnedOrAssignedBy{UserID: a.UserID}
	}
	return query.OwnedBy{UserID: a.UserID}
}

// AssignedToMeScope narrows a task listing to tasks the actor owns.
func AssignedToMeScope(a domain.Actor) query.Predicate {
	return query.OwnedBy{UserID: a.UserID}
}

// SubtaskListScope narrows a subtask listing to one parent and, for
// non-admins, to the actor's own subtasks.
func SubtaskListScope(a domain.Actor, parentID uuid.UUID) []query.Predicate {
	preds := []query.Predicate{query.ParentIs{TaskID: parentID}}
	if !a.IsAdmin() {
		preds = append(preds, query.OwnedBy{UserID: a.UserID})
	}
	return preds
}

// IsTaskParty reports whether the actor owns the task or, as an admin,
// assigned it.
func IsTaskParty(a domain.Actor, t *domain.Task) bool {
	if t.UserID == a.UserID {
		return true
	}
	return a.IsAdmin() && t.AssignedByUserID != nil && *t.AssignedByUserID == a.UserID
}

// CanReadTask applies to single-task reads, which never show deleted tasks.
func CanReadTask(a domain.Actor, t *domain.Task) bool {
	return !t.IsDeleted && IsTaskParty(a, t)
}

// CanUpdateTask applies to edits of a live task.
func CanUpdateTask(a domain.Actor, t *domain.Task) bool {
	return !t.IsDeleted && IsTaskParty(a, t)
}

// CanManageTaskLifecycle gates soft delete and restore of tasks.
func CanManageTaskLifecycle(a domain.Actor) bool {
	return a.IsAdmin()
}

// CanCreateSubtaskUnder reports whether the actor may add a subtask to
// parent. Only the owner of a live parent may.
func CanCreateSubtaskUnder(a domain.Actor, parent *domain.Task) bool {
	return !parent.IsDeleted && parent.UserID == a.UserID
}

// CanReadSubtask applies to single-subtask reads. Admins see any live
// subtask; others only their own.
func CanReadSubtask(a domain.Actor, s *domain.Subtask, parentDeleted bool) bool {
	if s.IsDeleted || parentDeleted {
		return false
	}
	return a.IsAdmin() || s.UserID == a.UserID
}

// CanModifySubtask gates update, delete and restore of a subtask. Only the
// owner may, admins included.
func CanModifySubtask(a domain.Actor, s *domain.Subtask) bool {
	return s.UserID == a.UserID
}

// CanMutateTags gates tag create, rename and delete.
func CanMutateTags(a domain.Actor) bool {
	return a.IsAdmin()
}
