package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/query"
)

// TaskStore persists tasks and their tag links.
type TaskStore interface {
	// Create inserts a task and links it to task.Tags by ID.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID loads a task with its tags, deleted or not.
	// Returns ErrTaskNotFound if no such row exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update writes every mutable field and replaces the tag links. The write
	// only succeeds if the stored version equals task.Version; on success
	// task.Version is incremented. Returns ErrVersionConflict on mismatch
	// and ErrTaskNotFound if the row is gone.
	Update(ctx context.Context, task *domain.Task) error

	// List returns the window of tasks matching spec, ordered by spec.Sort,
	// with tags loaded, plus the total number of matches.
	List(ctx context.Context, spec query.Spec) ([]*domain.Task, int, error)

	// MarkNotified sets the notified flag in one conditional write. It
	// reports false when the task was no longer notifiable.
	MarkNotified(ctx context.Context, id uuid.UUID) (bool, error)
}

// SubtaskStore persists subtasks.
type SubtaskStore interface {
	Create(ctx context.Context, subtask *domain.Subtask) error

	// GetByID loads a subtask, deleted or not.
	// Returns ErrSubtaskNotFound if no such row exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subtask, error)

	// Update follows the same version rule as TaskStore.Update.
	Update(ctx context.Context, subtask *domain.Subtask) error

	List(ctx context.Context, spec query.Spec) ([]*domain.Subtask, int, error)
}

// TagStore persists tags.
type TagStore interface {
	// Create returns ErrTagNameExists if the case-folded name is taken.
	Create(ctx context.Context, tag *domain.Tag) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error)

	// GetByName matches ignoring case.
	GetByName(ctx context.Context, name string) (*domain.Tag, error)

	// List returns all tags ordered by name.
	List(ctx context.Context) ([]*domain.Tag, error)
	Update(ctx context.Context, tag *domain.Tag) error

	// Delete removes the tag. Returns ErrReferenced if any task, deleted or
	// not, still carries it.
	Delete(ctx context.Context, id uuid.UUID) error

	// IsReferenced reports whether any task carries the tag.
	IsReferenced(ctx context.Context, id uuid.UUID) (bool, error)
}

// UserStore reads and registers the local copy of known identities.
type UserStore interface {
	// GetByID returns ErrUserNotFound if the user is unknown.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// Upsert inserts the user or overwrites its name, email and roles.
	Upsert(ctx context.Context, user *domain.User) error
}

// Gateway is the single entry point to a storage backend.
type Gateway interface {
	Tasks() TaskStore
	Subtasks() SubtaskStore
	Tags() TagStore
	Users() UserStore

	// InTx runs fn against a Gateway bound to one transaction. The
	// transaction commits if fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Gateway) error) error
}
