package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/platform/sqlfilter"
	"github.com/phrazzld/tasktrack-api/internal/query"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

const taskColumns = `t.id, t.title, t.description, t.is_completed, t.due_date, t.created_at, t.updated_at,
	t.user_id, t.assigned_by_user_id, t.priority, t.is_deleted, t.deleted_at,
	t.is_notification_enabled, t.notification_at, t.is_notified, t.version`

// TaskStore implements store.TaskStore. Create and Update touch two tables
// and should run inside Gateway.InTx.
type TaskStore struct {
	db     DBTX
	logger *slog.Logger
}

var _ store.TaskStore = (*TaskStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t        domain.Task
		priority int
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.IsCompleted, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
		&t.UserID, &t.AssignedByUserID, &priority, &t.IsDeleted, &t.DeletedAt,
		&t.IsNotificationEnabled, &t.NotificationAt, &t.IsNotified, &t.Version,
	)
	if err != nil {
		return nil, err
	}
	t.Priority = domain.Priority(priority)
	t.Tags = []domain.Tag{}
	return &t, nil
}

// Create implements store.TaskStore.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, is_completed, due_date, created_at, updated_at,
			user_id, assigned_by_user_id, priority, is_deleted, deleted_at,
			is_notification_enabled, notification_at, is_notified, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		task.ID, task.Title, task.Description, task.IsCompleted, task.DueDate, task.CreatedAt, task.UpdatedAt,
		task.UserID, task.AssignedByUserID, int(task.Priority), task.IsDeleted, task.DeletedAt,
		task.IsNotificationEnabled, task.NotificationAt, task.IsNotified, task.Version,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := s.linkTags(ctx, task.ID, task.Tags); err != nil {
		return err
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	return nil
}

// GetByID implements store.TaskStore.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	if err := s.loadTags(ctx, []*domain.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

// Update implements store.TaskStore.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = $2, description = $3, is_completed = $4, due_date = $5, updated_at = $6,
			user_id = $7, assigned_by_user_id = $8, priority = $9, is_deleted = $10, deleted_at = $11,
			is_notification_enabled = $12, notification_at = $13, is_notified = $14,
			version = version + 1
		WHERE id = $1 AND version = $15`,
		task.ID, task.Title, task.Description, task.IsCompleted, task.DueDate, task.UpdatedAt,
		task.UserID, task.AssignedByUserID, int(task.Priority), task.IsDeleted, task.DeletedAt,
		task.IsNotificationEnabled, task.NotificationAt, task.IsNotified, task.Version,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := checkRowsAffected(result, store.ErrVersionConflict); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return s.missingOrStale(ctx, task.ID)
		}
		return err
	}
	task.Version++

	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = $1`, task.ID); err != nil {
		return MapError(err)
	}
	return s.linkTags(ctx, task.ID, task.Tags)
}

func (s *TaskStore) missingOrStale(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists); err != nil {
		return MapError(err)
	}
	if !exists {
		return store.ErrTaskNotFound
	}
	return store.NewStoreError("task", "update", "stale version", store.ErrVersionConflict)
}

// List implements store.TaskStore.
func (s *TaskStore) List(ctx context.Context, spec query.Spec) ([]*domain.Task, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	b := sqlfilter.New(sqlfilter.Postgres, "t")
	if err := b.Add(spec.Predicates...); err != nil {
		return nil, 0, err
	}
	where := b.Where()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t WHERE `+where, b.Args()...).Scan(&total); err != nil {
		log.Error("failed to count tasks", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	stmt := `SELECT ` + taskColumns + ` FROM tasks t WHERE ` + where +
		` ORDER BY ` + sqlfilter.OrderBy("t", spec.Sort) + sqlfilter.LimitOffset(spec.Window)
	rows, err := s.db.QueryContext(ctx, stmt, b.Args()...)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}

	if err := s.loadTags(ctx, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// MarkNotified implements store.TaskStore.
func (s *TaskStore) MarkNotified(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET is_notified = TRUE, version = version + 1
		WHERE id = $1
			AND is_notification_enabled
			AND notification_at IS NOT NULL
			AND NOT is_notified
			AND NOT is_completed
			AND NOT is_deleted`, id)
	if err != nil {
		return false, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *TaskStore) linkTags(ctx context.Context, taskID uuid.UUID, tags []domain.Tag) error {
	for _, tag := range tags {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			taskID, tag.ID)
		if err != nil {
			return MapError(err)
		}
	}
	return nil
}

// loadTags fills Tags on every task with one query.
func (s *TaskStore) loadTags(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.Task, len(tasks))
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		byID[t.ID] = t
		ids[i] = t.ID.String()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tt.task_id, g.id, g.name
		FROM task_tags tt
		JOIN tags g ON g.id = tt.tag_id
		WHERE tt.task_id = ANY($1::uuid[])
		ORDER BY LOWER(g.name)`, ids)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			taskID uuid.UUID
			tag    domain.Tag
		)
		if err := rows.Scan(&taskID, &tag.ID, &tag.Name); err != nil {
			return MapError(err)
		}
		if t, ok := byID[taskID]; ok {
			t.Tags = append(t.Tags, tag)
		}
	}
	return rows.Err()
}
