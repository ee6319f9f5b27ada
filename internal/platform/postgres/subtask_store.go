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

const subtaskColumns = `s.id, s.title, s.description, s.is_completed, s.due_date, s.created_at, s.updated_at,
	s.user_id, s.parent_task_id, s.priority, s.is_deleted, s.deleted_at, s.version`

// SubtaskStore implements store.SubtaskStore.
type SubtaskStore struct {
	db     DBTX
	logger *slog.Logger
}

var _ store.SubtaskStore = (*SubtaskStore)(nil)

func scanSubtask(row rowScanner) (*domain.Subtask, error) {
	var (
		st       domain.Subtask
		priority int
	)
	err := row.Scan(
		&st.ID, &st.Title, &st.Description, &st.IsCompleted, &st.DueDate, &st.CreatedAt, &st.UpdatedAt,
		&st.UserID, &st.ParentTaskID, &priority, &st.IsDeleted, &st.DeletedAt, &st.Version,
	)
	if err != nil {
		return nil, err
	}
	st.Priority = domain.Priority(priority)
	return &st, nil
}

// Create implements store.SubtaskStore.
func (s *SubtaskStore) Create(ctx context.Context, subtask *domain.Subtask) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := subtask.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subtasks (id, title, description, is_completed, due_date, created_at, updated_at,
			user_id, parent_task_id, priority, is_deleted, deleted_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		subtask.ID, subtask.Title, subtask.Description, subtask.IsCompleted, subtask.DueDate,
		subtask.CreatedAt, subtask.UpdatedAt, subtask.UserID, subtask.ParentTaskID,
		int(subtask.Priority), subtask.IsDeleted, subtask.DeletedAt, subtask.Version,
	)
	if err != nil {
		log.Error("failed to create subtask",
			slog.String("error", err.Error()),
			slog.String("subtask_id", subtask.ID.String()),
			slog.String("parent_task_id", subtask.ParentTaskID.String()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.SubtaskStore.
func (s *SubtaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subtask, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+subtaskColumns+` FROM subtasks s WHERE s.id = $1`, id)
	st, err := scanSubtask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSubtaskNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	return st, nil
}

// Update implements store.SubtaskStore.
func (s *SubtaskStore) Update(ctx context.Context, subtask *domain.Subtask) error {
	if err := subtask.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE subtasks SET
			title = $2, description = $3, is_completed = $4, due_date = $5, updated_at = $6,
			priority = $7, is_deleted = $8, deleted_at = $9, version = version + 1
		WHERE id = $1 AND version = $10`,
		subtask.ID, subtask.Title, subtask.Description, subtask.IsCompleted, subtask.DueDate,
		subtask.UpdatedAt, int(subtask.Priority), subtask.IsDeleted, subtask.DeletedAt, subtask.Version,
	)
	if err != nil {
		return MapError(err)
	}

	if err := checkRowsAffected(result, store.ErrVersionConflict); err != nil {
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM subtasks WHERE id = $1)`, subtask.ID).Scan(&exists); err != nil {
			return MapError(err)
		}
		if !exists {
			return store.ErrSubtaskNotFound
		}
		return store.NewStoreError("subtask", "update", "stale version", store.ErrVersionConflict)
	}
	subtask.Version++
	return nil
}

// List implements store.SubtaskStore.
func (s *SubtaskStore) List(ctx context.Context, spec query.Spec) ([]*domain.Subtask, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	b := sqlfilter.New(sqlfilter.Postgres, "s")
	if err := b.Add(spec.Predicates...); err != nil {
		return nil, 0, err
	}
	where := b.Where()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subtasks s WHERE `+where, b.Args()...).Scan(&total); err != nil {
		log.Error("failed to count subtasks", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subtaskColumns+` FROM subtasks s WHERE `+where+
			` ORDER BY `+sqlfilter.OrderBy("s", spec.Sort)+sqlfilter.LimitOffset(spec.Window),
		b.Args()...)
	if err != nil {
		log.Error("failed to list subtasks", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	subtasks := []*domain.Subtask{}
	for rows.Next() {
		st, err := scanSubtask(rows)
		if err != nil {
			return nil, 0, MapError(err)
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, total, MapError(rows.Err())
}
