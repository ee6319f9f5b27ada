package sqlite

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/platform/sqlfilter"
	"github.com/phrazzld/tasktrack-api/internal/query"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"gorm.io/gorm"
)

// SubtaskStore implements store.SubtaskStore.
type SubtaskStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.SubtaskStore = (*SubtaskStore)(nil)

// Create implements store.SubtaskStore.
func (s *SubtaskStore) Create(ctx context.Context, subtask *domain.Subtask) error {
	if err := subtask.Validate(); err != nil {
		return store.NewStoreError("subtask", "create", "validation failed", invalid(err))
	}
	db := s.db.WithContext(ctx)

	var parents int64
	if err := db.Model(&taskRow{}).Where("id = ?", subtask.ParentTaskID.String()).Count(&parents).Error; err != nil {
		return mapError(err)
	}
	if parents == 0 {
		return store.NewStoreError("subtask", "create", "parent missing", store.ErrTaskNotFound)
	}

	row := toSubtaskRow(subtask)
	return mapError(db.Create(&row).Error)
}

// GetByID implements store.SubtaskStore.
func (s *SubtaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subtask, error) {
	var row subtaskRow
	if err := s.db.WithContext(ctx).Where("id = ?", id.String()).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrSubtaskNotFound
		}
		return nil, mapError(err)
	}
	return row.toDomain()
}

// Update implements store.SubtaskStore.
func (s *SubtaskStore) Update(ctx context.Context, subtask *domain.Subtask) error {
	if err := subtask.Validate(); err != nil {
		return store.NewStoreError("subtask", "update", "validation failed", invalid(err))
	}
	db := s.db.WithContext(ctx)

	row := toSubtaskRow(subtask)
	result := db.Model(&subtaskRow{}).
		Where("id = ? AND version = ?", row.ID, subtask.Version).
		Updates(map[string]any{
			"title":        row.Title,
			"description":  row.Description,
			"is_completed": row.IsCompleted,
			"due_date":     row.DueDate,
			"updated_at":   row.UpdatedAt,
			"priority":     row.Priority,
			"is_deleted":   row.IsDeleted,
			"deleted_at":   row.DeletedAt,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return missingOrStale(db, &subtaskRow{}, row.ID, "subtask", store.ErrSubtaskNotFound)
	}
	subtask.Version++
	return nil
}

// List implements store.SubtaskStore.
func (s *SubtaskStore) List(ctx context.Context, spec query.Spec) ([]*domain.Subtask, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	b := sqlfilter.New(sqlfilter.SQLite, "s")
	if err := b.Add(spec.Predicates...); err != nil {
		return nil, 0, err
	}
	filtered := s.db.WithContext(ctx).Table("subtasks AS s").Where(b.Where(), b.Args()...).Session(&gorm.Session{})

	var total int64
	if err := filtered.Count(&total).Error; err != nil {
		log.Error("failed to count subtasks", slog.String("error", err.Error()))
		return nil, 0, mapError(err)
	}

	var rows []subtaskRow
	page := filtered.Select("s.*").Order(sqlfilter.OrderBy("s", spec.Sort))
	if !spec.Window.Unbounded() {
		page = page.Limit(spec.Window.Size).Offset(spec.Window.Offset())
	}
	if err := page.Find(&rows).Error; err != nil {
		log.Error("failed to list subtasks", slog.String("error", err.Error()))
		return nil, 0, mapError(err)
	}

	subtasks := make([]*domain.Subtask, 0, len(rows))
	for _, row := range rows {
		st, err := row.toDomain()
		if err != nil {
			return nil, 0, err
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, int(total), nil
}
