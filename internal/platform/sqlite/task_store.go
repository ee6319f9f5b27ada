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
	"gorm.io/gorm/clause"
)

// TaskStore implements store.TaskStore.
type TaskStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "create", "validation failed", invalid(err))
	}
	db := s.db.WithContext(ctx)
	if err := checkTagsExist(db, task.Tags); err != nil {
		return err
	}

	row := toTaskRow(task)
	if err := db.Create(&row).Error; err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return mapError(err)
	}
	return linkTags(db, task.ID, task.Tags)
}

// GetByID implements store.TaskStore.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	db := s.db.WithContext(ctx)

	var row taskRow
	if err := db.Where("id = ?", id.String()).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrTaskNotFound
		}
		return nil, mapError(err)
	}
	task, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	if err := loadTags(db, []*domain.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

// Update implements store.TaskStore.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "update", "validation failed", invalid(err))
	}
	db := s.db.WithContext(ctx)
	if err := checkTagsExist(db, task.Tags); err != nil {
		return err
	}

	row := toTaskRow(task)
	result := db.Model(&taskRow{}).
		Where("id = ? AND version = ?", row.ID, task.Version).
		Updates(map[string]any{
			"title":                   row.Title,
			"description":             row.Description,
			"is_completed":            row.IsCompleted,
			"due_date":                row.DueDate,
			"updated_at":              row.UpdatedAt,
			"user_id":                 row.UserID,
			"assigned_by_user_id":     row.AssignedByUserID,
			"priority":                row.Priority,
			"is_deleted":              row.IsDeleted,
			"deleted_at":              row.DeletedAt,
			"is_notification_enabled": row.IsNotificationEnabled,
			"notification_at":         row.NotificationAt,
			"is_notified":             row.IsNotified,
			"version":                 gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return missingOrStale(db, &taskRow{}, row.ID, "task", store.ErrTaskNotFound)
	}
	task.Version++

	if err := db.Where("task_id = ?", row.ID).Delete(&taskTagRow{}).Error; err != nil {
		return mapError(err)
	}
	return linkTags(db, task.ID, task.Tags)
}

// List implements store.TaskStore.
func (s *TaskStore) List(ctx context.Context, spec query.Spec) ([]*domain.Task, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	b := sqlfilter.New(sqlfilter.SQLite, "t")
	if err := b.Add(spec.Predicates...); err != nil {
		return nil, 0, err
	}
	db := s.db.WithContext(ctx)
	filtered := db.Table("tasks AS t").Where(b.Where(), b.Args()...).Session(&gorm.Session{})

	var total int64
	if err := filtered.Count(&total).Error; err != nil {
		log.Error("failed to count tasks", slog.String("error", err.Error()))
		return nil, 0, mapError(err)
	}

	var rows []taskRow
	page := filtered.Select("t.*").Order(sqlfilter.OrderBy("t", spec.Sort))
	if !spec.Window.Unbounded() {
		page = page.Limit(spec.Window.Size).Offset(spec.Window.Offset())
	}
	if err := page.Find(&rows).Error; err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, 0, mapError(err)
	}

	tasks := make([]*domain.Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.toDomain()
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}
	if err := loadTags(db, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, int(total), nil
}

// MarkNotified implements store.TaskStore.
func (s *TaskStore) MarkNotified(ctx context.Context, id uuid.UUID) (bool, error) {
	result := s.db.WithContext(ctx).Model(&taskRow{}).
		Where(`id = ? AND is_notification_enabled AND notification_at IS NOT NULL
			AND NOT is_notified AND NOT is_completed AND NOT is_deleted`, id.String()).
		Updates(map[string]any{
			"is_notified": true,
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, mapError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func checkTagsExist(db *gorm.DB, tags []domain.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	ids := uniqueTagIDs(tags)
	var n int64
	if err := db.Model(&tagRow{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return mapError(err)
	}
	if int(n) != len(ids) {
		return store.NewStoreError("task", "link tag", "unknown tag", store.ErrTagNotFound)
	}
	return nil
}

func linkTags(db *gorm.DB, taskID uuid.UUID, tags []domain.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	ids := uniqueTagIDs(tags)
	links := make([]taskTagRow, len(ids))
	for i, id := range ids {
		links[i] = taskTagRow{TaskID: taskID.String(), TagID: id}
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	return mapError(err)
}

// loadTags fills Tags on every task with one query.
func loadTags(db *gorm.DB, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Task, len(tasks))
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		byID[t.ID.String()] = t
		ids[i] = t.ID.String()
	}

	var links []tagLink
	err := db.Table("task_tags AS tt").
		Select("tt.task_id AS task_id, g.id AS id, g.name AS name").
		Joins("JOIN tags g ON g.id = tt.tag_id").
		Where("tt.task_id IN ?", ids).
		Order("LOWER(g.name)").
		Scan(&links).Error
	if err != nil {
		return mapError(err)
	}

	for _, link := range links {
		tagID, err := uuid.Parse(link.ID)
		if err != nil {
			return err
		}
		if t, ok := byID[link.TaskID]; ok {
			t.Tags = append(t.Tags, domain.Tag{ID: tagID, Name: link.Name})
		}
	}
	return nil
}

func uniqueTagIDs(tags []domain.Tag) []string {
	seen := make(map[uuid.UUID]bool, len(tags))
	ids := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !seen[tag.ID] {
			seen[tag.ID] = true
			ids = append(ids, tag.ID.String())
		}
	}
	return ids
}

// missingOrStale explains a conditional update that matched no row.
func missingOrStale(db *gorm.DB, model any, id, entity string, notFound error) error {
	var n int64
	if err := db.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return mapError(err)
	}
	if n == 0 {
		return notFound
	}
	return store.NewStoreError(entity, "update", "stale version", store.ErrVersionConflict)
}
