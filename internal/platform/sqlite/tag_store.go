package sqlite

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"gorm.io/gorm"
)

// TagStore implements store.TagStore.
type TagStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.TagStore = (*TagStore)(nil)

// Create implements store.TagStore.
func (s *TagStore) Create(ctx context.Context, tag *domain.Tag) error {
	if err := tag.Validate(); err != nil {
		return store.NewStoreError("tag", "create", "validation failed", invalid(err))
	}
	row := tagRow{ID: tag.ID.String(), Name: tag.Name}
	return nameError(s.db.WithContext(ctx).Create(&row).Error)
}

// GetByID implements store.TagStore.
func (s *TagStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	return s.getOne(s.db.WithContext(ctx).Where("id = ?", id.String()))
}

// GetByName implements store.TagStore.
func (s *TagStore) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	return s.getOne(s.db.WithContext(ctx).Where("LOWER(name) = ?", domain.TagKey(name)))
}

func (s *TagStore) getOne(q *gorm.DB) (*domain.Tag, error) {
	var row tagRow
	if err := q.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrTagNotFound
		}
		return nil, mapError(err)
	}
	return row.toDomain()
}

// List implements store.TagStore.
func (s *TagStore) List(ctx context.Context) ([]*domain.Tag, error) {
	var rows []tagRow
	if err := s.db.WithContext(ctx).Order("LOWER(name), id").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	tags := make([]*domain.Tag, 0, len(rows))
	for _, row := range rows {
		tag, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// Update implements store.TagStore.
func (s *TagStore) Update(ctx context.Context, tag *domain.Tag) error {
	if err := tag.Validate(); err != nil {
		return store.NewStoreError("tag", "update", "validation failed", invalid(err))
	}
	result := s.db.WithContext(ctx).Model(&tagRow{}).
		Where("id = ?", tag.ID.String()).
		Update("name", tag.Name)
	if result.Error != nil {
		return nameError(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrTagNotFound
	}
	return nil
}

// Delete implements store.TagStore. The link check runs first because
// SQLite does not name the foreign key that failed.
func (s *TagStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	referenced, err := s.IsReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		log.Debug("tag still linked to tasks", slog.String("tag_id", id.String()))
		return store.NewStoreError("tag", "delete", "still linked to tasks", store.ErrReferenced)
	}

	result := s.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&tagRow{})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return store.NewStoreError("tag", "delete", "still linked to tasks", store.ErrReferenced)
		}
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrTagNotFound
	}
	return nil
}

// IsReferenced implements store.TagStore.
func (s *TagStore) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&taskTagRow{}).Where("tag_id = ?", id.String()).Count(&n).Error
	return n > 0, mapError(err)
}

// nameError reports unique violations as a taken name; the name index is
// the only unique constraint besides the primary key.
func nameError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.NewStoreError("tag", "save", "name taken", store.ErrTagNameExists)
	}
	return mapError(err)
}
