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
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// TagStore implements store.TagStore.
type TagStore struct {
	db     DBTX
	logger *slog.Logger
}

var _ store.TagStore = (*TagStore)(nil)

// Create implements store.TagStore.
func (s *TagStore) Create(ctx context.Context, tag *domain.Tag) error {
	if err := tag.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO tags (id, name) VALUES ($1, $2)`, tag.ID, tag.Name)
	return MapError(err)
}

// GetByID implements store.TagStore.
func (s *TagStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	return s.getOne(ctx, `SELECT id, name FROM tags WHERE id = $1`, id)
}

// GetByName implements store.TagStore.
func (s *TagStore) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	return s.getOne(ctx, `SELECT id, name FROM tags WHERE LOWER(name) = $1`, domain.TagKey(name))
}

func (s *TagStore) getOne(ctx context.Context, stmt string, arg any) (*domain.Tag, error) {
	var tag domain.Tag
	err := s.db.QueryRowContext(ctx, stmt, arg).Scan(&tag.ID, &tag.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTagNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	return &tag, nil
}

// List implements store.TagStore.
func (s *TagStore) List(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY LOWER(name), id`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tags := []*domain.Tag{}
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, MapError(err)
		}
		tags = append(tags, &tag)
	}
	return tags, MapError(rows.Err())
}

// Update implements store.TagStore.
func (s *TagStore) Update(ctx context.Context, tag *domain.Tag) error {
	if err := tag.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	result, err := s.db.ExecContext(ctx, `UPDATE tags SET name = $2 WHERE id = $1`, tag.ID, tag.Name)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrTagNotFound)
}

// Delete implements store.TagStore.
func (s *TagStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Debug("tag still linked to tasks", slog.String("tag_id", id.String()))
			return store.NewStoreError("tag", "delete", "still linked to tasks", store.ErrReferenced)
		}
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrTagNotFound)
}

// IsReferenced implements store.TagStore.
func (s *TagStore) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	var found bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM task_tags WHERE tag_id = $1)`, id).Scan(&found)
	return found, MapError(err)
}
