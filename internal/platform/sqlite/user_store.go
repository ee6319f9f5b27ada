package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore implements store.UserStore.
type UserStore struct {
	db *gorm.DB
}

var _ store.UserStore = (*UserStore)(nil)

// GetByID implements store.UserStore.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("id = ?", id.String()).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, mapError(err)
	}
	return row.toDomain()
}

// Upsert implements store.UserStore.
func (s *UserStore) Upsert(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return store.NewStoreError("user", "upsert", "validation failed", invalid(err))
	}
	now := time.Now().UTC()
	row := userRow{
		ID:        user.ID.String(),
		UserName:  user.UserName,
		Email:     user.Email,
		Roles:     joinRoles(user.Roles),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_name", "email", "roles", "updated_at"}),
	}).Create(&row).Error
	return mapError(err)
}
