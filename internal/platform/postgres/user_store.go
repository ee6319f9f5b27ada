package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// UserStore implements store.UserStore. Roles are stored as a
// comma-separated list.
type UserStore struct {
	db     DBTX
	logger *slog.Logger
}

var _ store.UserStore = (*UserStore)(nil)

// GetByID implements store.UserStore.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var (
		u     domain.User
		roles string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_name, email, roles FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.UserName, &u.Email, &roles)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	u.Roles = splitRoles(roles)
	return &u, nil
}

// Upsert implements store.UserStore.
func (s *UserStore) Upsert(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, user_name, email, roles)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			user_name = EXCLUDED.user_name,
			email = EXCLUDED.email,
			roles = EXCLUDED.roles,
			updated_at = NOW()`,
		user.ID, user.UserName, user.Email, joinRoles(user.Roles))
	return MapError(err)
}

func joinRoles(roles []domain.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

func splitRoles(s string) []domain.Role {
	if s == "" {
		return []domain.Role{}
	}
	return domain.ParseRoles(strings.Split(s, ","))
}
