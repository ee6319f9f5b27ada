package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// UserStore implements store.UserStore.
type UserStore struct {
	g *Gateway
}

var _ store.UserStore = (*UserStore)(nil)

// GetByID implements store.UserStore.
func (us *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	err := us.g.with(func(s *state) error {
		u, ok := s.users[id]
		if !ok {
			return store.ErrUserNotFound
		}
		out = cloneUser(u)
		return nil
	})
	return out, err
}

// Upsert implements store.UserStore.
func (us *UserStore) Upsert(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return store.NewStoreError("user", "upsert", "validation failed", invalid(err))
	}
	return us.g.with(func(s *state) error {
		s.users[user.ID] = cloneUser(user)
		return nil
	})
}
