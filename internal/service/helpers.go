package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// nameResolver fills in display names for task owners and assigners,
// looking each user up at most once.
type nameResolver struct {
	users store.UserStore
	log   *slog.Logger
	cache map[uuid.UUID]string
}

func newNameResolver(users store.UserStore, log *slog.Logger) *nameResolver {
	return &nameResolver{users: users, log: log, cache: make(map[uuid.UUID]string)}
}

func (r *nameResolver) tasks(ctx context.Context, tasks ...*domain.Task) {
	for _, t := range tasks {
		t.OwnerName = r.name(ctx, t.UserID)
		if t.AssignedByUserID != nil {
			t.AssignerName = r.name(ctx, *t.AssignedByUserID)
		}
	}
}

// name returns "" for users missing from the read model.
func (r *nameResolver) name(ctx context.Context, id uuid.UUID) string {
	if n, ok := r.cache[id]; ok {
		return n
	}
	var name string
	user, err := r.users.GetByID(ctx, id)
	switch {
	case err == nil:
		name = user.UserName
	case !errors.Is(err, store.ErrUserNotFound):
		r.log.Warn("failed to resolve user name",
			slog.String("user_id", id.String()),
			slog.String("error", err.Error()))
	}
	r.cache[id] = name
	return name
}

// resolveTags looks up tags by name, ignoring case and duplicates. Unknown
// names are a validation error; tags are only created through TagService.
func resolveTags(ctx context.Context, tags store.TagStore, names []string) ([]domain.Tag, error) {
	out := make([]domain.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := domain.TagKey(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		tag, err := tags.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrTagNotFound) {
				return nil, domain.NewValidationError("tags",
					fmt.Sprintf("unknown tag %q", domain.NormalizeTagName(name)), domain.ErrValidation)
			}
			return nil, err
		}
		out = append(out, *tag)
	}
	return out, nil
}

func priorityOr(p *domain.Priority, def domain.Priority) domain.Priority {
	if p == nil {
		return def
	}
	return *p
}

// truncate drops precision below a microsecond, the finest every backend
// keeps.
func truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := truncate(*t)
	return &v
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
