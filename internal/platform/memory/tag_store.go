package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// TagStore implements store.TagStore.
type TagStore struct {
	g *Gateway
}

var _ store.TagStore = (*TagStore)(nil)

// Create implements store.TagStore.
func (ts *TagStore) Create(ctx context.Context, tag *domain.Tag) error {
	if err := tag.Validate(); err != nil {
		return store.NewStoreError("tag", "create", "validation failed", invalid(err))
	}
	return ts.g.with(func(s *state) error {
		if _, exists := s.tags[tag.ID]; exists {
			return store.NewStoreError("tag", "create", "duplicate id", store.ErrDuplicate)
		}
		if nameTaken(s, tag.Name, tag.ID) {
			return store.ErrTagNameExists
		}
		c := *tag
		s.tags[tag.ID] = &c
		return nil
	})
}

// GetByID implements store.TagStore.
func (ts *TagStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	var out *domain.Tag
	err := ts.g.with(func(s *state) error {
		tag, ok := s.tags[id]
		if !ok {
			return store.ErrTagNotFound
		}
		c := *tag
		out = &c
		return nil
	})
	return out, err
}

// GetByName implements store.TagStore.
func (ts *TagStore) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	var out *domain.Tag
	err := ts.g.with(func(s *state) error {
		key := domain.TagKey(name)
		for _, tag := range s.tags {
			if domain.TagKey(tag.Name) == key {
				c := *tag
				out = &c
				return nil
			}
		}
		return store.ErrTagNotFound
	})
	return out, err
}

// List implements store.TagStore.
func (ts *TagStore) List(ctx context.Context) ([]*domain.Tag, error) {
	var out []*domain.Tag
	err := ts.g.with(func(s *state) error {
		out = make([]*domain.Tag, 0, len(s.tags))
		for _, tag := range s.tags {
			c := *tag
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return domain.TagKey(out[i].Name) < domain.TagKey(out[j].Name) })
	return out, err
}

// Update implements store.TagStore.
func (ts *TagStore) Update(ctx context.Context, tag *domain.Tag) error {
	if err := tag.Validate(); err != nil {
		return store.NewStoreError("tag", "update", "validation failed", invalid(err))
	}
	return ts.g.with(func(s *state) error {
		if _, ok := s.tags[tag.ID]; !ok {
			return store.ErrTagNotFound
		}
		if nameTaken(s, tag.Name, tag.ID) {
			return store.ErrTagNameExists
		}
		c := *tag
		s.tags[tag.ID] = &c
		return nil
	})
}

// Delete implements store.TagStore.
func (ts *TagStore) Delete(ctx context.Context, id uuid.UUID) error {
	return ts.g.with(func(s *state) error {
		if _, ok := s.tags[id]; !ok {
			return store.ErrTagNotFound
		}
		if referenced(s, id) {
			return store.NewStoreError("tag", "delete", "still linked to tasks", store.ErrReferenced)
		}
		delete(s.tags, id)
		return nil
	})
}

// IsReferenced implements store.TagStore.
func (ts *TagStore) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	var found bool
	err := ts.g.with(func(s *state) error {
		found = referenced(s, id)
		return nil
	})
	return found, err
}

func nameTaken(s *state, name string, self uuid.UUID) bool {
	key := domain.TagKey(name)
	for id, tag := range s.tags {
		if id != self && domain.TagKey(tag.Name) == key {
			return true
		}
	}
	return false
}

func referenced(s *state, tagID uuid.UUID) bool {
	for _, t := range s.tasks {
		for _, link := range t.Tags {
			if link.ID == tagID {
				return true
			}
		}
	}
	return false
}
