package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/query"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// TaskStore implements store.TaskStore.
type TaskStore struct {
	g *Gateway
}

var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.
func (ts *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "create", "validation failed", invalid(err))
	}
	return ts.g.with(func(s *state) error {
		if _, exists := s.tasks[task.ID]; exists {
			return store.NewStoreError("task", "create", "duplicate id", store.ErrDuplicate)
		}
		if err := checkTagLinks(s, task.Tags); err != nil {
			return err
		}
		s.tasks[task.ID] = task.Clone()
		return nil
	})
}

// GetByID implements store.TaskStore.
func (ts *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var out *domain.Task
	err := ts.g.with(func(s *state) error {
		t, ok := s.tasks[id]
		if !ok {
			return store.ErrTaskNotFound
		}
		out = hydrate(s, t)
		return nil
	})
	return out, err
}

// Update implements store.TaskStore.
func (ts *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "update", "validation failed", invalid(err))
	}
	return ts.g.with(func(s *state) error {
		current, ok := s.tasks[task.ID]
		if !ok {
			return store.ErrTaskNotFound
		}
		if current.Version != task.Version {
			return store.NewStoreError("task", "update", "stale version", store.ErrVersionConflict)
		}
		if err := checkTagLinks(s, task.Tags); err != nil {
			return err
		}
		task.Version++
		s.tasks[task.ID] = task.Clone()
		return nil
	})
}

// List implements store.TaskStore.
func (ts *TaskStore) List(ctx context.Context, spec query.Spec) ([]*domain.Task, int, error) {
	var (
		page  []*domain.Task
		total int
	)
	err := ts.g.with(func(s *state) error {
		type row struct {
			task   *domain.Task
			fields query.Fields
		}
		var matched []row
		for _, t := range s.tasks {
			h := hydrate(s, t)
			f := query.TaskFields(h)
			if spec.Matches(f) {
				matched = append(matched, row{task: h, fields: f})
			}
		}
		sort.Slice(matched, func(i, j int) bool {
			return spec.Sort.Compare(matched[i].fields, matched[j].fields) < 0
		})

		total = len(matched)
		for _, r := range query.Slice(matched, spec.Window) {
			page = append(page, r.task)
		}
		return nil
	})
	return page, total, err
}

// MarkNotified implements store.TaskStore.
func (ts *TaskStore) MarkNotified(ctx context.Context, id uuid.UUID) (bool, error) {
	var marked bool
	err := ts.g.with(func(s *state) error {
		t, ok := s.tasks[id]
		if !ok || !t.Notifiable() {
			return nil
		}
		t.IsNotified = true
		t.Version++
		marked = true
		return nil
	})
	return marked, err
}

// hydrate copies t and refreshes its tag names from the tag table.
func hydrate(s *state, t *domain.Task) *domain.Task {
	c := t.Clone()
	tags := make([]domain.Tag, 0, len(c.Tags))
	for _, link := range c.Tags {
		if tag, ok := s.tags[link.ID]; ok {
			tags = append(tags, *tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return domain.TagKey(tags[i].Name) < domain.TagKey(tags[j].Name) })
	c.Tags = tags
	return c
}

func checkTagLinks(s *state, tags []domain.Tag) error {
	for _, tag := range tags {
		if _, ok := s.tags[tag.ID]; !ok {
			return store.NewStoreError("task", "link tag", tag.ID.String(), store.ErrTagNotFound)
		}
	}
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
}
