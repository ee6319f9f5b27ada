package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/query"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// SubtaskStore implements store.SubtaskStore.
type SubtaskStore struct {
	g *Gateway
}

var _ store.SubtaskStore = (*SubtaskStore)(nil)

// Create implements store.SubtaskStore.
func (ss *SubtaskStore) Create(ctx context.Context, subtask *domain.Subtask) error {
	if err := subtask.Validate(); err != nil {
		return store.NewStoreError("subtask", "create", "validation failed", invalid(err))
	}
	return ss.g.with(func(s *state) error {
		if _, exists := s.subtasks[subtask.ID]; exists {
			return store.NewStoreError("subtask", "create", "duplicate id", store.ErrDuplicate)
		}
		if _, ok := s.tasks[subtask.ParentTaskID]; !ok {
			return store.NewStoreError("subtask", "create", "parent missing", store.ErrTaskNotFound)
		}
		s.subtasks[subtask.ID] = subtask.Clone()
		return nil
	})
}

// GetByID implements store.SubtaskStore.
func (ss *SubtaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subtask, error) {
	var out *domain.Subtask
	err := ss.g.with(func(s *state) error {
		st, ok := s.subtasks[id]
		if !ok {
			return store.ErrSubtaskNotFound
		}
		out = st.Clone()
		return nil
	})
	return out, err
}

// Update implements store.SubtaskStore.
func (ss *SubtaskStore) Update(ctx context.Context, subtask *domain.Subtask) error {
	if err := subtask.Validate(); err != nil {
		return store.NewStoreError("subtask", "update", "validation failed", invalid(err))
	}
	return ss.g.with(func(s *state) error {
		current, ok := s.subtasks[subtask.ID]
		if !ok {
			return store.ErrSubtaskNotFound
		}
		if current.Version != subtask.Version {
			return store.NewStoreError("subtask", "update", "stale version", store.ErrVersionConflict)
		}
		subtask.Version++
		s.subtasks[subtask.ID] = subtask.Clone()
		return nil
	})
}

// List implements store.SubtaskStore.
func (ss *SubtaskStore) List(ctx context.Context, spec query.Spec) ([]*domain.Subtask, int, error) {
	var (
		page  []*domain.Subtask
		total int
	)
	err := ss.g.with(func(s *state) error {
		type row struct {
			subtask *domain.Subtask
			fields  query.Fields
		}
		var matched []row
		for _, st := range s.subtasks {
			parentDeleted := true
			if parent, ok := s.tasks[st.ParentTaskID]; ok {
				parentDeleted = parent.IsDeleted
			}
			f := query.SubtaskFields(st, parentDeleted)
			if spec.Matches(f) {
				matched = append(matched, row{subtask: st.Clone(), fields: f})
			}
		}
		sort.Slice(matched, func(i, j int) bool {
			return spec.Sort.Compare(matched[i].fields, matched[j].fields) < 0
		})

		total = len(matched)
		for _, r := range query.Slice(matched, spec.Window) {
			page = append(page, r.subtask)
		}
		return nil
	})
	return page, total, err
}
