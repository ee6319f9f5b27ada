// Package storetest holds behaviour checks shared by every store.Gateway
// implementation. Backends call Run from their own tests with a factory
// that returns an empty gateway.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/query"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a gateway over empty storage.
type Factory func(t *testing.T) store.Gateway

// Base is the reference instant used by the fixtures.
var Base = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

// NewTask returns a valid, active task owned by owner, created offset after Base.
func NewTask(owner uuid.UUID, title string, offset time.Duration) *domain.Task {
	at := Base.Add(offset)
	return &domain.Task{
		ID:        uuid.New(),
		Title:     title,
		UserID:    owner,
		Priority:  domain.PriorityMedium,
		CreatedAt: at,
		UpdatedAt: at,
		Tags:      []domain.Tag{},
		Version:   1,
	}
}

// NewSubtask returns a valid, active subtask under parent.
func NewSubtask(parent *domain.Task, title string, offset time.Duration) *domain.Subtask {
	at := Base.Add(offset)
	return &domain.Subtask{
		ID:           uuid.New(),
		Title:        title,
		UserID:       parent.UserID,
		ParentTaskID: parent.ID,
		Priority:     domain.PriorityMedium,
		CreatedAt:    at,
		UpdatedAt:    at,
		Version:      1,
	}
}

// Run executes every check against gateways built by newGateway.
func Run(t *testing.T, newGateway Factory) {
	t.Run("TaskRoundTrip", func(t *testing.T) { testTaskRoundTrip(t, newGateway(t)) })
	t.Run("TaskVersioning", func(t *testing.T) { testTaskVersioning(t, newGateway(t)) })
	t.Run("TaskListFilters", func(t *testing.T) { testTaskListFilters(t, newGateway(t)) })
	t.Run("TaskListSortAndPage", func(t *testing.T) { testTaskListSortAndPage(t, newGateway(t)) })
	t.Run("MarkNotified", func(t *testing.T) { testMarkNotified(t, newGateway(t)) })
	t.Run("Tags", func(t *testing.T) { testTags(t, newGateway(t)) })
	t.Run("Subtasks", func(t *testing.T) { testSubtasks(t, newGateway(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newGateway(t)) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newGateway(t)) })
}

func createTag(t *testing.T, gw store.Gateway, name string) domain.Tag {
	t.Helper()
	tag, err := domain.NewTag(name)
	require.NoError(t, err)
	require.NoError(t, gw.Tags().Create(context.Background(), tag))
	return *tag
}

func createTask(t *testing.T, gw store.Gateway, task *domain.Task) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		return tx.Tasks().Create(ctx, task)
	}))
}

func titles(tasks []*domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func sameInstant(t *testing.T, want time.Time, got *time.Time) {
	t.Helper()
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got), "want %s, got %s", want, got)
}

func testTaskRoundTrip(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	owner, admin := uuid.New(), uuid.New()
	work := createTag(t, gw, "work")
	alpha := createTag(t, gw, "Alpha")

	desc := "quarterly numbers"
	due := Base.Add(48 * time.Hour)
	remind := Base.Add(47 * time.Hour)
	task := NewTask(owner, "report", 0)
	task.Description = &desc
	task.DueDate = &due
	task.AssignedByUserID = &admin
	task.Priority = domain.PriorityCritical
	task.IsNotificationEnabled = true
	task.NotificationAt = &remind
	task.Tags = []domain.Tag{work, alpha}
	createTask(t, gw, task)

	got, err := gw.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "report", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)
	sameInstant(t, due, got.DueDate)
	sameInstant(t, remind, got.NotificationAt)
	assert.True(t, Base.Equal(got.CreatedAt))
	assert.Equal(t, owner, got.UserID)
	require.NotNil(t, got.AssignedByUserID)
	assert.Equal(t, admin, *got.AssignedByUserID)
	assert.Equal(t, domain.PriorityCritical, got.Priority)
	assert.Equal(t, []string{"Alpha", "work"}, got.TagNames(), "tags are ordered by name")
	assert.Equal(t, int64(1), got.Version)

	_, err = gw.Tasks().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	orphan := NewTask(owner, "orphan", 0)
	orphan.Tags = []domain.Tag{{ID: uuid.New(), Name: "ghost"}}
	err = gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		return tx.Tasks().Create(ctx, orphan)
	})
	assert.ErrorIs(t, err, store.ErrTagNotFound)

	invalid := NewTask(owner, "   ", 0)
	assert.ErrorIs(t, gw.Tasks().Create(ctx, invalid), store.ErrInvalidEntity)
}

func testTaskVersioning(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	home := createTag(t, gw, "home")
	task := NewTask(uuid.New(), "draft", 0)
	createTask(t, gw, task)

	first, err := gw.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	stale, err := gw.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)

	first.Title = "final"
	first.Tags = []domain.Tag{home}
	first.UpdatedAt = Base.Add(time.Hour)
	require.NoError(t, gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		return tx.Tasks().Update(ctx, first)
	}))
	assert.Equal(t, int64(2), first.Version)

	stale.Title = "lost"
	err = gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		return tx.Tasks().Update(ctx, stale)
	})
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	got, err := gw.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, []string{"home"}, got.TagNames())
	assert.Equal(t, int64(2), got.Version)

	missing := NewTask(uuid.New(), "missing", 0)
	err = gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		return tx.Tasks().Update(ctx, missing)
	})
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func testTaskListFilters(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	alice, bob, admin := uuid.New(), uuid.New(), uuid.New()
	urgent := createTag(t, gw, "Urgent")

	desc := "call the Plumber"
	d1 := Base.Add(24 * time.Hour)
	d2 := Base.Add(72 * time.Hour)

	a := NewTask(alice, "groceries", 0)
	a.Description = &desc
	a.DueDate = &d1
	a.Priority = domain.PriorityHigh
	a.Tags = []domain.Tag{urgent}

	b := NewTask(alice, "laundry", time.Minute)
	b.DueDate = &d2
	b.IsCompleted = true

	c := NewTask(bob, "taxes", 2*time.Minute)
	c.AssignedByUserID = &admin
	c.Priority = domain.PriorityLow

	deletedAt := Base.Add(time.Hour)
	d := NewTask(alice, "old chores", 3*time.Minute)
	d.IsDeleted = true
	d.DeletedAt = &deletedAt

	for _, task := range []*domain.Task{a, b, c, d} {
		createTask(t, gw, task)
	}

	all := query.Spec{Sort: query.Sort{Field: query.SortByTitle}}
	tests := []struct {
		name  string
		preds []query.Predicate
		want  []string
	}{
		{"no filter", nil, []string{"groceries", "laundry", "old chores", "taxes"}},
		{"not deleted", []query.Predicate{query.NotDeleted{}}, []string{"groceries", "laundry", "taxes"}},
		{"owner", []query.Predicate{query.OwnedBy{UserID: alice}}, []string{"groceries", "laundry", "old chores"}},
		{"owner or assigner", []query.Predicate{query.OwnedOrAssignedBy{UserID: admin}}, []string{"taxes"}},
		{"search description", []query.Predicate{query.Search{Text: "plumb"}}, []string{"groceries"}},
		{"search title case", []query.Predicate{query.Search{Text: "TAX"}}, []string{"taxes"}},
		{"search wildcard is literal", []query.Predicate{query.Search{Text: "%"}}, []string{}},
		{"completed", []query.Predicate{query.CompletedIs{Value: true}}, []string{"laundry"}},
		{"due from", []query.Predicate{query.DueOnOrAfter{From: Base.Add(48 * time.Hour)}}, []string{"laundry"}},
		{"due to", []query.Predicate{query.DueOnOrBefore{To: d1}}, []string{"groceries"}},
		{"priority", []query.Predicate{query.PriorityIn{Values: []domain.Priority{domain.PriorityHigh, domain.PriorityLow}}}, []string{"groceries", "taxes"}},
		{"tag", []query.Predicate{query.HasAnyTag{Names: []string{"URGENT", "none"}}}, []string{"groceries"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := gw.Tasks().List(ctx, all.Where(tt.preds...))
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), total)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func testTaskListSortAndPage(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	owner := uuid.New()
	due := Base.Add(24 * time.Hour)

	names := []string{"delta", "alpha", "charlie", "bravo", "echo"}
	for i, n := range names {
		task := NewTask(owner, n, time.Duration(i)*time.Minute)
		if n == "charlie" {
			task.DueDate = &due
		}
		createTask(t, gw, task)
	}

	page, total, err := gw.Tasks().List(ctx, query.Spec{
		Sort:   query.Sort{Field: query.SortByTitle},
		Window: query.NewWindow(2, 2, query.MaxTaskPageSize),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, []string{"charlie", "delta"}, titles(page))

	newest, _, err := gw.Tasks().List(ctx, query.Spec{Sort: query.DefaultSort, Window: query.NewWindow(1, 2, 0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "bravo"}, titles(newest))

	asc, _, err := gw.Tasks().List(ctx, query.Spec{Sort: query.Sort{Field: query.SortByDueDate}})
	require.NoError(t, err)
	assert.Equal(t, "charlie", asc[len(asc)-1].Title, "missing due dates sort first ascending")

	desc, _, err := gw.Tasks().List(ctx, query.Spec{Sort: query.Sort{Field: query.SortByDueDate, Descending: true}})
	require.NoError(t, err)
	assert.Equal(t, "charlie", desc[0].Title, "missing due dates sort last descending")

	beyond, total, err := gw.Tasks().List(ctx, query.Spec{Sort: query.DefaultSort, Window: query.NewWindow(9, 10, 0)})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, beyond)
}

func testMarkNotified(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	remind := Base.Add(3 * time.Minute)

	pending := NewTask(uuid.New(), "pending", 0)
	pending.IsNotificationEnabled = true
	pending.NotificationAt = &remind
	createTask(t, gw, pending)

	done := NewTask(uuid.New(), "done", 0)
	done.IsNotificationEnabled = true
	done.NotificationAt = &remind
	done.IsCompleted = true
	createTask(t, gw, done)

	window := query.Spec{Sort: query.Sort{Field: query.SortByTitle}}.Where(
		query.NotificationEnabled{}, query.NotNotified{}, query.CompletedIs{Value: false}, query.NotDeleted{},
		query.NotificationBetween{From: Base, To: Base.Add(5 * time.Minute)},
	)
	due, _, err := gw.Tasks().List(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, []string{"pending"}, titles(due))

	marked, err := gw.Tasks().MarkNotified(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = gw.Tasks().MarkNotified(ctx, pending.ID)
	require.NoError(t, err)
	assert.False(t, marked, "second mark is a no-op")

	marked, err = gw.Tasks().MarkNotified(ctx, done.ID)
	require.NoError(t, err)
	assert.False(t, marked, "completed tasks are not notifiable")

	due, _, err = gw.Tasks().List(ctx, window)
	require.NoError(t, err)
	assert.Empty(t, due)

	got, err := gw.Tasks().GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, got.IsNotified)
}

func testTags(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	work := createTag(t, gw, "Work")
	createTag(t, gw, "errands")

	dup, err := domain.NewTag("WORK")
	require.NoError(t, err)
	err = gw.Tags().Create(ctx, dup)
	assert.True(t, store.IsDuplicateError(err), "got %v", err)
	assert.ErrorIs(t, err, store.ErrTagNameExists)

	byName, err := gw.Tags().GetByName(ctx, " work ")
	require.NoError(t, err)
	assert.Equal(t, work.ID, byName.ID)

	all, err := gw.Tags().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "errands", all[0].Name)

	renamed := work
	renamed.Name = "ERRANDS"
	assert.ErrorIs(t, gw.Tags().Update(ctx, &renamed), store.ErrTagNameExists)
	renamed.Name = "Job"
	require.NoError(t, gw.Tags().Update(ctx, &renamed))

	ghost := domain.Tag{ID: uuid.New(), Name: "ghost"}
	assert.ErrorIs(t, gw.Tags().Update(ctx, &ghost), store.ErrTagNotFound)
	assert.ErrorIs(t, gw.Tags().Delete(ctx, ghost.ID), store.ErrTagNotFound)

	deletedAt := Base
	task := NewTask(uuid.New(), "linked", 0)
	task.Tags = []domain.Tag{work}
	task.IsDeleted = true
	task.DeletedAt = &deletedAt
	createTask(t, gw, task)

	referenced, err := gw.Tags().IsReferenced(ctx, work.ID)
	require.NoError(t, err)
	assert.True(t, referenced, "links of soft-deleted tasks count")
	assert.ErrorIs(t, gw.Tags().Delete(ctx, work.ID), store.ErrReferenced)

	got, err := gw.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Job"}, got.TagNames(), "renames show through links")

	errands, err := gw.Tags().GetByName(ctx, "errands")
	require.NoError(t, err)
	require.NoError(t, gw.Tags().Delete(ctx, errands.ID))
	_, err = gw.Tags().GetByID(ctx, errands.ID)
	assert.ErrorIs(t, err, store.ErrTagNotFound)
}

func testSubtasks(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	parent := NewTask(uuid.New(), "parent", 0)
	other := NewTask(uuid.New(), "other", 0)
	createTask(t, gw, parent)
	createTask(t, gw, other)

	first := NewSubtask(parent, "first", 0)
	second := NewSubtask(parent, "second", time.Minute)
	second.Priority = domain.PriorityHigh
	foreign := NewSubtask(other, "foreign", 0)
	for _, st := range []*domain.Subtask{first, second, foreign} {
		require.NoError(t, gw.Subtasks().Create(ctx, st))
	}

	orphan := NewSubtask(NewTask(uuid.New(), "gone", 0), "orphan", 0)
	assert.ErrorIs(t, gw.Subtasks().Create(ctx, orphan), store.ErrTaskNotFound)

	visible := query.SubtaskParams{SortBy: "title", SortOrder: "asc"}.Spec().
		Where(query.ParentIs{TaskID: parent.ID})
	got, total, err := gw.Subtasks().List(ctx, visible)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title)

	high := visible.Where(query.PriorityIn{Values: []domain.Priority{domain.PriorityHigh}})
	got, _, err = gw.Subtasks().List(ctx, high)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)

	stale, err := gw.Subtasks().GetByID(ctx, first.ID)
	require.NoError(t, err)
	fresh, err := gw.Subtasks().GetByID(ctx, first.ID)
	require.NoError(t, err)
	fresh.IsCompleted = true
	require.NoError(t, gw.Subtasks().Update(ctx, fresh))
	assert.Equal(t, int64(2), fresh.Version)
	assert.ErrorIs(t, gw.Subtasks().Update(ctx, stale), store.ErrVersionConflict)

	loaded, err := gw.Tasks().GetByID(ctx, parent.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.SoftDelete(Base.Add(time.Hour)))
	loaded.UpdatedAt = Base.Add(time.Hour)
	require.NoError(t, gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		return tx.Tasks().Update(ctx, loaded)
	}))

	got, total, err = gw.Subtasks().List(ctx, visible)
	require.NoError(t, err)
	assert.Equal(t, 0, total, "subtasks of a deleted parent are hidden")
	assert.Empty(t, got)

	withDeleted := query.SubtaskParams{IncludeDeleted: true}.Spec().Where(query.ParentIs{TaskID: parent.ID})
	_, total, err = gw.Subtasks().List(ctx, withDeleted)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func testUsers(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), UserName: "rowan", Email: "rowan@example.com", Roles: []domain.Role{domain.RoleUser}}
	require.NoError(t, gw.Users().Upsert(ctx, user))

	user.Roles = []domain.Role{domain.RoleAdmin, domain.RoleUser}
	user.UserName = "rowan.k"
	require.NoError(t, gw.Users().Upsert(ctx, user))

	got, err := gw.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "rowan.k", got.UserName)
	assert.Equal(t, "rowan@example.com", got.Email)
	assert.ElementsMatch(t, []domain.Role{domain.RoleAdmin, domain.RoleUser}, got.Roles)

	_, err = gw.Users().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	assert.ErrorIs(t, gw.Users().Upsert(ctx, &domain.User{ID: uuid.New()}), store.ErrInvalidEntity)
}

func testTransactions(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	boom := errors.New("boom")
	task := NewTask(uuid.New(), "rolled back", 0)

	err := gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		require.NoError(t, tx.Tasks().Create(ctx, task))
		_, err := tx.Tasks().GetByID(ctx, task.ID)
		require.NoError(t, err, "writes are visible inside the transaction")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = gw.Tasks().GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	nested := NewTask(uuid.New(), "nested", 0)
	err = gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		return tx.InTx(ctx, func(ctx context.Context, inner store.Gateway) error {
			return inner.Tasks().Create(ctx, nested)
		})
	})
	require.NoError(t, err)
	_, err = gw.Tasks().GetByID(ctx, nested.ID)
	assert.NoError(t, err)
}
