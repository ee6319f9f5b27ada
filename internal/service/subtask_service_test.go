package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/query"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) createSubtask(t *testing.T, actor domain.Actor, parent *domain.Task, title string) *domain.Subtask {
	t.Helper()
	st, err := f.subtasks.Create(context.Background(), actor, service.CreateSubtaskInput{
		ParentTaskID: parent.ID,
		Title:        title,
	})
	require.NoError(t, err)
	return st
}

func TestCreateSubtask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.createTask(t, f.alice, service.CreateTaskInput{})

	st := f.createSubtask(t, f.alice, parent, "step one")
	assert.Equal(t, f.alice.UserID, st.UserID)
	assert.Equal(t, parent.ID, st.ParentTaskID)
	assert.Equal(t, domain.PriorityMedium, st.Priority)
	assert.False(t, st.IsCompleted)

	_, err := f.subtasks.Create(ctx, f.bob, service.CreateSubtaskInput{ParentTaskID: parent.ID, Title: "intrude"})
	assert.ErrorIs(t, err, domain.ErrNotFound, "only the parent owner adds subtasks")

	_, err = f.subtasks.Create(ctx, f.admin, service.CreateSubtaskInput{ParentTaskID: parent.ID, Title: "admin"})
	assert.ErrorIs(t, err, domain.ErrNotFound, "admins are not exempt")

	_, err = f.subtasks.Create(ctx, f.alice, service.CreateSubtaskInput{ParentTaskID: uuid.New(), Title: "orphan"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = f.subtasks.Create(ctx, f.alice, service.CreateSubtaskInput{ParentTaskID: parent.ID, Title: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListSubtasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.createTask(t, f.alice, service.CreateTaskInput{})
	other := f.createTask(t, f.alice, service.CreateTaskInput{})
	f.createSubtask(t, f.alice, parent, "a")
	f.createSubtask(t, f.alice, parent, "b")
	f.createSubtask(t, f.alice, other, "elsewhere")

	params := query.SubtaskParams{SortBy: "title"}

	page, err := f.subtasks.List(ctx, f.alice, parent.ID, params)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].Title)

	page, err = f.subtasks.List(ctx, f.bob, parent.ID, params)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = f.subtasks.List(ctx, f.admin, parent.ID, params)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2, "admins list any owner's subtasks")

	require.NoError(t, f.tasks.Delete(ctx, f.admin, parent.ID))
	page, err = f.subtasks.List(ctx, f.alice, parent.ID, params)
	require.NoError(t, err)
	assert.Empty(t, page.Items, "subtasks of a deleted parent are hidden")

	page, err = f.subtasks.List(ctx, f.alice, parent.ID, query.SubtaskParams{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestGetSubtask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.createTask(t, f.alice, service.CreateTaskInput{})
	st := f.createSubtask(t, f.alice, parent, "a")

	got, err := f.subtasks.Get(ctx, f.alice, parent.ID, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)

	_, err = f.subtasks.Get(ctx, f.admin, parent.ID, st.ID)
	assert.NoError(t, err)

	_, err = f.subtasks.Get(ctx, f.bob, parent.ID, st.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.subtasks.Get(ctx, f.alice, uuid.New(), st.ID)
	assert.ErrorIs(t, err, domain.ErrSubtaskNotFound, "parent in the path must match")

	require.NoError(t, f.tasks.Delete(ctx, f.admin, parent.ID))
	_, err = f.subtasks.Get(ctx, f.alice, parent.ID, st.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateSubtask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.createTask(t, f.alice, service.CreateTaskInput{})
	st := f.createSubtask(t, f.alice, parent, "a")
	due := t0.Add(time.Hour)

	f.clock.Advance(time.Minute)
	updated, err := f.subtasks.Update(ctx, f.alice, service.UpdateSubtaskInput{
		ID:           st.ID,
		ParentTaskID: parent.ID,
		Title:        "a2",
		IsCompleted:  true,
		DueDate:      &due,
		Priority:     ptr(domain.PriorityCritical),
	})
	require.NoError(t, err)
	assert.Equal(t, "a2", updated.Title)
	assert.True(t, updated.IsCompleted)
	assert.Equal(t, domain.PriorityCritical, updated.Priority)
	assert.Equal(t, t0.Add(time.Minute), updated.UpdatedAt)
	assert.Equal(t, int64(2), updated.Version)

	_, err = f.subtasks.Update(ctx, f.admin, service.UpdateSubtaskInput{ID: st.ID, ParentTaskID: parent.ID, Title: "admin"})
	assert.ErrorIs(t, err, domain.ErrNotFound, "only the owner modifies a subtask")

	_, err = f.subtasks.Update(ctx, f.alice, service.UpdateSubtaskInput{
		ID: st.ID, ParentTaskID: parent.ID, Title: "stale", Version: ptr(int64(1)),
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
}

func TestSubtaskLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.createTask(t, f.alice, service.CreateTaskInput{})
	st := f.createSubtask(t, f.alice, parent, "a")

	assert.ErrorIs(t, f.subtasks.Delete(ctx, f.admin, parent.ID, st.ID), domain.ErrNotFound)
	assert.ErrorIs(t, f.subtasks.Restore(ctx, f.alice, parent.ID, st.ID), domain.ErrNotFound)

	require.NoError(t, f.subtasks.Delete(ctx, f.alice, parent.ID, st.ID))
	assert.ErrorIs(t, f.subtasks.Delete(ctx, f.alice, parent.ID, st.ID), domain.ErrNotFound)

	_, err := f.subtasks.Update(ctx, f.alice, service.UpdateSubtaskInput{ID: st.ID, ParentTaskID: parent.ID, Title: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound, "deleted subtasks cannot be edited")

	require.NoError(t, f.subtasks.Restore(ctx, f.alice, parent.ID, st.ID))
	got, err := f.subtasks.Get(ctx, f.alice, parent.ID, st.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)
	assert.Nil(t, got.DeletedAt)
}
