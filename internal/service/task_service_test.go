package service_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/query"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskServiceRequiresGateway(t *testing.T) {
	svc, err := service.NewTaskService(nil, nil, nil)
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateTaskOwnership(t *testing.T) {
	f := newFixture(t)
	due := t0.Add(48 * time.Hour)
	remind := t0.Add(24 * time.Hour)

	t.Run("user creates for self", func(t *testing.T) {
		task := f.createTask(t, f.alice, service.CreateTaskInput{Title: "groceries", DueDate: &due})

		assert.Equal(t, f.alice.UserID, task.UserID)
		assert.Nil(t, task.AssignedByUserID)
		assert.Equal(t, "alice", task.OwnerName)
		assert.Equal(t, domain.PriorityMedium, task.Priority)
		assert.Equal(t, int64(1), task.Version)
		assert.Equal(t, t0, task.CreatedAt)
		assert.False(t, task.IsCompleted, "new tasks start not completed")
		assert.False(t, task.IsDeleted)
		assert.False(t, task.IsNotified)
		require.NotNil(t, task.DueDate)
		assert.True(t, due.Equal(*task.DueDate))
	})

	t.Run("admin creates for self", func(t *testing.T) {
		task := f.createTask(t, f.admin, service.CreateTaskInput{DueDate: &due})

		assert.Equal(t, f.admin.UserID, task.UserID)
		require.NotNil(t, task.AssignedByUserID)
		assert.Equal(t, f.admin.UserID, *task.AssignedByUserID)
		assert.Equal(t, "root", task.AssignerName)
		assert.NotNil(t, task.DueDate)
	})

	t.Run("admin creates for another user", func(t *testing.T) {
		task := f.createTask(t, f.admin, service.CreateTaskInput{
			DueDate:               &due,
			IsNotificationEnabled: true,
			NotificationAt:        &remind,
			AssignToUserID:        &f.alice.UserID,
		})

		assert.Equal(t, f.alice.UserID, task.UserID)
		assert.Equal(t, f.admin.UserID, *task.AssignedByUserID)
		assert.Equal(t, "alice", task.OwnerName)
		assert.Equal(t, "root", task.AssignerName)
		assert.Nil(t, task.DueDate)
		assert.False(t, task.IsNotificationEnabled)
		assert.Nil(t, task.NotificationAt)
	})

	t.Run("admin assigns to unknown user", func(t *testing.T) {
		_, err := f.tasks.Create(context.Background(), f.admin, service.CreateTaskInput{
			Title:          "ghost",
			AssignToUserID: ptr(uuid.New()),
		})
		assert.ErrorIs(t, err, domain.ErrAssigneeNotFound)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("non-admin target is ignored", func(t *testing.T) {
		task := f.createTask(t, f.alice, service.CreateTaskInput{DueDate: &due, AssignToUserID: &f.bob.UserID})

		assert.Equal(t, f.alice.UserID, task.UserID)
		assert.Nil(t, task.AssignedByUserID)
		assert.NotNil(t, task.DueDate)
	})
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tasks.Create(ctx, f.alice, service.CreateTaskInput{Title: "   "})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = f.tasks.Create(ctx, f.alice, service.CreateTaskInput{Title: "x", Priority: ptr(domain.Priority(9))})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.tasks.Create(ctx, domain.Actor{}, service.CreateTaskInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCreateTaskTags(t *testing.T) {
	f := newFixture(t)
	f.createTag(t, "Work")

	task := f.createTask(t, f.alice, service.CreateTaskInput{Tags: []string{"work", " WORK ", ""}})
	assert.Equal(t, []string{"Work"}, task.TagNames())

	_, err := f.tasks.Create(context.Background(), f.alice, service.CreateTaskInput{Title: "x", Tags: []string{"nope"}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tags", verr.Field)
}

func TestListTaskScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createTask(t, f.alice, service.CreateTaskInput{Title: "alice own"})
	f.createTask(t, f.bob, service.CreateTaskInput{Title: "bob own"})
	f.createTask(t, f.admin, service.CreateTaskInput{Title: "for alice", AssignToUserID: &f.alice.UserID})
	f.createTask(t, f.admin, service.CreateTaskInput{Title: "admin own"})

	titles := func(p query.Page[*domain.Task]) []string {
		var out []string
		for _, task := range p.Items {
			out = append(out, task.Title)
		}
		return out
	}
	params := query.TaskParams{SortBy: "title"}

	tests := []struct {
		name     string
		actor    domain.Actor
		assigned bool
		want     []string
	}{
		{"user sees own", f.alice, false, []string{"alice own", "for alice"}},
		{"other user sees own", f.bob, false, []string{"bob own"}},
		{"admin sees owned and assigned", f.admin, false, []string{"admin own", "for alice"}},
		{"admin assigned to me", f.admin, true, []string{"admin own"}},
		{"user assigned to me", f.alice, true, []string{"alice own", "for alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := f.tasks.List
			if tt.assigned {
				list = f.tasks.ListAssignedToMe
			}
			page, err := list(ctx, tt.actor, params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(page))
			assert.Equal(t, len(tt.want), page.TotalCount)
		})
	}
}

func TestListTasksPaging(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 45; i++ {
		f.createTask(t, f.alice, service.CreateTaskInput{Title: fmt.Sprintf("task %02d", i)})
	}

	page, err := f.tasks.List(context.Background(), f.alice, query.TaskParams{PageSize: 100})
	require.NoError(t, err)
	assert.Len(t, page.Items, query.MaxTaskPageSize)
	assert.Equal(t, query.MaxTaskPageSize, page.PageSize)
	assert.Equal(t, 45, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages())
	assert.True(t, page.HasNextPage())
	assert.False(t, page.HasPreviousPage())

	page, err = f.tasks.List(context.Background(), f.alice, query.TaskParams{PageSize: 100, PageNumber: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.False(t, page.HasNextPage())
	assert.True(t, page.HasPreviousPage())

	page, err = f.tasks.List(context.Background(), f.alice, query.TaskParams{PageSize: 40, PageNumber: math.MaxInt64 / 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 45, page.TotalCount)
}

func TestGetTaskVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	own := f.createTask(t, f.alice, service.CreateTaskInput{Title: "alice own"})
	assigned := f.createTask(t, f.admin, service.CreateTaskInput{Title: "for alice", AssignToUserID: &f.alice.UserID})

	_, err := f.tasks.Get(ctx, f.bob, own.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "other users' tasks look missing")

	_, err = f.tasks.Get(ctx, f.admin, own.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "admins only see tasks they are party to")

	got, err := f.tasks.Get(ctx, f.admin, assigned.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerName)

	_, err = f.tasks.Get(ctx, f.alice, uuid.New())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestDeletedTasksAreHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, f.alice, service.CreateTaskInput{})

	require.NoError(t, f.tasks.Delete(ctx, f.admin, task.ID))

	_, err := f.tasks.Get(ctx, f.alice, task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	page, err := f.tasks.List(ctx, f.alice, query.TaskParams{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = f.tasks.List(ctx, f.alice, query.TaskParams{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].IsDeleted)
}

func TestTaskLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	remind := t0.Add(2 * time.Minute)
	task := f.createTask(t, f.alice, service.CreateTaskInput{IsNotificationEnabled: true, NotificationAt: &remind})

	marked, err := f.tasks.MarkNotified(ctx, task.ID)
	require.NoError(t, err)
	require.True(t, marked)

	assert.ErrorIs(t, f.tasks.Delete(ctx, f.alice, task.ID), domain.ErrNotFound, "only admins delete")
	assert.ErrorIs(t, f.tasks.Restore(ctx, f.admin, task.ID), domain.ErrNotFound, "restore needs a deleted task")

	f.clock.Advance(time.Minute)
	require.NoError(t, f.tasks.Delete(ctx, f.admin, task.ID))
	assert.ErrorIs(t, f.tasks.Delete(ctx, f.admin, task.ID), domain.ErrNotFound)

	stored, err := f.gw.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)
	require.NotNil(t, stored.DeletedAt)
	assert.Equal(t, t0.Add(time.Minute), *stored.DeletedAt)

	assert.ErrorIs(t, f.tasks.Restore(ctx, f.alice, task.ID), domain.ErrNotFound)
	require.NoError(t, f.tasks.Restore(ctx, f.admin, task.ID))

	stored, err = f.gw.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDeleted)
	assert.Nil(t, stored.DeletedAt)
	assert.False(t, stored.IsNotified, "restore re-arms the reminder")
}

func TestUpdateTaskFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createTag(t, "home")
	task := f.createTask(t, f.alice, service.CreateTaskInput{
		Title:    "draft",
		Priority: ptr(domain.PriorityHigh),
		Tags:     []string{"home"},
	})
	due := t0.Add(72 * time.Hour)

	f.clock.Advance(time.Hour)
	updated, err := f.tasks.Update(ctx, f.alice, service.UpdateTaskInput{
		ID:          task.ID,
		Title:       "final",
		IsCompleted: true,
		DueDate:     &due,
	})
	require.NoError(t, err)

	assert.Equal(t, "final", updated.Title)
	assert.True(t, updated.IsCompleted)
	assert.Equal(t, domain.PriorityHigh, updated.Priority, "nil priority keeps the current one")
	assert.Equal(t, []string{"home"}, updated.TagNames(), "nil tags keep the current ones")
	assert.Equal(t, t0.Add(time.Hour), updated.UpdatedAt)
	assert.Equal(t, int64(2), updated.Version)
	require.NotNil(t, updated.DueDate)
	assert.True(t, due.Equal(*updated.DueDate))

	cleared, err := f.tasks.Update(ctx, f.alice, service.UpdateTaskInput{ID: task.ID, Title: "final", Tags: []string{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags)
}

func TestUpdateTaskPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, f.alice, service.CreateTaskInput{})

	_, err := f.tasks.Update(ctx, f.bob, service.UpdateTaskInput{ID: task.ID, Title: "mine now"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.tasks.Update(ctx, f.admin, service.UpdateTaskInput{ID: task.ID, Title: "not assigned by me"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.tasks.Delete(ctx, f.admin, task.ID))
	_, err = f.tasks.Update(ctx, f.alice, service.UpdateTaskInput{ID: task.ID, Title: "deleted"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateTaskStaleVersion(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, f.alice, service.CreateTaskInput{})

	_, err := f.tasks.Update(context.Background(), f.alice, service.UpdateTaskInput{
		ID:      task.ID,
		Title:   "late write",
		Version: ptr(task.Version + 5),
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAdminEditingAssignedTaskKeepsSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, f.admin, service.CreateTaskInput{AssignToUserID: &f.alice.UserID})
	due := t0.Add(24 * time.Hour)

	_, err := f.tasks.Update(ctx, f.alice, service.UpdateTaskInput{ID: task.ID, Title: "task", DueDate: &due})
	require.NoError(t, err)

	updated, err := f.tasks.Update(ctx, f.admin, service.UpdateTaskInput{ID: task.ID, Title: "renamed by admin"})
	require.NoError(t, err)
	assert.Equal(t, "renamed by admin", updated.Title)
	require.NotNil(t, updated.DueDate, "admin edits ignore schedule fields on others' tasks")
	assert.True(t, due.Equal(*updated.DueDate))
}

func TestReassignTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, f.admin, service.CreateTaskInput{AssignToUserID: &f.alice.UserID})
	remind := t0.Add(3 * time.Minute)

	_, err := f.tasks.Update(ctx, f.alice, service.UpdateTaskInput{
		ID:                    task.ID,
		Title:                 "task",
		DueDate:               ptr(t0.Add(time.Hour)),
		IsNotificationEnabled: true,
		NotificationAt:        &remind,
	})
	require.NoError(t, err)
	marked, err := f.tasks.MarkNotified(ctx, task.ID)
	require.NoError(t, err)
	require.True(t, marked)

	_, err = f.tasks.Update(ctx, f.admin, service.UpdateTaskInput{ID: task.ID, Title: "task", AssignToUserID: ptr(uuid.New())})
	assert.ErrorIs(t, err, domain.ErrAssigneeNotFound)

	moved, err := f.tasks.Update(ctx, f.admin, service.UpdateTaskInput{ID: task.ID, Title: "for bob", AssignToUserID: &f.bob.UserID})
	require.NoError(t, err)

	assert.Equal(t, f.bob.UserID, moved.UserID)
	assert.Equal(t, f.admin.UserID, *moved.AssignedByUserID)
	assert.Equal(t, "bob", moved.OwnerName)
	assert.Equal(t, "for bob", moved.Title)
	assert.Nil(t, moved.DueDate)
	assert.False(t, moved.IsNotificationEnabled)
	assert.Nil(t, moved.NotificationAt)
	assert.False(t, moved.IsNotified)

	_, err = f.tasks.Get(ctx, f.alice, task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.tasks.Get(ctx, f.bob, task.ID)
	assert.NoError(t, err)
}

func TestUpdateRearmsNotification(t *testing.T) {
	remind := t0.Add(3 * time.Minute)

	tests := []struct {
		name         string
		enabled      bool
		at           *time.Time
		wantNotified bool
	}{
		{"same schedule stays notified", true, &remind, true},
		{"moved reminder fires again", true, ptr(t0.Add(10 * time.Minute)), false},
		{"disabled reminder keeps flag", false, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			task := f.createTask(t, f.alice, service.CreateTaskInput{IsNotificationEnabled: true, NotificationAt: &remind})
			marked, err := f.tasks.MarkNotified(ctx, task.ID)
			require.NoError(t, err)
			require.True(t, marked)

			updated, err := f.tasks.Update(ctx, f.alice, service.UpdateTaskInput{
				ID:                    task.ID,
				Title:                 "task",
				IsNotificationEnabled: tt.enabled,
				NotificationAt:        tt.at,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantNotified, updated.IsNotified)
		})
	}
}

func TestDueForNotificationFiresOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead := 5 * time.Minute

	remind := t0.Add(3 * time.Minute)
	task := f.createTask(t, f.alice, service.CreateTaskInput{IsNotificationEnabled: true, NotificationAt: &remind})
	f.createTask(t, f.alice, service.CreateTaskInput{IsNotificationEnabled: true, NotificationAt: ptr(t0.Add(time.Hour))})
	f.createTask(t, f.alice, service.CreateTaskInput{NotificationAt: &remind})

	due, err := f.tasks.DueForNotification(ctx, t0, lead)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, task.ID, due[0].ID)
	assert.Equal(t, "alice", due[0].OwnerName)

	marked, err := f.tasks.MarkNotified(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, marked)

	due, err = f.tasks.DueForNotification(ctx, t0.Add(time.Minute), lead)
	require.NoError(t, err)
	assert.Empty(t, due)

	marked, err = f.tasks.MarkNotified(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, marked)
}
