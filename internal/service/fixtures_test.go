package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/clock"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/memory"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

// fixture wires the services to one in-memory gateway with three known
// users: an admin and two regular users.
type fixture struct {
	gw       *memory.Gateway
	clock    *clock.Manual
	tasks    service.TaskService
	subtasks service.SubtaskService
	tags     service.TagService

	admin domain.Actor
	alice domain.Actor
	bob   domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gw:    memory.NewGateway(),
		clock: clock.NewManual(t0),
		admin: domain.NewActor(uuid.New(), domain.RoleAdmin),
		alice: domain.NewActor(uuid.New(), domain.RoleUser),
		bob:   domain.NewActor(uuid.New(), domain.RoleUser),
	}

	ctx := context.Background()
	for name, a := range map[string]domain.Actor{"root": f.admin, "alice": f.alice, "bob": f.bob} {
		require.NoError(t, f.gw.Users().Upsert(ctx, &domain.User{ID: a.UserID, UserName: name, Roles: a.Roles}))
	}

	var err error
	f.tasks, err = service.NewTaskService(f.gw, f.clock, nil)
	require.NoError(t, err)
	f.subtasks, err = service.NewSubtaskService(f.gw, f.clock, nil)
	require.NoError(t, err)
	f.tags, err = service.NewTagService(f.gw, nil)
	require.NoError(t, err)
	return f
}

func (f *fixture) createTask(t *testing.T, actor domain.Actor, in service.CreateTaskInput) *domain.Task {
	t.Helper()
	if in.Title == "" {
		in.Title = "task"
	}
	task, err := f.tasks.Create(context.Background(), actor, in)
	require.NoError(t, err)
	return task
}

func (f *fixture) createTag(t *testing.T, name string) *domain.Tag {
	t.Helper()
	tag, err := f.tags.Create(context.Background(), f.admin, name)
	require.NoError(t, err)
	return tag
}

func ptr[T any](v T) *T { return &v }
