package notification_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/clock"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/mocks"
	"github.com/phrazzld/tasktrack-api/internal/notification"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/platform/memory"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func dueTask(title string) *domain.Task {
	at := t0.Add(2 * time.Minute)
	return &domain.Task{
		ID:                    uuid.New(),
		Title:                 title,
		UserID:                uuid.New(),
		IsNotificationEnabled: true,
		NotificationAt:        &at,
	}
}

func newTestScheduler(t *testing.T, src notification.TaskSource, n notification.Notifier, cfg notification.Config) *notification.Scheduler {
	t.Helper()
	s, err := notification.NewScheduler(src, n, clock.NewManual(t0), cfg, nil)
	require.NoError(t, err)
	return s
}

func TestNewSchedulerRequiresSource(t *testing.T) {
	s, err := notification.NewScheduler(nil, nil, nil, notification.Config{}, nil)
	assert.Nil(t, s)
	assert.Error(t, err)
}

func TestTickNotifiesAndMarks(t *testing.T) {
	first, second := dueTask("first"), dueTask("second")

	src := new(mocks.TestifyMockTaskSource)
	src.On("DueForNotification", mock.Anything, t0, 5*time.Minute).Return([]*domain.Task{first, second}, nil)
	src.On("MarkNotified", mock.Anything, first.ID).Return(true, nil)
	src.On("MarkNotified", mock.Anything, second.ID).Return(false, nil)

	n := new(mocks.TestifyMockNotifier)
	n.On("Notify", mock.Anything, first).Return(nil)
	n.On("Notify", mock.Anything, second).Return(nil)

	marked, err := newTestScheduler(t, src, n, notification.Config{LeadTime: 5 * time.Minute}).Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, marked, "a task that changed before marking is not counted")
	src.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestTickContinuesPastFailures(t *testing.T) {
	undeliverable, unmarkable, ok := dueTask("a"), dueTask("b"), dueTask("c")

	src := new(mocks.TestifyMockTaskSource)
	src.On("DueForNotification", mock.Anything, t0, notification.DefaultLeadTime).
		Return([]*domain.Task{undeliverable, unmarkable, ok}, nil)
	src.On("MarkNotified", mock.Anything, unmarkable.ID).Return(false, errors.New("db down"))
	src.On("MarkNotified", mock.Anything, ok.ID).Return(true, nil)

	n := new(mocks.TestifyMockNotifier)
	n.On("Notify", mock.Anything, undeliverable).Return(errors.New("smtp refused"))
	n.On("Notify", mock.Anything, unmarkable).Return(nil)
	n.On("Notify", mock.Anything, ok).Return(nil)

	marked, err := newTestScheduler(t, src, n, notification.Config{LeadTime: notification.DefaultLeadTime}).Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	src.AssertNotCalled(t, "MarkNotified", mock.Anything, undeliverable.ID)
	src.AssertExpectations(t)
}

func TestTickReportsSourceError(t *testing.T) {
	src := new(mocks.TestifyMockTaskSource)
	src.On("DueForNotification", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	_, err := newTestScheduler(t, src, new(mocks.TestifyMockNotifier), notification.Config{}).Tick(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestTickStopsOnCancelledContext(t *testing.T) {
	src := new(mocks.TestifyMockTaskSource)
	src.On("DueForNotification", mock.Anything, mock.Anything, mock.Anything).Return([]*domain.Task{dueTask("a")}, nil)
	n := new(mocks.TestifyMockNotifier)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestScheduler(t, src, n, notification.Config{}).Tick(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestLogNotifier(t *testing.T) {
	buf, log := logger.NewCapture()
	task := dueTask("water plants")
	task.OwnerName = "alice"

	require.NoError(t, notification.NewLogNotifier(log).Notify(context.Background(), task))

	entries := buf.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "task reminder", entries[0]["msg"])
	assert.Equal(t, "alice", entries[0]["owner_name"])
	assert.Equal(t, task.ID.String(), entries[0]["task_id"])
	assert.Contains(t, entries[0], "notification_at")
	assert.NotContains(t, entries[0], "due_date")
}

func TestReminderFiresOnceAcrossTicks(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(t0)
	gw := memory.NewGateway()
	owner := domain.NewActor(uuid.New(), domain.RoleUser)
	require.NoError(t, gw.Users().Upsert(ctx, &domain.User{ID: owner.UserID, UserName: "alice"}))

	tasks, err := service.NewTaskService(gw, clk, nil)
	require.NoError(t, err)
	remind := t0.Add(3 * time.Minute)
	task, err := tasks.Create(ctx, owner, service.CreateTaskInput{
		Title:                 "call the bank",
		IsNotificationEnabled: true,
		NotificationAt:        &remind,
	})
	require.NoError(t, err)

	buf, log := logger.NewCapture()
	s, err := notification.NewScheduler(tasks, notification.NewLogNotifier(log), clk,
		notification.Config{Interval: time.Minute, LeadTime: 5 * time.Minute}, log)
	require.NoError(t, err)

	marked, err := s.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	assert.Contains(t, buf.Messages(), "task reminder")

	clk.Advance(time.Minute)
	marked, err = s.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, marked)

	stored, err := gw.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsNotified)
}

func TestStartRunsTicksUntilStopped(t *testing.T) {
	ticked := make(chan struct{}, 1)
	src := new(mocks.TestifyMockTaskSource)
	src.On("DueForNotification", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case ticked <- struct{}{}:
			default:
			}
		}).
		Return([]*domain.Task{}, nil)

	s := newTestScheduler(t, src, new(mocks.TestifyMockNotifier), notification.Config{Interval: time.Second})
	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "second start is rejected")

	select {
	case <-ticked:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler never ticked")
	}

	s.Stop()
	s.Stop()
	assert.Error(t, s.Start(), "stopped schedulers stay stopped")
}

func TestStopCancelsTickInFlight(t *testing.T) {
	entered := make(chan struct{})
	var once sync.Once
	var sawCancel bool

	src := new(mocks.TestifyMockTaskSource)
	src.On("DueForNotification", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			once.Do(func() { close(entered) })
			<-ctx.Done()
			sawCancel = true
		}).
		Return(nil, context.Canceled)

	s := newTestScheduler(t, src, new(mocks.TestifyMockNotifier), notification.Config{Interval: time.Second})
	require.NoError(t, s.Start())

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler never ticked")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.True(t, sawCancel)
}
