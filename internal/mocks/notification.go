package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// TestifyMockTaskSource is a testify mock of notification.TaskSource.
type TestifyMockTaskSource struct {
	mock.Mock
}

// DueForNotification is a mock implementation of notification.TaskSource.DueForNotification
func (m *TestifyMockTaskSource) DueForNotification(
	ctx context.Context,
	now time.Time,
	lead time.Duration,
) ([]*domain.Task, error) {
	args := m.Called(ctx, now, lead)
	if tasks, ok := args.Get(0).([]*domain.Task); ok {
		return tasks, args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkNotified is a mock implementation of notification.TaskSource.MarkNotified
func (m *TestifyMockTaskSource) MarkNotified(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// TestifyMockNotifier is a testify mock of notification.Notifier.
type TestifyMockNotifier struct {
	mock.Mock
}

// Notify is a mock implementation of notification.Notifier.Notify
func (m *TestifyMockNotifier) Notify(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}
