// Package notification runs the recurring job that reminds task owners when
// a task's notification time comes up, and marks each task notified once.
package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
)

// TaskSource selects tasks due for a reminder and records delivery.
// service.TaskService satisfies it.
type TaskSource interface {
	DueForNotification(ctx context.Context, now time.Time, lead time.Duration) ([]*domain.Task, error)
	MarkNotified(ctx context.Context, id uuid.UUID) (bool, error)
}

// Notifier delivers one reminder.
type Notifier interface {
	Notify(ctx context.Context, task *domain.Task) error
}

// LogNotifier delivers reminders as structured log records.
type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With(slog.String("component", "notifier"))}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, n.logger)

	attrs := []any{
		slog.String("task_id", task.ID.String()),
		slog.String("title", task.Title),
		slog.String("owner_id", task.UserID.String()),
		slog.String("owner_name", task.OwnerName),
	}
	if task.NotificationAt != nil {
		attrs = append(attrs, slog.Time("notification_at", *task.NotificationAt))
	}
	if task.DueDate != nil {
		attrs = append(attrs, slog.Time("due_date", *task.DueDate))
	}
	log.Info("task reminder", attrs...)
	return nil
}
