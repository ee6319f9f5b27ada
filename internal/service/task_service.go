package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/authz"
	"github.com/phrazzld/tasktrack-api/internal/clock"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/query"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// TaskService provides task operations on behalf of an actor.
type TaskService interface {
	// List returns the tasks the actor may see: their own, plus for admins
	// the ones they assigned.
	List(ctx context.Context, actor domain.Actor, params query.TaskParams) (query.Page[*domain.Task], error)

	// ListAssignedToMe returns only tasks owned by the actor.
	ListAssignedToMe(ctx context.Context, actor domain.Actor, params query.TaskParams) (query.Page[*domain.Task], error)

	// Get returns a single live task the actor is a party to.
	Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Task, error)

	Create(ctx context.Context, actor domain.Actor, in CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, actor domain.Actor, in UpdateTaskInput) (*domain.Task, error)

	// Delete and Restore are admin only.
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	Restore(ctx context.Context, actor domain.Actor, id uuid.UUID) error

	// DueForNotification returns tasks whose reminder falls in [now, now+lead].
	DueForNotification(ctx context.Context, now time.Time, lead time.Duration) ([]*domain.Task, error)

	// MarkNotified flags a task as reminded. It reports false when the task
	// stopped being notifiable since it was selected.
	MarkNotified(ctx context.Context, id uuid.UUID) (bool, error)
}

type taskServiceImpl struct {
	gw     store.Gateway
	clock  clock.Clock
	logger *slog.Logger
}

var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a TaskService. A nil clock uses the system clock.
func NewTaskService(gw store.Gateway, clk clock.Clock, logger *slog.Logger) (TaskService, error) {
	if gw == nil {
		return nil, domain.NewValidationError("gateway", "cannot be nil", domain.ErrValidation)
	}
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		gw:     gw,
		clock:  clk,
		logger: logger.With(slog.String("component", "task_service")),
	}, nil
}

func (s *taskServiceImpl) List(
	ctx context.Context,
	actor domain.Actor,
	params query.TaskParams,
) (query.Page[*domain.Task], error) {
	return s.list(ctx, "list tasks", actor, params, authz.TaskListScope(actor))
}

func (s *taskServiceImpl) ListAssignedToMe(
	ctx context.Context,
	actor domain.Actor,
	params query.TaskParams,
) (query.Page[*domain.Task], error) {
	return s.list(ctx, "list assigned tasks", actor, params, authz.AssignedToMeScope(actor))
}

func (s *taskServiceImpl) list(
	ctx context.Context,
	op string,
	actor domain.Actor,
	params query.TaskParams,
	scope query.Predicate,
) (query.Page[*domain.Task], error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := actor.Validate(); err != nil {
		return query.Page[*domain.Task]{}, err
	}

	spec := params.Spec().Where(scope)
	tasks, total, err := s.gw.Tasks().List(ctx, spec)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return query.Page[*domain.Task]{}, mapStoreError(op, err)
	}

	newNameResolver(s.gw.Users(), log).tasks(ctx, tasks...)
	log.Debug("listed tasks",
		slog.String("operation", op),
		slog.Int("count", len(tasks)),
		slog.Int("total", total))
	return query.NewPage(tasks, total, spec.Window), nil
}

func (s *taskServiceImpl) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	task, err := s.gw.Tasks().GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError("get task", err)
	}
	if !authz.CanReadTask(actor, task) {
		log.Debug("task hidden from actor",
			slog.String("task_id", id.String()),
			slog.String("actor_id", actor.UserID.String()))
		return nil, domain.ErrTaskNotFound
	}

	newNameResolver(s.gw.Users(), log).tasks(ctx, task)
	return task, nil
}

func (s *taskServiceImpl) Create(ctx context.Context, actor domain.Actor, in CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	task := &domain.Task{
		ID:                    uuid.New(),
		Title:                 in.Title,
		Description:           in.Description,
		DueDate:               utcPtr(in.DueDate),
		CreatedAt:             now,
		UpdatedAt:             now,
		UserID:                actor.UserID,
		Priority:              priorityOr(in.Priority, domain.DefaultPriority),
		IsNotificationEnabled: in.IsNotificationEnabled,
		NotificationAt:        utcPtr(in.NotificationAt),
		Version:               1,
	}

	// Admins are recorded as the assigner even for their own tasks.
	var target *uuid.UUID
	if actor.IsAdmin() {
		assigner := actor.UserID
		task.AssignedByUserID = &assigner
		if in.AssignToUserID != nil && *in.AssignToUserID != actor.UserID {
			target = in.AssignToUserID
			task.UserID = *target
			task.ClearSchedule()
		}
	}

	err := s.gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		if target != nil {
			if err := requireAssignee(ctx, tx, *target); err != nil {
				return err
			}
		}
		tags, err := resolveTags(ctx, tx.Tags(), in.Tags)
		if err != nil {
			return err
		}
		task.Tags = tags

		if err := task.Validate(); err != nil {
			return err
		}
		return tx.Tasks().Create(ctx, task)
	})
	if err != nil {
		log.Debug("task create rejected", slog.String("error", err.Error()))
		return nil, mapStoreError("create task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.UserID.String()),
		slog.Bool("assigned", target != nil))
	newNameResolver(s.gw.Users(), log).tasks(ctx, task)
	return task, nil
}

func (s *taskServiceImpl) Update(ctx context.Context, actor domain.Actor, in UpdateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	var updated *domain.Task
	err := s.gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		current, err := tx.Tasks().GetByID(ctx, in.ID)
		if err != nil {
			return err
		}
		if !authz.CanUpdateTask(actor, current) {
			return domain.ErrTaskNotFound
		}
		if in.Version != nil && *in.Version != current.Version {
			return domain.ErrConcurrentUpdate
		}

		next := current.Clone()
		next.Title = in.Title
		next.Description = in.Description
		next.IsCompleted = in.IsCompleted
		next.Priority = priorityOr(in.Priority, current.Priority)
		if in.Tags != nil {
			if next.Tags, err = resolveTags(ctx, tx.Tags(), in.Tags); err != nil {
				return err
			}
		}

		switch {
		case actor.IsAdmin() && in.AssignToUserID != nil && *in.AssignToUserID != current.UserID:
			if err := requireAssignee(ctx, tx, *in.AssignToUserID); err != nil {
				return err
			}
			assigner := actor.UserID
			next.UserID = *in.AssignToUserID
			next.AssignedByUserID = &assigner
			next.ClearSchedule()
			next.IsNotified = false
			log.Info("task reassigned",
				slog.String("task_id", current.ID.String()),
				slog.String("from", current.UserID.String()),
				slog.String("to", next.UserID.String()))

		case !actor.IsAdmin() || current.UserID == actor.UserID:
			// An admin editing someone else's task cannot move its schedule.
			next.DueDate = utcPtr(in.DueDate)
			next.IsNotificationEnabled = in.IsNotificationEnabled
			next.NotificationAt = utcPtr(in.NotificationAt)
			if rearms(current, next) {
				next.IsNotified = false
			}
		}

		next.UpdatedAt = now
		if err := next.Validate(); err != nil {
			return err
		}
		if err := tx.Tasks().Update(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		log.Debug("task update rejected",
			slog.String("task_id", in.ID.String()),
			slog.String("error", err.Error()))
		return nil, mapStoreError("update task", err)
	}

	newNameResolver(s.gw.Users(), log).tasks(ctx, updated)
	return updated, nil
}

// rearms reports whether an already fired reminder must fire again because
// its schedule changed while staying enabled.
func rearms(before, after *domain.Task) bool {
	if !after.IsNotificationEnabled || !before.IsNotified {
		return false
	}
	if before.IsNotificationEnabled != after.IsNotificationEnabled {
		return true
	}
	return !sameInstant(before.NotificationAt, after.NotificationAt)
}

func (s *taskServiceImpl) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	return s.lifecycle(ctx, "delete task", actor, id, (*domain.Task).SoftDelete)
}

func (s *taskServiceImpl) Restore(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	return s.lifecycle(ctx, "restore task", actor, id, (*domain.Task).Restore)
}

func (s *taskServiceImpl) lifecycle(
	ctx context.Context,
	op string,
	actor domain.Actor,
	id uuid.UUID,
	transition func(*domain.Task, time.Time) error,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := actor.Validate(); err != nil {
		return err
	}
	if !authz.CanManageTaskLifecycle(actor) {
		log.Debug("lifecycle change denied",
			slog.String("operation", op),
			slog.String("task_id", id.String()))
		return domain.ErrTaskNotFound
	}

	now := s.now()
	err := s.gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		task, err := tx.Tasks().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := transition(task, now); err != nil {
			return err
		}
		return tx.Tasks().Update(ctx, task)
	})
	if err != nil {
		return mapStoreError(op, err)
	}

	log.Info("task lifecycle changed",
		slog.String("operation", op),
		slog.String("task_id", id.String()))
	return nil
}

func (s *taskServiceImpl) DueForNotification(
	ctx context.Context,
	now time.Time,
	lead time.Duration,
) ([]*domain.Task, error) {
	tasks, _, err := s.gw.Tasks().List(ctx, query.DueReminders(now.UTC(), lead))
	if err != nil {
		return nil, mapStoreError("select due reminders", err)
	}
	newNameResolver(s.gw.Users(), logger.FromContextOrDefault(ctx, s.logger)).tasks(ctx, tasks...)
	return tasks, nil
}

func (s *taskServiceImpl) MarkNotified(ctx context.Context, id uuid.UUID) (bool, error) {
	marked, err := s.gw.Tasks().MarkNotified(ctx, id)
	if err != nil {
		return false, mapStoreError("mark notified", err)
	}
	return marked, nil
}

// now is truncated to the precision every backend can store.
func (s *taskServiceImpl) now() time.Time {
	return truncate(s.clock.Now())
}

func requireAssignee(ctx context.Context, tx store.Gateway, id uuid.UUID) error {
	if _, err := tx.Users().GetByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return domain.ErrAssigneeNotFound
		}
		return err
	}
	return nil
}
