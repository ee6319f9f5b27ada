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

// SubtaskService provides subtask operations scoped to a parent task.
type SubtaskService interface {
	List(ctx context.Context, actor domain.Actor, parentID uuid.UUID, params query.SubtaskParams) (query.Page[*domain.Subtask], error)
	Get(ctx context.Context, actor domain.Actor, parentID, id uuid.UUID) (*domain.Subtask, error)

	// Create adds a subtask owned by the actor. Only the owner of the parent
	// task may.
	Create(ctx context.Context, actor domain.Actor, in CreateSubtaskInput) (*domain.Subtask, error)

	// Update, Delete and Restore are limited to the subtask's owner.
	Update(ctx context.Context, actor domain.Actor, in UpdateSubtaskInput) (*domain.Subtask, error)
	Delete(ctx context.Context, actor domain.Actor, parentID, id uuid.UUID) error
	Restore(ctx context.Context, actor domain.Actor, parentID, id uuid.UUID) error
}

type subtaskServiceImpl struct {
	gw     store.Gateway
	clock  clock.Clock
	logger *slog.Logger
}

var _ SubtaskService = (*subtaskServiceImpl)(nil)

// NewSubtaskService creates a SubtaskService. A nil clock uses the system
// clock.
func NewSubtaskService(gw store.Gateway, clk clock.Clock, logger *slog.Logger) (SubtaskService, error) {
	if gw == nil {
		return nil, domain.NewValidationError("gateway", "cannot be nil", domain.ErrValidation)
	}
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &subtaskServiceImpl{
		gw:     gw,
		clock:  clk,
		logger: logger.With(slog.String("component", "subtask_service")),
	}, nil
}

func (s *subtaskServiceImpl) List(
	ctx context.Context,
	actor domain.Actor,
	parentID uuid.UUID,
	params query.SubtaskParams,
) (query.Page[*domain.Subtask], error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := actor.Validate(); err != nil {
		return query.Page[*domain.Subtask]{}, err
	}

	spec := params.Spec().Where(authz.SubtaskListScope(actor, parentID)...)
	subtasks, total, err := s.gw.Subtasks().List(ctx, spec)
	if err != nil {
		log.Error("failed to list subtasks",
			slog.String("parent_task_id", parentID.String()),
			slog.String("error", err.Error()))
		return query.Page[*domain.Subtask]{}, mapStoreError("list subtasks", err)
	}
	return query.NewPage(subtasks, total, spec.Window), nil
}

func (s *subtaskServiceImpl) Get(ctx context.Context, actor domain.Actor, parentID, id uuid.UUID) (*domain.Subtask, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	subtask, err := s.gw.Subtasks().GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError("get subtask", err)
	}
	if subtask.ParentTaskID != parentID {
		return nil, domain.ErrSubtaskNotFound
	}

	parentDeleted, err := s.parentDeleted(ctx, s.gw, parentID)
	if err != nil {
		return nil, mapStoreError("get subtask", err)
	}
	if !authz.CanReadSubtask(actor, subtask, parentDeleted) {
		return nil, domain.ErrSubtaskNotFound
	}
	return subtask, nil
}

// parentDeleted treats a vanished parent as deleted.
func (s *subtaskServiceImpl) parentDeleted(ctx context.Context, gw store.Gateway, parentID uuid.UUID) (bool, error) {
	parent, err := gw.Tasks().GetByID(ctx, parentID)
	if errors.Is(err, store.ErrTaskNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return parent.IsDeleted, nil
}

func (s *subtaskServiceImpl) Create(ctx context.Context, actor domain.Actor, in CreateSubtaskInput) (*domain.Subtask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	now := truncate(s.clock.Now())
	subtask := &domain.Subtask{
		ID:           uuid.New(),
		Title:        in.Title,
		Description:  in.Description,
		DueDate:      utcPtr(in.DueDate),
		CreatedAt:    now,
		UpdatedAt:    now,
		UserID:       actor.UserID,
		ParentTaskID: in.ParentTaskID,
		Priority:     priorityOr(in.Priority, domain.DefaultPriority),
		Version:      1,
	}

	err := s.gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		parent, err := tx.Tasks().GetByID(ctx, in.ParentTaskID)
		if err != nil {
			return err
		}
		if !authz.CanCreateSubtaskUnder(actor, parent) {
			return domain.ErrTaskNotFound
		}
		if err := subtask.Validate(); err != nil {
			return err
		}
		return tx.Subtasks().Create(ctx, subtask)
	})
	if err != nil {
		return nil, mapStoreError("create subtask", err)
	}

	log.Info("subtask created",
		slog.String("subtask_id", subtask.ID.String()),
		slog.String("parent_task_id", subtask.ParentTaskID.String()))
	return subtask, nil
}

func (s *subtaskServiceImpl) Update(ctx context.Context, actor domain.Actor, in UpdateSubtaskInput) (*domain.Subtask, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	now := truncate(s.clock.Now())
	var updated *domain.Subtask
	err := s.gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		current, err := s.owned(ctx, tx, actor, in.ParentTaskID, in.ID)
		if err != nil {
			return err
		}
		if current.IsDeleted {
			return domain.ErrSubtaskNotFound
		}
		if in.Version != nil && *in.Version != current.Version {
			return domain.ErrConcurrentUpdate
		}

		next := current.Clone()
		next.Title = in.Title
		next.Description = in.Description
		next.IsCompleted = in.IsCompleted
		next.DueDate = utcPtr(in.DueDate)
		next.Priority = priorityOr(in.Priority, current.Priority)
		next.UpdatedAt = now
		if err := next.Validate(); err != nil {
			return err
		}
		if err := tx.Subtasks().Update(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, mapStoreError("update subtask", err)
	}
	return updated, nil
}

func (s *subtaskServiceImpl) Delete(ctx context.Context, actor domain.Actor, parentID, id uuid.UUID) error {
	return s.lifecycle(ctx, "delete subtask", actor, parentID, id, (*domain.Subtask).SoftDelete)
}

func (s *subtaskServiceImpl) Restore(ctx context.Context, actor domain.Actor, parentID, id uuid.UUID) error {
	return s.lifecycle(ctx, "restore subtask", actor, parentID, id, (*domain.Subtask).Restore)
}

func (s *subtaskServiceImpl) lifecycle(
	ctx context.Context,
	op string,
	actor domain.Actor,
	parentID, id uuid.UUID,
	transition func(*domain.Subtask, time.Time) error,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := actor.Validate(); err != nil {
		return err
	}

	now := truncate(s.clock.Now())
	err := s.gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		subtask, err := s.owned(ctx, tx, actor, parentID, id)
		if err != nil {
			return err
		}
		if err := transition(subtask, now); err != nil {
			return err
		}
		return tx.Subtasks().Update(ctx, subtask)
	})
	if err != nil {
		return mapStoreError(op, err)
	}

	log.Info("subtask lifecycle changed",
		slog.String("operation", op),
		slog.String("subtask_id", id.String()))
	return nil
}

// owned loads a subtask under parentID that the actor may modify.
func (s *subtaskServiceImpl) owned(
	ctx context.Context,
	tx store.Gateway,
	actor domain.Actor,
	parentID, id uuid.UUID,
) (*domain.Subtask, error) {
	subtask, err := tx.Subtasks().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if subtask.ParentTaskID != parentID || !authz.CanModifySubtask(actor, subtask) {
		return nil, domain.ErrSubtaskNotFound
	}
	return subtask, nil
}
