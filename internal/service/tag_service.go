package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/authz"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// TagService manages the shared tag vocabulary. Any authenticated actor may
// read tags; only admins may change them.
type TagService interface {
	List(ctx context.Context, actor domain.Actor) ([]*domain.Tag, error)
	Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Tag, error)
	Create(ctx context.Context, actor domain.Actor, name string) (*domain.Tag, error)
	Rename(ctx context.Context, actor domain.Actor, id uuid.UUID, name string) (*domain.Tag, error)

	// Delete fails with domain.ErrTagInUse while any task carries the tag,
	// including soft-deleted tasks.
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
}

type tagServiceImpl struct {
	gw     store.Gateway
	logger *slog.Logger
}

var _ TagService = (*tagServiceImpl)(nil)

// NewTagService creates a TagService.
func NewTagService(gw store.Gateway, logger *slog.Logger) (TagService, error) {
	if gw == nil {
		return nil, domain.NewValidationError("gateway", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &tagServiceImpl{
		gw:     gw,
		logger: logger.With(slog.String("component", "tag_service")),
	}, nil
}

func (s *tagServiceImpl) List(ctx context.Context, actor domain.Actor) ([]*domain.Tag, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	tags, err := s.gw.Tags().List(ctx)
	if err != nil {
		return nil, mapStoreError("list tags", err)
	}
	return tags, nil
}

func (s *tagServiceImpl) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Tag, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	tag, err := s.gw.Tags().GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError("get tag", err)
	}
	return tag, nil
}

func (s *tagServiceImpl) Create(ctx context.Context, actor domain.Actor, name string) (*domain.Tag, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	tag, err := domain.NewTag(name)
	if err != nil {
		return nil, err
	}
	if err := s.gw.Tags().Create(ctx, tag); err != nil {
		return nil, mapStoreError("create tag", err)
	}

	log.Info("tag created",
		slog.String("tag_id", tag.ID.String()),
		slog.String("name", tag.Name))
	return tag, nil
}

func (s *tagServiceImpl) Rename(ctx context.Context, actor domain.Actor, id uuid.UUID, name string) (*domain.Tag, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	var renamed *domain.Tag
	err := s.gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		tag, err := tx.Tags().GetByID(ctx, id)
		if err != nil {
			return err
		}
		tag.Name = domain.NormalizeTagName(name)
		if err := tag.Validate(); err != nil {
			return err
		}
		if err := tx.Tags().Update(ctx, tag); err != nil {
			return err
		}
		renamed = tag
		return nil
	})
	if err != nil {
		return nil, mapStoreError("rename tag", err)
	}
	return renamed, nil
}

func (s *tagServiceImpl) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := s.authorize(actor); err != nil {
		return err
	}

	err := s.gw.InTx(ctx, func(ctx context.Context, tx store.Gateway) error {
		if _, err := tx.Tags().GetByID(ctx, id); err != nil {
			return err
		}
		inUse, err := tx.Tags().IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return domain.ErrTagInUse
		}
		return tx.Tags().Delete(ctx, id)
	})
	if err != nil {
		log.Debug("tag delete rejected",
			slog.String("tag_id", id.String()),
			slog.String("error", err.Error()))
		return mapStoreError("delete tag", err)
	}

	log.Info("tag deleted", slog.String("tag_id", id.String()))
	return nil
}

func (s *tagServiceImpl) authorize(actor domain.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if !authz.CanMutateTags(actor) {
		return domain.ErrNotPermitted
	}
	return nil
}
