package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktrack-api/internal/store"
	"gorm.io/gorm"
)

// Gateway implements store.Gateway on a gorm SQLite handle.
type Gateway struct {
	db     *gorm.DB
	inTx   bool
	logger *slog.Logger
}

var _ store.Gateway = (*Gateway)(nil)

// NewGateway wraps an open handle. It panics on a nil db.
func NewGateway(db *gorm.DB, logger *slog.Logger) *Gateway {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{db: db, logger: logger.With(slog.String("component", "sqlite_gateway"))}
}

// Tasks implements store.Gateway.
func (g *Gateway) Tasks() store.TaskStore { return &TaskStore{db: g.db, logger: g.logger} }

// Subtasks implements store.Gateway.
func (g *Gateway) Subtasks() store.SubtaskStore { return &SubtaskStore{db: g.db, logger: g.logger} }

// Tags implements store.Gateway.
func (g *Gateway) Tags() store.TagStore { return &TagStore{db: g.db, logger: g.logger} }

// Users implements store.Gateway.
func (g *Gateway) Users() store.UserStore { return &UserStore{db: g.db} }

// InTx implements store.Gateway. Nested calls join the enclosing
// transaction.
func (g *Gateway) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Gateway) error) error {
	if g.inTx {
		return fn(ctx, g)
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Gateway{db: tx, inTx: true, logger: g.logger})
	})
}

// mapError translates gorm's portable errors into store errors. Constraint
// names are not reported by SQLite, so callers that care which constraint
// failed check beforehand.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: foreign key violation: %w", store.ErrInvalidEntity, err)
	}
	return err
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
}
