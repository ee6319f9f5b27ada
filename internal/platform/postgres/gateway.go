package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/tasktrack-api/internal/store"
)

// Gateway implements store.Gateway on PostgreSQL through database/sql.
type Gateway struct {
	db     *sql.DB
	q      DBTX
	logger *slog.Logger
}

var _ store.Gateway = (*Gateway)(nil)

// NewGateway wraps an open database handle. It panics on a nil db.
func NewGateway(db *sql.DB, logger *slog.Logger) *Gateway {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{db: db, q: db, logger: logger.With(slog.String("component", "postgres_gateway"))}
}

// Tasks implements store.Gateway.
func (g *Gateway) Tasks() store.TaskStore {
	return &TaskStore{db: g.q, logger: g.logger}
}

// Subtasks implements store.Gateway.
func (g *Gateway) Subtasks() store.SubtaskStore {
	return &SubtaskStore{db: g.q, logger: g.logger}
}

// Tags implements store.Gateway.
func (g *Gateway) Tags() store.TagStore {
	return &TagStore{db: g.q, logger: g.logger}
}

// Users implements store.Gateway.
func (g *Gateway) Users() store.UserStore {
	return &UserStore{db: g.q, logger: g.logger}
}

// InTx implements store.Gateway. A gateway already bound to a transaction
// runs fn in that same transaction.
func (g *Gateway) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Gateway) error) error {
	if _, inTx := g.q.(*sql.Tx); inTx {
		return fn(ctx, g)
	}
	return store.RunInTransaction(ctx, g.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &Gateway{db: g.db, q: tx, logger: g.logger})
	})
}
