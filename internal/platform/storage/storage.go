// Package storage opens the store.Gateway selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/platform/memory"
	"github.com/phrazzld/tasktrack-api/internal/platform/postgres"
	"github.com/phrazzld/tasktrack-api/internal/platform/sqlite"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// Open connects the storage backend named by cfg.Driver. The returned
// close function releases its connections and is never nil.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (store.Gateway, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, closeDB, err := postgres.Open(ctx, cfg.URL, cfg.MaxConns, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, db, logger); err != nil {
				closeDB()
				return nil, nil, err
			}
		}
		return postgres.NewGateway(db, logger), closeDB, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.URL, logger)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := sqlite.Close(db); err != nil {
				logger.Error("failed to close sqlite database", slog.String("error", err.Error()))
			}
		}
		return sqlite.NewGateway(db, logger), closeDB, nil

	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on shutdown")
		return memory.NewGateway(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
