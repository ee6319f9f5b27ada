package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/platform/memory"
	"github.com/phrazzld/tasktrack-api/internal/platform/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	_, l := logger.NewCapture()
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		gw, closeFn, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverMemory}, l)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &memory.Gateway{}, gw)
	})

	t.Run("sqlite", func(t *testing.T) {
		gw, closeFn, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, URL: ":memory:"}, l)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &sqlite.Gateway{}, gw)

		id := uuid.New()
		require.NoError(t, gw.Users().Upsert(ctx, &domain.User{ID: id, UserName: "alice", Roles: []domain.Role{domain.RoleUser}}))
		u, err := gw.Users().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "alice", u.UserName)
	})

	t.Run("postgres with bad url", func(t *testing.T) {
		_, _, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverPostgres, URL: "::not a url"}, l)
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, _, err := Open(ctx, config.DatabaseConfig{Driver: "mongo"}, l)
		assert.ErrorContains(t, err, "unsupported database driver")
	})
}
