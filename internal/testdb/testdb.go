//go:build integration

// Package testdb opens and resets the PostgreSQL database used by
// integration tests. Tests are skipped when DATABASE_URL is unset.
package testdb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds setup and cleanup statements.
const TestTimeout = 10 * time.Second

// GetTestDatabaseURL returns DATABASE_URL, falling back to
// TASKTRACK_DATABASE_URL.
func GetTestDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return os.Getenv("TASKTRACK_DATABASE_URL")
}

// Open connects to the test database, applies migrations and registers a
// cleanup that empties every table. It skips t if no database is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := GetTestDatabaseURL()
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping database test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, closeFn, err := postgres.Open(ctx, url, 4, nil)
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, postgres.Migrate(ctx, db, nil), "failed to migrate test database")

	Truncate(t, db)
	t.Cleanup(func() {
		Truncate(t, db)
		closeFn()
	})
	return db
}

// Truncate removes every row from the application tables.
func Truncate(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	_, err := db.ExecContext(ctx, `TRUNCATE task_tags, subtasks, tags, tasks, users`)
	require.NoError(t, err, "failed to truncate tables")
}
