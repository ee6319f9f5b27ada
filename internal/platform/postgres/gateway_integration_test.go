//go:build integration

package postgres_test

import (
	"testing"

	"github.com/phrazzld/tasktrack-api/internal/platform/postgres"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"github.com/phrazzld/tasktrack-api/internal/store/storetest"
	"github.com/phrazzld/tasktrack-api/internal/testdb"
)

func TestGatewayConformance(t *testing.T) {
	db := testdb.Open(t)

	storetest.Run(t, func(t *testing.T) store.Gateway {
		testdb.Truncate(t, db)
		return postgres.NewGateway(db, nil)
	})
}
