package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"github.com/phrazzld/tasktrack-api/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(context.Background(), MemoryDSN, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestGatewayConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Gateway {
		return NewGateway(openTestDB(t), nil)
	})
}

func TestForeignKeysAreEnforced(t *testing.T) {
	db := openTestDB(t)

	err := db.Create(&taskTagRow{TaskID: uuid.NewString(), TagID: uuid.NewString()}).Error

	assert.ErrorIs(t, err, gorm.ErrForeignKeyViolated)
}

func TestDeletingTaskRowCascadesToLinksAndSubtasks(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	gw := NewGateway(db, nil)

	tag, err := domain.NewTag("cleanup")
	require.NoError(t, err)
	require.NoError(t, gw.Tags().Create(ctx, tag))

	task := storetest.NewTask(uuid.New(), "purged", 0)
	task.Tags = []domain.Tag{*tag}
	require.NoError(t, gw.Tasks().Create(ctx, task))
	require.NoError(t, gw.Subtasks().Create(ctx, storetest.NewSubtask(task, "child", 0)))

	require.NoError(t, db.Where("id = ?", task.ID.String()).Delete(&taskRow{}).Error)

	var links, subtasks int64
	require.NoError(t, db.Model(&taskTagRow{}).Count(&links).Error)
	require.NoError(t, db.Model(&subtaskRow{}).Count(&subtasks).Error)
	assert.Zero(t, links)
	assert.Zero(t, subtasks)

	require.NoError(t, gw.Tags().Delete(ctx, tag.ID), "tag is free once its task row is gone")
}

func TestOpenCreatesFileAndIsReopenable(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "nested", "tasks.db")

	db, err := Open(ctx, dsn, nil)
	require.NoError(t, err)
	user := &domain.User{ID: uuid.New(), UserName: "sam", Roles: []domain.Role{domain.RoleUser}}
	require.NoError(t, NewGateway(db, nil).Users().Upsert(ctx, user))
	require.NoError(t, Close(db))

	reopened, err := Open(ctx, dsn, nil)
	require.NoError(t, err)
	defer func() { _ = Close(reopened) }()

	got, err := NewGateway(reopened, nil).Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "sam", got.UserName)
}

func TestWithForeignKeys(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{":memory:", ":memory:?_foreign_keys=on"},
		{"file:tasks.db?cache=shared", "file:tasks.db?cache=shared&_foreign_keys=on"},
		{"tasks.db?_foreign_keys=off", "tasks.db?_foreign_keys=off"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, withForeignKeys(tt.dsn))
		})
	}
}
