// Package dbtest opens throwaway SQLite databases for repository and handler tests.
package dbtest

import (
	"fmt"
	"testing"

	"campus_lostfound_backend/internal/platform/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Open returns an isolated in-memory database migrated with models.
// The database is closed when the test finishes.
func Open(tb testing.TB, models ...interface{}) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := database.OpenSQLite(dsn)
	require.NoError(tb, err)
	require.NoError(tb, database.AutoMigrate(db, models...))
	tb.Cleanup(func() { database.CloseGORMDB(db, zap.NewNop()) })
	return db
}
