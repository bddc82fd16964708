// File: internal/app/server_test.go
package app

import (
	"testing"

	"campus_lostfound_backend/internal/platform/database/dbtest"

	"github.com/stretchr/testify/assert"
)

func TestModels_MigrateCleanly(t *testing.T) {
	db := dbtest.Open(t, Models()...)

	for _, table := range []string{
		"users", "items", "claims",
		"connection_requests", "connection_messages",
		"chats", "messages", "notifications",
	} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
	assert.True(t, db.Migrator().HasIndex("connection_requests", "idx_connection_triple"))
	assert.True(t, db.Migrator().HasIndex("chats", "idx_chat_pair"))
}
