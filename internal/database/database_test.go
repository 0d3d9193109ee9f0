package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, NewMigrator(db).Migrate(context.Background()))
	return db
}

func TestMigrate_CreatesSchema(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"personas", "conversation_messages", "conversation_summaries", "project_memory"} {
		var name string
		err := db.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	m := NewMigrator(db)
	require.NoError(t, m.Migrate(context.Background()))

	version, err := m.CurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO conversation_summaries (conversation_id, summary) VALUES ('c1', 's')"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM conversation_summaries").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestHealth(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Health(context.Background()))
}
