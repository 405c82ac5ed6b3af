package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/meridian-accounts/internal/config"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver:          "sqlite",
		Path:            filepath.Join(t.TempDir(), "test.db"),
		BusyTimeout:     5000,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
		AcquireTimeout:  5 * time.Second,
	}

	db, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.db.ExecContext(context.Background(), `CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)`)
	require.NoError(t, err)

	return db
}

func countItems(t *testing.T, db *DB) int {
	t.Helper()

	var n int
	require.NoError(t, db.db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM items`).Scan(&n))
	return n
}

func TestContext_AutonomousIsNotAtomic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ec, err := db.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ec.Atomic())

	_, err = ec.Querier().ExecContext(ctx, ec.Rebind(`INSERT INTO items (name) VALUES (?)`), "one")
	require.NoError(t, err)

	// Commit and rollback are no-ops on an autonomous context; the statement
	// already took effect.
	require.NoError(t, ec.CommitIfTx())
	require.NoError(t, ec.RollbackIfTx())
	ec.Release()

	assert.Equal(t, 1, countItems(t, db))
}

func TestContext_CommitPersists(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ec, err := db.Begin(ctx)
	require.NoError(t, err)
	assert.True(t, ec.Atomic())

	_, err = ec.Querier().ExecContext(ctx, ec.Rebind(`INSERT INTO items (name) VALUES (?)`), "one")
	require.NoError(t, err)

	require.NoError(t, ec.CommitIfTx())
	ec.Release()

	assert.Equal(t, 1, countItems(t, db))
}

func TestContext_RollbackDiscards(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ec, err := db.Begin(ctx)
	require.NoError(t, err)

	_, err = ec.Querier().ExecContext(ctx, ec.Rebind(`INSERT INTO items (name) VALUES (?)`), "one")
	require.NoError(t, err)

	require.NoError(t, ec.RollbackIfTx())
	ec.Release()

	assert.Equal(t, 0, countItems(t, db))
}

func TestContext_ReleaseNeverCommits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ec, err := db.Begin(ctx)
	require.NoError(t, err)

	_, err = ec.Querier().ExecContext(ctx, ec.Rebind(`INSERT INTO items (name) VALUES (?)`), "one")
	require.NoError(t, err)

	// Dropping the context unresolved rolls the transaction back.
	ec.Release()

	assert.Equal(t, 0, countItems(t, db))
}

func TestContext_ResolveExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ec, err := db.Begin(ctx)
	require.NoError(t, err)
	defer ec.Release()

	require.NoError(t, ec.CommitIfTx())
	assert.ErrorIs(t, ec.CommitIfTx(), ErrContextResolved)
	assert.ErrorIs(t, ec.RollbackIfTx(), ErrContextResolved)
}

func TestContext_RebindIsDialectAware(t *testing.T) {
	db := newTestDB(t)

	ec, err := db.Acquire(context.Background())
	require.NoError(t, err)
	defer ec.Release()

	// SQLite keeps question marks.
	assert.Equal(t, `SELECT ?`, ec.Rebind(`SELECT ?`))
}
