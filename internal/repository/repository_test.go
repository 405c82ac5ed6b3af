package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/meridian-accounts/internal/config"
	"github.com/prn-tf/meridian-accounts/internal/database"
)

// newTestDB opens a file-backed SQLite database in a temp directory and
// applies migrations. File-backed rather than :memory: because the pool can
// hand out more than one connection.
func newTestDB(t *testing.T) *database.DB {
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

	db, err := database.Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))

	return db
}

// acquire returns an autonomous execution context released at test end.
func acquire(t *testing.T, db *database.DB) *database.Context {
	t.Helper()

	ec, err := db.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(ec.Release)

	return ec
}
