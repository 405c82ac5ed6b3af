// Package database provides connection handling and the execution Context
// abstraction for Meridian Accounts. A Context represents a unit of work
// against storage: either a single pooled connection (autonomous) or an
// open transaction (atomic). Store code receives a Context and stays
// agnostic to which one it is.
//
// Two backends are supported through database/sql: PostgreSQL via the pgx
// stdlib driver, and embedded SQLite via modernc.org/sqlite (pure Go, no
// CGO, ideal for single-binary deployments and tests).
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/prn-tf/meridian-accounts/internal/config"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// sqlx does not know the modernc driver name out of the box.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB wraps a sqlx connection pool with acquisition and migration helpers.
type DB struct {
	db             *sqlx.DB
	logger         zerolog.Logger
	driver         string
	bindType       int
	acquireTimeout time.Duration
}

// Open creates a new database connection pool for the configured backend.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	var (
		driverName string
		dsn        string
	)

	switch cfg.Driver {
	case DriverPostgres, "":
		driverName = "pgx"
		dsn = cfg.DSN()
	case DriverSQLite:
		driverName = "sqlite"
		dsn = cfg.SQLiteDSN()
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Verify connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("driver", cfg.Driver).
		Int("max_conns", cfg.MaxOpenConns).
		Msg("connected to database")

	return &DB{
		db:             db,
		logger:         logger,
		driver:         cfg.Driver,
		bindType:       sqlx.BindType(driverName),
		acquireTimeout: cfg.AcquireTimeout,
	}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	db.logger.Info().Msg("closing database connection pool")
	return db.db.Close()
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

// Health checks the database connection health.
func (db *DB) Health(ctx context.Context) error {
	return db.Ping(ctx)
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.driver
}

// acquireContext bounds connection acquisition with the configured pool
// timeout. If acquisition is abandoned after a connection was already
// obtained, database/sql discards that connection rather than returning it
// to the pool; its transactional state cannot be safely verified, so it is
// never healed back in.
func (db *DB) acquireContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.acquireTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, db.acquireTimeout)
}

// Acquire returns an autonomous Context bound to a single pooled connection.
// The Context is usable for one logical operation; statements execute with
// statement-level atomicity only. The caller must Release it.
func (db *DB) Acquire(ctx context.Context) (*Context, error) {
	acqCtx, cancel := db.acquireContext(ctx)
	defer cancel()

	conn, err := db.db.Connx(acqCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	return &Context{conn: conn, bindType: db.bindType}, nil
}

// Begin returns an atomic Context bound to an open transaction on a single
// pooled connection. The caller must resolve it exactly once with CommitIfTx
// or RollbackIfTx and then Release it; releasing an unresolved atomic
// Context rolls the transaction back, never commits it.
func (db *DB) Begin(ctx context.Context) (*Context, error) {
	acqCtx, cancel := db.acquireContext(ctx)
	defer cancel()

	conn, err := db.db.Connx(acqCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &Context{conn: conn, tx: tx, bindType: db.bindType}, nil
}
