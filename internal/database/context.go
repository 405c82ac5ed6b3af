package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrContextResolved indicates an atomic Context was committed or rolled
// back more than once.
var ErrContextResolved = errors.New("execution context already resolved")

// Querier is the statement surface a Context exposes to stores. Both a
// pooled connection and an open transaction satisfy it, which keeps store
// code agnostic to atomicity.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Context is a unit of work against storage: either a single pooled
// connection (autonomous mode) or an open transaction (atomic mode).
//
// A Context is owned by exactly one logical operation; it is not safe for
// concurrent use and must never be shared between requests. An atomic
// Context must be resolved exactly once with CommitIfTx or RollbackIfTx;
// Release rolls back anything left unresolved, so dropping a Context can
// never silently commit.
type Context struct {
	conn     *sqlx.Conn
	tx       *sqlx.Tx
	bindType int
	resolved bool
}

// Atomic reports whether this Context is backed by a transaction.
func (c *Context) Atomic() bool {
	return c.tx != nil
}

// Querier returns the statement surface for this Context: the transaction
// in atomic mode, the connection otherwise.
func (c *Context) Querier() Querier {
	if c.tx != nil {
		return c.tx
	}
	return c.conn
}

// Rebind translates a query written with portable `?` bindvars into the
// form the underlying driver expects (`$N` for PostgreSQL).
func (c *Context) Rebind(query string) string {
	return sqlx.Rebind(c.bindType, query)
}

// CommitIfTx commits the transaction if this Context is atomic, and is a
// no-op otherwise. A commit failure is a system error: the caller must not
// assume any statement in the unit of work took effect.
func (c *Context) CommitIfTx() error {
	if c.tx == nil {
		return nil
	}
	if c.resolved {
		return ErrContextResolved
	}
	c.resolved = true
	if err := c.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackIfTx rolls the transaction back if this Context is atomic, and is
// a no-op otherwise. A rollback failure leaves the unit of work in an
// unknown final state; callers must surface it rather than assume
// consistency.
func (c *Context) RollbackIfTx() error {
	if c.tx == nil {
		return nil
	}
	if c.resolved {
		return ErrContextResolved
	}
	c.resolved = true
	if err := c.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// Release returns the underlying connection to the pool. An unresolved
// transaction is rolled back first. Safe to defer immediately after
// acquiring the Context.
func (c *Context) Release() {
	if c.conn == nil {
		return
	}
	if c.tx != nil && !c.resolved {
		c.resolved = true
		// Best effort; the connection is returned either way and database/sql
		// discards it if its state cannot be reused.
		_ = c.tx.Rollback()
	}
	_ = c.conn.Close()
	c.conn = nil
}
