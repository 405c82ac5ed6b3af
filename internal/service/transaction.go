package service

import (
	"context"

	"github.com/prn-tf/meridian-accounts/internal/database"
)

// runAtomic wraps a unit of work in its own transaction: begin, run, commit
// on success, roll back on any failure. A commit or rollback failure
// supersedes the inner result, because the final state of the unit of work
// is unknown and reporting the inner outcome would overstate what is known.
func runAtomic[T any](ctx context.Context, db *database.DB, fn func(ec *database.Context) (T, error)) (T, error) {
	var zero T

	ec, err := db.Begin(ctx)
	if err != nil {
		return zero, err
	}
	defer ec.Release()

	result, err := fn(ec)
	if err != nil {
		if rbErr := ec.RollbackIfTx(); rbErr != nil {
			return zero, rbErr
		}
		return zero, err
	}

	if err := ec.CommitIfTx(); err != nil {
		return zero, err
	}

	return result, nil
}

// runAutonomous runs a read-only unit of work on a single pooled connection.
func runAutonomous[T any](ctx context.Context, db *database.DB, fn func(ec *database.Context) (T, error)) (T, error) {
	var zero T

	ec, err := db.Acquire(ctx)
	if err != nil {
		return zero, err
	}
	defer ec.Release()

	return fn(ec)
}
