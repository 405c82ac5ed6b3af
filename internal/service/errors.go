// Package service provides business logic services for Meridian Accounts.
package service

import "errors"

// Common service errors.
var (
	// ErrNotAuthenticated is the collapsed failure for every authentication
	// path: unknown username, wrong password, malformed token, revoked token.
	// Callers never learn which, to avoid enumeration attacks.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInconsistentState indicates storage contradicted itself within one
	// unit of work, e.g. a record absent immediately after its own insert.
	// Always a system failure, never a normal not-found.
	ErrInconsistentState = errors.New("storage state inconsistent")

	// ErrLockNotAcquired indicates a registration lock could not be obtained
	// in time.
	ErrLockNotAcquired = errors.New("lock not acquired")
)
