// Package repository defines data access interfaces for Meridian Accounts.
// These interfaces abstract database operations, allowing the service layer
// to stay agnostic to the backend (PostgreSQL or SQLite).
//
// Every method takes a *database.Context rather than a raw connection: the
// same store code runs inside a transaction (atomic) or on a single pooled
// connection (autonomous), and the caller decides which.
package repository

import (
	"context"

	"github.com/prn-tf/meridian-accounts/internal/database"
	"github.com/prn-tf/meridian-accounts/internal/domain"
)

// =============================================================================
// Account Repository
// =============================================================================

// AccountRepository defines the interface for account data access.
type AccountRepository interface {
	// Insert persists a new account and populates its ID.
	Insert(ctx context.Context, ec *database.Context, account *domain.Account) error

	// GetByID retrieves an account by ID.
	// Returns domain.ErrAccountNotFound if no row matches.
	GetByID(ctx context.Context, ec *database.Context, id int64) (*domain.Account, error)

	// GetByUsername retrieves an account by username.
	// Returns domain.ErrAccountNotFound if no row matches.
	GetByUsername(ctx context.Context, ec *database.Context, username string) (*domain.Account, error)

	// GetByEmail retrieves an account by email.
	// Returns domain.ErrAccountNotFound if no row matches.
	GetByEmail(ctx context.Context, ec *database.Context, email string) (*domain.Account, error)

	// Update overwrites all mutable fields of an existing account.
	// Returns domain.ErrAccountNotFound if no row matches the ID.
	Update(ctx context.Context, ec *database.Context, account *domain.Account) error

	// Delete deletes an account by ID.
	// Returns domain.ErrAccountNotFound if no row matches.
	Delete(ctx context.Context, ec *database.Context, id int64) error
}

// =============================================================================
// File Repository
// =============================================================================

// FileRepository defines the interface for file data access.
type FileRepository interface {
	// Insert persists a new file and populates its ID.
	Insert(ctx context.Context, ec *database.Context, file *domain.File) error

	// Get retrieves a file by ID.
	// Returns domain.ErrFileNotFound if no row matches.
	Get(ctx context.Context, ec *database.Context, id int64) (*domain.File, error)

	// Update overwrites all mutable fields of an existing file.
	// Returns domain.ErrFileNotFound if no row matches the ID.
	Update(ctx context.Context, ec *database.Context, file *domain.File) error

	// Delete deletes a file by ID.
	// Returns domain.ErrFileNotFound if no row matches.
	Delete(ctx context.Context, ec *database.Context, id int64) error
}
