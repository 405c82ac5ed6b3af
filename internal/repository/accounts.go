package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prn-tf/meridian-accounts/internal/database"
	"github.com/prn-tf/meridian-accounts/internal/domain"
)

// accountColumns is the canonical column list for account queries; scan
// order must match scanAccount.
const accountColumns = `id, created_at, password_reset_at, profile_picture_url, username, secret, email,
	email_verified, password_reset_required, account_locked, account_banned`

// accountRepository implements AccountRepository on database/sql. The same
// implementation serves both backends: queries use portable `?` bindvars and
// are rebound per dialect, and timestamps are stored as unix seconds.
type accountRepository struct{}

// NewAccountRepository creates a new account repository.
func NewAccountRepository() AccountRepository {
	return &accountRepository{}
}

// Insert persists a new account and populates its ID.
func (r *accountRepository) Insert(ctx context.Context, ec *database.Context, account *domain.Account) error {
	query := ec.Rebind(`
		INSERT INTO accounts (created_at, password_reset_at, profile_picture_url, username, secret, email,
			email_verified, password_reset_required, account_locked, account_banned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := ec.Querier().QueryRowContext(ctx, query,
		account.CreatedAt.Unix(),
		account.PasswordResetAt.Unix(),
		account.ProfilePictureURL,
		account.Username,
		account.Secret,
		account.Email,
		account.EmailVerified,
		account.PasswordResetRequired,
		account.Locked,
		account.Banned,
	).Scan(&account.ID)

	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by ID.
func (r *accountRepository) GetByID(ctx context.Context, ec *database.Context, id int64) (*domain.Account, error) {
	query := ec.Rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`)
	return r.getOne(ctx, ec, query, id)
}

// GetByUsername retrieves an account by username.
func (r *accountRepository) GetByUsername(ctx context.Context, ec *database.Context, username string) (*domain.Account, error) {
	query := ec.Rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE username = ?`)
	return r.getOne(ctx, ec, query, username)
}

// GetByEmail retrieves an account by email.
func (r *accountRepository) GetByEmail(ctx context.Context, ec *database.Context, email string) (*domain.Account, error) {
	query := ec.Rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`)
	return r.getOne(ctx, ec, query, email)
}

func (r *accountRepository) getOne(ctx context.Context, ec *database.Context, query string, arg any) (*domain.Account, error) {
	account, err := scanAccount(ec.Querier().QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// Update overwrites all mutable fields of an existing account.
func (r *accountRepository) Update(ctx context.Context, ec *database.Context, account *domain.Account) error {
	query := ec.Rebind(`
		UPDATE accounts
		SET password_reset_at = ?, profile_picture_url = ?, username = ?, secret = ?, email = ?,
			email_verified = ?, password_reset_required = ?, account_locked = ?, account_banned = ?
		WHERE id = ?
	`)

	result, err := ec.Querier().ExecContext(ctx, query,
		account.PasswordResetAt.Unix(),
		account.ProfilePictureURL,
		account.Username,
		account.Secret,
		account.Email,
		account.EmailVerified,
		account.PasswordResetRequired,
		account.Locked,
		account.Banned,
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// Delete deletes an account by ID.
func (r *accountRepository) Delete(ctx context.Context, ec *database.Context, id int64) error {
	query := ec.Rebind(`DELETE FROM accounts WHERE id = ?`)

	result, err := ec.Querier().ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// scanAccount scans a single account row in accountColumns order.
func scanAccount(row *sql.Row) (*domain.Account, error) {
	account := &domain.Account{}
	var createdAt, passwordResetAt int64

	err := row.Scan(
		&account.ID,
		&createdAt,
		&passwordResetAt,
		&account.ProfilePictureURL,
		&account.Username,
		&account.Secret,
		&account.Email,
		&account.EmailVerified,
		&account.PasswordResetRequired,
		&account.Locked,
		&account.Banned,
	)
	if err != nil {
		return nil, err
	}

	account.CreatedAt = time.Unix(createdAt, 0).UTC()
	account.PasswordResetAt = time.Unix(passwordResetAt, 0).UTC()

	return account, nil
}

// Ensure accountRepository implements AccountRepository.
var _ AccountRepository = (*accountRepository)(nil)
