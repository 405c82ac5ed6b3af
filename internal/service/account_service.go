package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/meridian-accounts/internal/database"
	"github.com/prn-tf/meridian-accounts/internal/domain"
	"github.com/prn-tf/meridian-accounts/internal/lock"
	"github.com/prn-tf/meridian-accounts/internal/repository"
)

// lockRetry bounds how long a connection-scoped mutation waits on a
// registration lock before giving up.
const (
	lockMaxRetries = 5
	lockRetryDelay = 50 * time.Millisecond
)

// AccountService orchestrates validation, uniqueness enforcement, secret
// hashing and transaction boundaries around the account store.
//
// Every mutating operation comes in two forms: a connection-scoped method
// that owns its transaction, and a WithContext variant that runs against a
// caller-supplied execution context so callers can compose larger atomic
// units, e.g. "insert account and its first file atomically".
type AccountService struct {
	db                    *database.DB
	accounts              repository.AccountRepository
	hasher                SecretHasher
	locker                lock.Locker
	lockTTL               time.Duration
	defaultProfilePicture string
	logger                zerolog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	db *database.DB,
	accounts repository.AccountRepository,
	hasher SecretHasher,
	locker lock.Locker,
	lockTTL time.Duration,
	defaultProfilePicture string,
	logger zerolog.Logger,
) *AccountService {
	return &AccountService{
		db:                    db,
		accounts:              accounts,
		hasher:                hasher,
		locker:                locker,
		lockTTL:               lockTTL,
		defaultProfilePicture: defaultProfilePicture,
		logger:                logger.With().Str("service", "account").Logger(),
	}
}

// =============================================================================
// Connection-scoped operations
// =============================================================================

// Insert registers a new account in its own transaction. Registration locks
// on the candidate username and email serialize concurrent registrations so
// the check-then-insert cannot race against an identical attempt.
func (s *AccountService) Insert(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	release, err := s.acquireRegistrationLocks(ctx, account.Username, account.Email)
	if err != nil {
		return nil, err
	}
	defer release()

	created, err := runAtomic(ctx, s.db, func(ec *database.Context) (*domain.Account, error) {
		return s.InsertWithContext(ctx, ec, account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("account_id", created.ID).
		Str("username", created.Username).
		Msg("account created")

	return created, nil
}

// GetByID retrieves an account by ID on its own connection.
func (s *AccountService) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return runAutonomous(ctx, s.db, func(ec *database.Context) (*domain.Account, error) {
		return s.GetByIDWithContext(ctx, ec, id)
	})
}

// GetByUsername retrieves an account by username on its own connection.
func (s *AccountService) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return runAutonomous(ctx, s.db, func(ec *database.Context) (*domain.Account, error) {
		return s.GetByUsernameWithContext(ctx, ec, username)
	})
}

// GetByEmail retrieves an account by email on its own connection.
func (s *AccountService) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return runAutonomous(ctx, s.db, func(ec *database.Context) (*domain.Account, error) {
		return s.GetByEmailWithContext(ctx, ec, email)
	})
}

// Update overwrites an account in its own transaction. A changed secret is
// re-hashed and advances the password-reset epoch, revoking outstanding
// tokens.
func (s *AccountService) Update(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	release, err := s.acquireRegistrationLocks(ctx, account.Username, account.Email)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := runAtomic(ctx, s.db, func(ec *database.Context) (*domain.Account, error) {
		return s.UpdateWithContext(ctx, ec, account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("account_id", updated.ID).
		Msg("account updated")

	return updated, nil
}

// Delete removes an account by ID in its own transaction.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	_, err := runAtomic(ctx, s.db, func(ec *database.Context) (struct{}, error) {
		return struct{}{}, s.DeleteWithContext(ctx, ec, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("account_id", id).Msg("account deleted")
	return nil
}

// =============================================================================
// Context-scoped operations
// =============================================================================

// InsertWithContext registers a new account inside a caller-supplied
// execution context. The caller owns commit and rollback.
//
// Sequence: field validation, uniqueness checks (both always run and
// accumulate), secret hashing, insert, re-read by the assigned ID. An absent
// row on re-read is ErrInconsistentState, never a normal not-found.
func (s *AccountService) InsertWithContext(ctx context.Context, ec *database.Context, account *domain.Account) (*domain.Account, error) {
	candidate := account.Clone()
	if candidate.ProfilePictureURL == "" {
		candidate.ProfilePictureURL = s.defaultProfilePicture
	}
	if candidate.CreatedAt.IsZero() {
		now := time.Now().UTC()
		candidate.CreatedAt = now
		candidate.PasswordResetAt = now
	}

	if errs := candidate.Validate(); !errs.Empty() {
		return nil, errs
	}

	conflicts, err := s.checkUniqueness(ctx, ec, candidate.Username, candidate.Email)
	if err != nil {
		return nil, err
	}
	if !conflicts.Empty() {
		return nil, conflicts
	}

	hashed, err := s.hasher.Hash(candidate.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}
	candidate.Secret = hashed

	if err := s.accounts.Insert(ctx, ec, candidate); err != nil {
		return nil, err
	}

	created, err := s.accounts.GetByID(ctx, ec, candidate.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: account %d absent after insert", ErrInconsistentState, candidate.ID)
		}
		return nil, err
	}

	return created, nil
}

// GetByIDWithContext retrieves an account by ID inside a caller-supplied
// execution context.
func (s *AccountService) GetByIDWithContext(ctx context.Context, ec *database.Context, id int64) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, ec, id)
}

// GetByUsernameWithContext retrieves an account by username inside a
// caller-supplied execution context.
func (s *AccountService) GetByUsernameWithContext(ctx context.Context, ec *database.Context, username string) (*domain.Account, error) {
	return s.accounts.GetByUsername(ctx, ec, username)
}

// GetByEmailWithContext retrieves an account by email inside a
// caller-supplied execution context.
func (s *AccountService) GetByEmailWithContext(ctx context.Context, ec *database.Context, email string) (*domain.Account, error) {
	return s.accounts.GetByEmail(ctx, ec, email)
}

// UpdateWithContext overwrites an account inside a caller-supplied execution
// context.
//
// The existing record is re-read first; absence is a normal not-found.
// Uniqueness is only re-checked for fields that actually changed, so a
// record can always be re-saved over itself. A secret that differs from the
// stored hash is treated as a password change: it is re-hashed and the
// password-reset epoch advances to now.
func (s *AccountService) UpdateWithContext(ctx context.Context, ec *database.Context, account *domain.Account) (*domain.Account, error) {
	existing, err := s.accounts.GetByID(ctx, ec, account.ID)
	if err != nil {
		return nil, err
	}

	candidate := account.Clone()
	candidate.CreatedAt = existing.CreatedAt
	candidate.PasswordResetAt = existing.PasswordResetAt

	if errs := candidate.Validate(); !errs.Empty() {
		return nil, errs
	}

	username := candidate.Username
	if username == existing.Username {
		username = ""
	}
	email := candidate.Email
	if email == existing.Email {
		email = ""
	}
	conflicts, err := s.checkUniqueness(ctx, ec, username, email)
	if err != nil {
		return nil, err
	}
	if !conflicts.Empty() {
		return nil, conflicts
	}

	if candidate.Secret != existing.Secret {
		hashed, err := s.hasher.Hash(candidate.Secret)
		if err != nil {
			return nil, fmt.Errorf("failed to hash secret: %w", err)
		}
		candidate.Secret = hashed

		// The epoch must strictly advance at the second granularity storage
		// keeps, otherwise tokens issued in the same second would survive
		// the change.
		epoch := time.Now().UTC()
		if epoch.Unix() <= existing.PasswordResetAt.Unix() {
			epoch = existing.PasswordResetAt.Add(time.Second)
		}
		candidate.PasswordResetAt = epoch
	}

	if err := s.accounts.Update(ctx, ec, candidate); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// The row existed moments ago in this same context.
			return nil, fmt.Errorf("%w: account %d vanished during update", ErrInconsistentState, candidate.ID)
		}
		return nil, err
	}

	updated, err := s.accounts.GetByID(ctx, ec, candidate.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: account %d absent after update", ErrInconsistentState, candidate.ID)
		}
		return nil, err
	}

	return updated, nil
}

// DeleteWithContext removes an account by ID inside a caller-supplied
// execution context. Deleting an absent account is a normal not-found.
func (s *AccountService) DeleteWithContext(ctx context.Context, ec *database.Context, id int64) error {
	return s.accounts.Delete(ctx, ec, id)
}

// =============================================================================
// Internals
// =============================================================================

// checkUniqueness looks up the candidate username and email and accumulates
// a conflict per taken field. Both checks always run; the operation never
// short-circuits on the first conflict, so callers see every conflict at
// once. An empty candidate value skips that check.
func (s *AccountService) checkUniqueness(ctx context.Context, ec *database.Context, username, email string) (domain.ValidationErrors, error) {
	var conflicts domain.ValidationErrors

	if username != "" {
		_, err := s.accounts.GetByUsername(ctx, ec, username)
		switch {
		case err == nil:
			conflicts.Add("username", "unique", username)
		case !errors.Is(err, domain.ErrAccountNotFound):
			return domain.ValidationErrors{}, err
		}
	}

	if email != "" {
		_, err := s.accounts.GetByEmail(ctx, ec, email)
		switch {
		case err == nil:
			conflicts.Add("email", "unique", email)
		case !errors.Is(err, domain.ErrAccountNotFound):
			return domain.ValidationErrors{}, err
		}
	}

	return conflicts, nil
}

// acquireRegistrationLocks takes advisory locks on a username and email,
// in that order, and returns a release function. The locks close the window
// where two concurrent registrations with the same values both pass the
// uniqueness check before either commits.
func (s *AccountService) acquireRegistrationLocks(ctx context.Context, username, email string) (func(), error) {
	keys := []string{lock.Keys.AccountUsername(username), lock.Keys.AccountEmail(email)}
	held := make([]string, 0, len(keys))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if _, err := s.locker.Release(ctx, held[i]); err != nil {
				s.logger.Warn().Err(err).Str("key", held[i]).Msg("failed to release registration lock")
			}
		}
	}

	for _, key := range keys {
		acquired, err := s.locker.AcquireWithRetry(ctx, key, s.lockTTL, lockMaxRetries, lockRetryDelay)
		if err != nil {
			release()
			return nil, fmt.Errorf("failed to acquire registration lock: %w", err)
		}
		if !acquired {
			release()
			return nil, fmt.Errorf("%w: %s", ErrLockNotAcquired, key)
		}
		held = append(held, key)
	}

	return release, nil
}
