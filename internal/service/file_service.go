package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/meridian-accounts/internal/database"
	"github.com/prn-tf/meridian-accounts/internal/domain"
	"github.com/prn-tf/meridian-accounts/internal/repository"
)

// FileService orchestrates validation and transaction boundaries around the
// file store. Same shape as AccountService minus uniqueness: files have no
// unique fields. Ownership checks belong to the calling layer; the service
// trusts the entity it is handed.
type FileService struct {
	db     *database.DB
	files  repository.FileRepository
	logger zerolog.Logger
}

// NewFileService creates a new FileService.
func NewFileService(db *database.DB, files repository.FileRepository, logger zerolog.Logger) *FileService {
	return &FileService{
		db:     db,
		files:  files,
		logger: logger.With().Str("service", "file").Logger(),
	}
}

// =============================================================================
// Connection-scoped operations
// =============================================================================

// Insert stores a new file in its own transaction.
func (s *FileService) Insert(ctx context.Context, file *domain.File) (*domain.File, error) {
	created, err := runAtomic(ctx, s.db, func(ec *database.Context) (*domain.File, error) {
		return s.InsertWithContext(ctx, ec, file)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("file_id", created.ID).
		Int64("owner_id", created.OwnerID).
		Str("name", created.Name).
		Msg("file created")

	return created, nil
}

// Get retrieves a file by ID on its own connection.
func (s *FileService) Get(ctx context.Context, id int64) (*domain.File, error) {
	return runAutonomous(ctx, s.db, func(ec *database.Context) (*domain.File, error) {
		return s.GetWithContext(ctx, ec, id)
	})
}

// Update overwrites a file in its own transaction.
func (s *FileService) Update(ctx context.Context, file *domain.File) (*domain.File, error) {
	updated, err := runAtomic(ctx, s.db, func(ec *database.Context) (*domain.File, error) {
		return s.UpdateWithContext(ctx, ec, file)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("file_id", updated.ID).Msg("file updated")
	return updated, nil
}

// Delete removes a file by ID in its own transaction.
func (s *FileService) Delete(ctx context.Context, id int64) error {
	_, err := runAtomic(ctx, s.db, func(ec *database.Context) (struct{}, error) {
		return struct{}{}, s.DeleteWithContext(ctx, ec, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("file_id", id).Msg("file deleted")
	return nil
}

// =============================================================================
// Context-scoped operations
// =============================================================================

// InsertWithContext stores a new file inside a caller-supplied execution
// context. The caller owns commit and rollback.
func (s *FileService) InsertWithContext(ctx context.Context, ec *database.Context, file *domain.File) (*domain.File, error) {
	candidate := file.Clone()
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = time.Now().UTC()
	}

	if errs := candidate.Validate(); !errs.Empty() {
		return nil, errs
	}

	if err := s.files.Insert(ctx, ec, candidate); err != nil {
		return nil, err
	}

	created, err := s.files.Get(ctx, ec, candidate.ID)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: file %d absent after insert", ErrInconsistentState, candidate.ID)
		}
		return nil, err
	}

	return created, nil
}

// GetWithContext retrieves a file by ID inside a caller-supplied execution
// context.
func (s *FileService) GetWithContext(ctx context.Context, ec *database.Context, id int64) (*domain.File, error) {
	return s.files.Get(ctx, ec, id)
}

// UpdateWithContext overwrites a file inside a caller-supplied execution
// context. The existing record is re-read first; absence is a normal
// not-found. Partial patches are merged by the caller before this point;
// the service validates and persists the full record.
func (s *FileService) UpdateWithContext(ctx context.Context, ec *database.Context, file *domain.File) (*domain.File, error) {
	existing, err := s.files.Get(ctx, ec, file.ID)
	if err != nil {
		return nil, err
	}

	candidate := file.Clone()
	candidate.CreatedAt = existing.CreatedAt

	if errs := candidate.Validate(); !errs.Empty() {
		return nil, errs
	}

	if err := s.files.Update(ctx, ec, candidate); err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: file %d vanished during update", ErrInconsistentState, candidate.ID)
		}
		return nil, err
	}

	updated, err := s.files.Get(ctx, ec, candidate.ID)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: file %d absent after update", ErrInconsistentState, candidate.ID)
		}
		return nil, err
	}

	return updated, nil
}

// DeleteWithContext removes a file by ID inside a caller-supplied execution
// context. Deleting an absent file is a normal not-found.
func (s *FileService) DeleteWithContext(ctx context.Context, ec *database.Context, id int64) error {
	return s.files.Delete(ctx, ec, id)
}
