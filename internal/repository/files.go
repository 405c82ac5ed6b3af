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

// fileRepository implements FileRepository on database/sql, dialect-portable
// the same way accountRepository is.
type fileRepository struct{}

// NewFileRepository creates a new file repository.
func NewFileRepository() FileRepository {
	return &fileRepository{}
}

// Insert persists a new file and populates its ID.
func (r *fileRepository) Insert(ctx context.Context, ec *database.Context, file *domain.File) error {
	query := ec.Rebind(`
		INSERT INTO files (owner_id, created_at, mime_type, name, data)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := ec.Querier().QueryRowContext(ctx, query,
		file.OwnerID,
		file.CreatedAt.Unix(),
		file.MimeType,
		file.Name,
		file.Data,
	).Scan(&file.ID)

	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}

	return nil
}

// Get retrieves a file by ID.
func (r *fileRepository) Get(ctx context.Context, ec *database.Context, id int64) (*domain.File, error) {
	query := ec.Rebind(`
		SELECT id, owner_id, created_at, mime_type, name, data
		FROM files
		WHERE id = ?
	`)

	file := &domain.File{}
	var createdAt int64

	err := ec.Querier().QueryRowContext(ctx, query, id).Scan(
		&file.ID,
		&file.OwnerID,
		&createdAt,
		&file.MimeType,
		&file.Name,
		&file.Data,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	file.CreatedAt = time.Unix(createdAt, 0).UTC()

	return file, nil
}

// Update overwrites all mutable fields of an existing file.
func (r *fileRepository) Update(ctx context.Context, ec *database.Context, file *domain.File) error {
	query := ec.Rebind(`
		UPDATE files
		SET owner_id = ?, mime_type = ?, name = ?, data = ?
		WHERE id = ?
	`)

	result, err := ec.Querier().ExecContext(ctx, query,
		file.OwnerID,
		file.MimeType,
		file.Name,
		file.Data,
		file.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrFileNotFound
	}

	return nil
}

// Delete deletes a file by ID.
func (r *fileRepository) Delete(ctx context.Context, ec *database.Context, id int64) error {
	query := ec.Rebind(`DELETE FROM files WHERE id = ?`)

	result, err := ec.Querier().ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrFileNotFound
	}

	return nil
}

// Ensure fileRepository implements FileRepository.
var _ FileRepository = (*fileRepository)(nil)
