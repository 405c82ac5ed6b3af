package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/meridian-accounts/internal/domain"
)

func TestFileService_InsertRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file := domain.NewFile(1, "report.pdf", "application/pdf", []byte("%PDF-1.7"))
	created, err := env.files.Insert(ctx, file)
	require.NoError(t, err)

	assert.Greater(t, created.ID, int64(0))
	assert.Equal(t, file.Name, created.Name)
	assert.Equal(t, file.MimeType, created.MimeType)
	assert.Equal(t, file.Data, created.Data)

	got, err := env.files.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Data, got.Data)
}

func TestFileService_InsertValidation(t *testing.T) {
	env := newTestEnv(t)

	file := domain.NewFile(1, "", "", nil)
	_, err := env.files.Insert(context.Background(), file)

	var errs domain.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.True(t, errs.Has("name"))
	assert.True(t, errs.Has("mimeType"))
}

func TestFileService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.files.Insert(ctx, domain.NewFile(1, "notes.txt", "text/plain", []byte("v1")))
	require.NoError(t, err)

	modified := created.Clone()
	modified.Name = "notes-final.txt"
	modified.Data = []byte("v2")

	updated, err := env.files.Update(ctx, modified)
	require.NoError(t, err)
	assert.Equal(t, "notes-final.txt", updated.Name)
	assert.Equal(t, []byte("v2"), updated.Data)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())
}

func TestFileService_UpdateNotFound(t *testing.T) {
	env := newTestEnv(t)

	file := domain.NewFile(1, "ghost.txt", "text/plain", []byte("x"))
	file.ID = 9999

	_, err := env.files.Update(context.Background(), file)
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestFileService_DeleteSemantics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.files.Insert(ctx, domain.NewFile(1, "temp.bin", "application/octet-stream", []byte{0x00}))
	require.NoError(t, err)

	require.NoError(t, env.files.Delete(ctx, created.ID))
	assert.ErrorIs(t, env.files.Delete(ctx, created.ID), domain.ErrFileNotFound)
}
