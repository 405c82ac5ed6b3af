package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/meridian-accounts/internal/domain"
)

func TestAccountService_InsertRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := domain.NewAccount("alice", "alice@example.com", "Secret1-long-enough")
	created, err := env.accounts.Insert(ctx, account)
	require.NoError(t, err)

	assert.Greater(t, created.ID, int64(0))
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, "https://cdn.example.com/default.png", created.ProfilePictureURL)

	// The secret is stored hashed, never in plain text.
	assert.NotEqual(t, "Secret1-long-enough", created.Secret)
	assert.NoError(t, env.hasher.Verify("Secret1-long-enough", created.Secret))

	// The caller's record is not mutated.
	assert.Equal(t, "Secret1-long-enough", account.Secret)
	assert.Zero(t, account.ID)

	got, err := env.accounts.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, created.Equal(got))
}

func TestAccountService_InsertFieldValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := domain.NewAccount("ab", "not-an-email", "short")
	_, err := env.accounts.Insert(ctx, account)

	var errs domain.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.True(t, errs.Has("username"))
	assert.True(t, errs.Has("email"))
	assert.True(t, errs.Has("password"))
}

func TestAccountService_InsertDuplicateReportsBothFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.accounts.Insert(ctx, domain.NewAccount("bob", "bob@example.com", "Secret1-long-enough"))
	require.NoError(t, err)

	// Same username and email: both conflicts are accumulated, the check
	// does not short-circuit on the first.
	_, err = env.accounts.Insert(ctx, domain.NewAccount("bob", "bob@example.com", "Secret1-long-enough"))
	var errs domain.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.True(t, errs.Has("username"))
	assert.True(t, errs.Has("email"))

	// Only the username collides.
	_, err = env.accounts.Insert(ctx, domain.NewAccount("bob", "other@example.com", "Secret1-long-enough"))
	require.ErrorAs(t, err, &errs)
	assert.True(t, errs.Has("username"))
	assert.False(t, errs.Has("email"))
}

func TestAccountService_InsertHashFailureLeavesNoRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	broken := env.withFailingHasher()
	_, err := broken.Insert(ctx, domain.NewAccount("carol", "carol@example.com", "Secret1-long-enough"))
	require.Error(t, err)

	// The failure happened after the uniqueness check; the transaction must
	// have rolled back without a trace.
	_, err = env.accounts.GetByUsername(ctx, "carol")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountService_UpdateNotFound(t *testing.T) {
	env := newTestEnv(t)

	account := domain.NewAccount("ghost", "ghost@example.com", "Secret1-long-enough")
	account.ID = 9999

	_, err := env.accounts.Update(context.Background(), account)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountService_UpdateWithoutPasswordChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.accounts.Insert(ctx, domain.NewAccount("dave", "dave@example.com", "Secret1-long-enough"))
	require.NoError(t, err)

	// Re-submitting the stored hash unchanged is not a password change.
	modified := created.Clone()
	modified.EmailVerified = true

	updated, err := env.accounts.Update(ctx, modified)
	require.NoError(t, err)
	assert.True(t, updated.EmailVerified)
	assert.Equal(t, created.Secret, updated.Secret)
	assert.Equal(t, created.PasswordResetAt.Unix(), updated.PasswordResetAt.Unix())
}

func TestAccountService_UpdatePasswordAdvancesEpoch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.accounts.Insert(ctx, domain.NewAccount("erin", "erin@example.com", "Secret1-long-enough"))
	require.NoError(t, err)

	modified := created.Clone()
	modified.Secret = "Secret2-long-enough"

	updated, err := env.accounts.Update(ctx, modified)
	require.NoError(t, err)

	assert.NotEqual(t, created.Secret, updated.Secret)
	assert.NoError(t, env.hasher.Verify("Secret2-long-enough", updated.Secret))
	assert.Greater(t, updated.PasswordResetAt.Unix(), created.PasswordResetAt.Unix(),
		"password epoch must strictly advance")
}

func TestAccountService_UpdateUniquenessOnChangedFieldsOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.accounts.Insert(ctx, domain.NewAccount("frank", "frank@example.com", "Secret1-long-enough"))
	require.NoError(t, err)
	grace, err := env.accounts.Insert(ctx, domain.NewAccount("grace", "grace@example.com", "Secret1-long-enough"))
	require.NoError(t, err)

	// A record can always be re-saved over itself.
	_, err = env.accounts.Update(ctx, grace.Clone())
	require.NoError(t, err)

	// Changing the username to a taken one is a conflict.
	modified := grace.Clone()
	modified.Username = "frank"
	_, err = env.accounts.Update(ctx, modified)

	var errs domain.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.True(t, errs.Has("username"))
	assert.False(t, errs.Has("email"))
}

func TestAccountService_DeleteSemantics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.accounts.Insert(ctx, domain.NewAccount("henry", "henry@example.com", "Secret1-long-enough"))
	require.NoError(t, err)

	require.NoError(t, env.accounts.Delete(ctx, created.ID))

	// Deleting an absent account is not-found, never a system error.
	err = env.accounts.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = env.accounts.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountService_CrossEntityTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Compose "insert account and its first file" into one atomic unit
	// through the WithContext variants.
	ec, err := env.db.Begin(ctx)
	require.NoError(t, err)

	account, err := env.accounts.InsertWithContext(ctx, ec, domain.NewAccount("iris", "iris@example.com", "Secret1-long-enough"))
	require.NoError(t, err)

	file, err := env.files.InsertWithContext(ctx, ec, domain.NewFile(account.ID, "avatar.png", "image/png", []byte{0x89, 0x50}))
	require.NoError(t, err)

	require.NoError(t, ec.CommitIfTx())
	ec.Release()

	got, err := env.files.Get(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.OwnerID)
}

func TestAccountService_PastEpochPreserved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Caller-provided timestamps survive insertion.
	account := domain.NewAccount("judy", "judy@example.com", "Secret1-long-enough")
	past := time.Now().UTC().Add(-time.Hour)
	account.CreatedAt = past
	account.PasswordResetAt = past

	created, err := env.accounts.Insert(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, past.Unix(), created.CreatedAt.Unix())
	assert.Equal(t, past.Unix(), created.PasswordResetAt.Unix())
}
