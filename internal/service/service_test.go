package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/meridian-accounts/internal/config"
	"github.com/prn-tf/meridian-accounts/internal/database"
	"github.com/prn-tf/meridian-accounts/internal/lock"
	"github.com/prn-tf/meridian-accounts/internal/pkg/crypto"
	"github.com/prn-tf/meridian-accounts/internal/repository"
)

// testHashParams keep hashing fast in tests while exercising the real
// Argon2id code path.
var testHashParams = crypto.HashParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type testEnv struct {
	db       *database.DB
	accounts *AccountService
	files    *FileService
	auth     *AuthService
	hasher   *crypto.Hasher
	signer   *crypto.TokenSigner
}

// newTestEnv wires the full service stack against a file-backed SQLite
// database in a temp directory.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver:          "sqlite",
		Path:            filepath.Join(t.TempDir(), "test.db"),
		BusyTimeout:     5000,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
		AcquireTimeout:  5 * time.Second,
	}

	db, err := database.Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	hasher := crypto.NewHasher(testHashParams)
	signer := crypto.NewTokenSigner(key, &key.PublicKey, time.Hour, true)

	accounts := NewAccountService(
		db,
		repository.NewAccountRepository(),
		hasher,
		lock.NewMemoryLocker(),
		30*time.Second,
		"https://cdn.example.com/default.png",
		zerolog.Nop(),
	)
	files := NewFileService(db, repository.NewFileRepository(), zerolog.Nop())
	auth := NewAuthService(accounts, hasher, signer, zerolog.Nop())

	return &testEnv{
		db:       db,
		accounts: accounts,
		files:    files,
		auth:     auth,
		hasher:   hasher,
		signer:   signer,
	}
}

// withFailingHasher returns a copy of the account service whose hasher
// always fails, for exercising the error path between uniqueness check and
// insert.
func (e *testEnv) withFailingHasher() *AccountService {
	return NewAccountService(
		e.db,
		repository.NewAccountRepository(),
		failingHasher{},
		lock.NewNoOpLocker(),
		30*time.Second,
		"",
		zerolog.Nop(),
	)
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("hashing unavailable") }
func (failingHasher) Verify(string, string) error { return errors.New("hashing unavailable") }
