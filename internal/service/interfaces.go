package service

import (
	"time"

	"github.com/prn-tf/meridian-accounts/internal/pkg/crypto"
)

// SecretHasher hashes and verifies secrets. Implemented in production by
// crypto.Hasher; tests substitute fakes to simulate hashing failures.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encoded string) error
}

// TokenSigner issues and verifies bearer tokens. Implemented in production
// by crypto.TokenSigner.
type TokenSigner interface {
	Issue(accountID int64, passwordResetAt time.Time) (string, error)
	Verify(token string) (*crypto.Claims, error)
}

// Interface compliance checks against the production implementations.
var (
	_ SecretHasher = (*crypto.Hasher)(nil)
	_ TokenSigner  = (*crypto.TokenSigner)(nil)
)
