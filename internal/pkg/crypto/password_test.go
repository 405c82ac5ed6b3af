package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_HashAndVerify(t *testing.T) {
	hasher := NewHasher(DefaultHashParams())

	encoded, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	assert.NoError(t, hasher.Verify("correct horse battery staple", encoded))
	assert.ErrorIs(t, hasher.Verify("wrong password", encoded), ErrSecretMismatch)
}

func TestHasher_FreshSaltPerHash(t *testing.T) {
	hasher := NewHasher(DefaultHashParams())

	first, err := hasher.Hash("same secret")
	require.NoError(t, err)
	second, err := hasher.Hash("same secret")
	require.NoError(t, err)

	// Fresh random salt means equal secrets never produce equal hashes.
	assert.NotEqual(t, first, second)

	assert.NoError(t, hasher.Verify("same secret", first))
	assert.NoError(t, hasher.Verify("same secret", second))
}

func TestHasher_MalformedHashIsMismatch(t *testing.T) {
	hasher := NewHasher(DefaultHashParams())

	// Malformed stored hashes collapse into the same failure class as a
	// wrong password.
	malformed := []string{
		"",
		"not a hash at all",
		"$argon2id$v=19$m=19456,t=2,p=1$onlyonepart",
		"$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
	}
	for _, h := range malformed {
		assert.ErrorIs(t, hasher.Verify("any secret", h), ErrSecretMismatch, "hash: %q", h)
	}
}

func TestHasher_VerifyRespectsEncodedParams(t *testing.T) {
	// Hashes produced under older, cheaper parameters still verify: the
	// parameters are read from the PHC string, not from the Hasher.
	weak := NewHasher(HashParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	strong := NewHasher(DefaultHashParams())

	encoded, err := weak.Hash("legacy secret")
	require.NoError(t, err)

	assert.NoError(t, strong.Verify("legacy secret", encoded))
}
