package crypto

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid is returned for any token that fails verification:
// bad signature, wrong algorithm, malformed payload, or expired.
var ErrTokenInvalid = errors.New("token is invalid")

// unboundedLifetime substitutes for a zero token lifetime. Tokens are still
// invalidated by password changes through the epoch binding.
const unboundedLifetime = 100 * 365 * 24 * time.Hour

// Claims is the payload carried by an access token.
type Claims struct {
	// AccountID identifies the account the token was issued to.
	AccountID int64 `json:"id"`

	// PasswordLastReset is the unix timestamp of the account's last password
	// change at issue time. A token is only valid while this matches the
	// account's current value, so a password change revokes all prior tokens.
	PasswordLastReset int64 `json:"password_last_reset"`

	jwt.RegisteredClaims
}

// TokenSigner issues and verifies RS256-signed access tokens.
type TokenSigner struct {
	privateKey     *rsa.PrivateKey
	publicKey      *rsa.PublicKey
	lifetime       time.Duration
	validateExpiry bool
}

// NewTokenSigner creates a TokenSigner. A zero lifetime issues effectively
// unbounded tokens; validateExpiry controls whether the exp claim is
// enforced during verification.
func NewTokenSigner(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, lifetime time.Duration, validateExpiry bool) *TokenSigner {
	return &TokenSigner{
		privateKey:     privateKey,
		publicKey:      publicKey,
		lifetime:       lifetime,
		validateExpiry: validateExpiry,
	}
}

// Issue signs a new token for the account. The token is bound to the
// account's password epoch: it stops verifying once the password changes.
func (s *TokenSigner) Issue(accountID int64, passwordResetAt time.Time) (string, error) {
	now := time.Now().UTC()

	lifetime := s.lifetime
	if lifetime == 0 {
		lifetime = unboundedLifetime
	}

	claims := Claims{
		AccountID:         accountID,
		PasswordLastReset: passwordResetAt.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token string and returns its claims.
// Only RS256 signatures are accepted. Any failure collapses to ErrTokenInvalid.
func (s *TokenSigner) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	}
	if !s.validateExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.publicKey, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
