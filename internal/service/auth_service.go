package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/meridian-accounts/internal/domain"
)

// bearerPrefix is the scheme expected on inbound token values, whether they
// arrive in a header or a cookie.
const bearerPrefix = "Bearer "

// AuthCookieName is the cookie carrying the bearer token. The cookie value
// includes the scheme prefix, mirroring the Authorization header format.
const AuthCookieName = "authorization"

// AuthService authenticates callers by credentials, by token, or by inbound
// request metadata. It holds no state of its own; every failure collapses
// into ErrNotAuthenticated so callers cannot distinguish unknown usernames
// from wrong passwords or revoked tokens.
type AuthService struct {
	accounts *AccountService
	hasher   SecretHasher
	signer   TokenSigner
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(accounts *AccountService, hasher SecretHasher, signer TokenSigner, logger zerolog.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		hasher:   hasher,
		signer:   signer,
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

// AuthenticateCredentials verifies a username/secret pair and returns the
// account on success.
func (s *AuthService) AuthenticateCredentials(ctx context.Context, username, secret string) (*domain.Account, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.logger.Debug().Str("username", username).Msg("unknown username during authentication")
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	if err := s.hasher.Verify(secret, account.Secret); err != nil {
		s.logger.Debug().Int64("account_id", account.ID).Msg("secret mismatch during authentication")
		return nil, ErrNotAuthenticated
	}

	return account, nil
}

// AuthenticateToken verifies a bearer token and returns the account it was
// issued to. The token is only honored while its captured password-reset
// timestamp matches the account's current one: changing the password revokes
// every previously issued token without any revocation store.
func (s *AuthService) AuthenticateToken(ctx context.Context, token string) (*domain.Account, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		s.logger.Debug().Msg("token failed verification")
		return nil, ErrNotAuthenticated
	}

	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.logger.Debug().Int64("account_id", claims.AccountID).Msg("token references missing account")
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	if claims.PasswordLastReset != account.PasswordResetAt.Unix() {
		s.logger.Debug().Int64("account_id", account.ID).Msg("token predates password change")
		return nil, ErrNotAuthenticated
	}

	return account, nil
}

// AuthenticateRequest extracts a bearer token from the request and
// authenticates it. The Authorization header is consulted first and the
// authorization cookie second, so header-supplied credentials override
// cookie-supplied ones. A value without the Bearer scheme is rejected.
func (s *AuthService) AuthenticateRequest(ctx context.Context, r *http.Request) (*domain.Account, error) {
	token, ok := ExtractBearerToken(r)
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return s.AuthenticateToken(ctx, token)
}

// Login authenticates credentials and issues a fresh token bound to the
// account's current password-reset epoch.
func (s *AuthService) Login(ctx context.Context, username, secret string) (*domain.Account, string, error) {
	account, err := s.AuthenticateCredentials(ctx, username, secret)
	if err != nil {
		return nil, "", err
	}

	token, err := s.signer.Issue(account.ID, account.PasswordResetAt)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Int64("account_id", account.ID).Msg("login succeeded")
	return account, token, nil
}

// ExtractBearerToken pulls a Bearer token from the Authorization header,
// falling back to the authorization cookie. Returns the bare token without
// the scheme prefix.
func ExtractBearerToken(r *http.Request) (string, bool) {
	value := r.Header.Get("Authorization")
	if value == "" {
		cookie, err := r.Cookie(AuthCookieName)
		if err != nil {
			return "", false
		}
		value = cookie.Value
	}

	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(value, bearerPrefix), true
}
