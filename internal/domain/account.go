// Package domain contains the core business entities for Meridian Accounts.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the account backend.
package domain

import (
	"net/mail"
	"time"
)

// Account field constraints.
const (
	// UsernameMinLength is the minimum number of characters in a username.
	UsernameMinLength = 3

	// UsernameMaxLength is the maximum number of characters in a username.
	UsernameMaxLength = 64

	// SecretMinLength is the minimum number of characters in a plain-text password.
	SecretMinLength = 8

	// SecretMaxLength is an upper bound generous enough for both plain-text
	// passwords and PHC-encoded hashes, which flow through the same field on update.
	SecretMaxLength = 512

	// EmailMaxLength is the maximum number of characters in an email address.
	EmailMaxLength = 255

	// ProfilePictureMaxLength is the maximum number of characters in a profile picture URL.
	ProfilePictureMaxLength = 2048
)

// Account represents a registered account in the system.
// Accounts own files and authenticate with a username/secret pair or a bearer token.
type Account struct {
	// ID is the unique identifier for the account.
	// Zero means the identifier has not been assigned by storage yet.
	ID int64 `json:"id"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt"`

	// PasswordResetAt is the timestamp of the last password change.
	// It advances every time the secret changes and doubles as the
	// token epoch: tokens issued before the last change are invalid.
	PasswordResetAt time.Time `json:"passwordResetAt"`

	// ProfilePictureURL is a URL to the account's profile picture.
	ProfilePictureURL string `json:"profilePictureUrl"`

	// Username is the unique username for login and display.
	Username string `json:"username"`

	// Secret is the account's password. Plain text only between the request
	// boundary and the hashing step; hashed everywhere past it.
	// Never exposed in API responses.
	Secret string `json:"-"`

	// Email is the unique email address for the account.
	Email string `json:"email"`

	// EmailVerified indicates whether the email address has been verified.
	// Verification itself is handled externally; the core only persists the flag.
	EmailVerified bool `json:"emailVerified"`

	// PasswordResetRequired indicates the account must reset its password
	// before it may log in.
	PasswordResetRequired bool `json:"passwordResetRequired"`

	// Locked indicates the account has been locked.
	Locked bool `json:"accountLocked"`

	// Banned indicates the account has been banned.
	Banned bool `json:"accountBanned"`
}

// NewAccount creates a new Account with default values.
// The secret is expected to be plain text; hashing happens in the service layer.
func NewAccount(username, email, secret string) *Account {
	now := time.Now().UTC()
	return &Account{
		Username:        username,
		Email:           email,
		Secret:          secret,
		CreatedAt:       now,
		PasswordResetAt: now,
	}
}

// Validate checks field-level constraints and returns the accumulated
// validation errors. Uniqueness is not checked here; it requires storage
// access and belongs to the service layer.
func (a *Account) Validate() ValidationErrors {
	var errs ValidationErrors

	if l := len(a.Username); l < UsernameMinLength || l > UsernameMaxLength {
		errs.Add("username", "length", a.Username)
	} else if containsControlCharacters(a.Username) {
		errs.Add("username", "non_control_character", a.Username)
	}

	if l := len(a.Email); l == 0 || l > EmailMaxLength {
		errs.Add("email", "length", a.Email)
	} else if _, err := mail.ParseAddress(a.Email); err != nil {
		errs.Add("email", "email", a.Email)
	}

	if l := len(a.Secret); l < SecretMinLength || l > SecretMaxLength {
		// The secret value is never echoed back.
		errs.Add("password", "length", "")
	}

	if len(a.ProfilePictureURL) > ProfilePictureMaxLength {
		errs.Add("profilePictureUrl", "length", a.ProfilePictureURL)
	} else if containsControlCharacters(a.ProfilePictureURL) {
		errs.Add("profilePictureUrl", "non_control_character", a.ProfilePictureURL)
	}

	return errs
}

// Clone returns a copy of the account. Services mutate copies so callers'
// records are never modified in place.
func (a *Account) Clone() *Account {
	clone := *a
	return &clone
}

// Equal reports whether two accounts carry the same state. Timestamps are
// compared at second granularity, matching storage precision.
func (a *Account) Equal(other *Account) bool {
	if other == nil {
		return false
	}
	return a.ID == other.ID &&
		a.CreatedAt.Unix() == other.CreatedAt.Unix() &&
		a.PasswordResetAt.Unix() == other.PasswordResetAt.Unix() &&
		a.ProfilePictureURL == other.ProfilePictureURL &&
		a.Username == other.Username &&
		a.Secret == other.Secret &&
		a.Email == other.Email &&
		a.EmailVerified == other.EmailVerified &&
		a.PasswordResetRequired == other.PasswordResetRequired &&
		a.Locked == other.Locked &&
		a.Banned == other.Banned
}

// containsControlCharacters reports whether s contains ASCII control characters.
func containsControlCharacters(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return true
		}
	}
	return false
}
