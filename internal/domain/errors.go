// Package domain contains the core business entities for Meridian Accounts.
package domain

import (
	"errors"
)

// Domain errors - these represent expected, recoverable outcomes.
// They are distinct from infrastructure errors (database, network, etc.),
// which propagate as opaque wrapped errors.

var (
	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrFileNotFound indicates the requested file does not exist.
	ErrFileNotFound = errors.New("file not found")
)

// IsNotFound reports whether err is one of the domain not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrFileNotFound)
}
