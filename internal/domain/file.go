// Package domain contains the core business entities for Meridian Accounts.
package domain

import (
	"time"
)

// File field constraints.
const (
	// FileNameMaxLength is the maximum number of characters in a file name.
	FileNameMaxLength = 256

	// MimeTypeMaxLength is the maximum number of characters in a mime type.
	MimeTypeMaxLength = 256
)

// File represents a file record owned by an account. The payload is treated
// as opaque bytes; interpreting or storing it elsewhere is out of scope.
type File struct {
	// ID is the unique identifier for the file.
	// Zero means the identifier has not been assigned by storage yet.
	ID int64 `json:"id"`

	// OwnerID is the ID of the account that owns this file. Only the owner
	// may mutate or delete the file; that rule is enforced by the caller.
	OwnerID int64 `json:"ownerId"`

	// CreatedAt is the timestamp when the file was created.
	CreatedAt time.Time `json:"createdAt"`

	// MimeType is the file's mime type.
	MimeType string `json:"mimeType"`

	// Name is the file's display name.
	Name string `json:"name"`

	// Data is the file's raw payload.
	Data []byte `json:"data"`
}

// NewFile creates a new File with default values.
func NewFile(ownerID int64, name, mimeType string, data []byte) *File {
	return &File{
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
		MimeType:  mimeType,
		Name:      name,
		Data:      data,
	}
}

// Validate checks field-level constraints and returns the accumulated
// validation errors.
func (f *File) Validate() ValidationErrors {
	var errs ValidationErrors

	if l := len(f.Name); l == 0 || l > FileNameMaxLength {
		errs.Add("name", "length", f.Name)
	} else if containsControlCharacters(f.Name) {
		errs.Add("name", "non_control_character", f.Name)
	}

	if l := len(f.MimeType); l == 0 || l > MimeTypeMaxLength {
		errs.Add("mimeType", "length", f.MimeType)
	} else if containsControlCharacters(f.MimeType) {
		errs.Add("mimeType", "non_control_character", f.MimeType)
	}

	return errs
}

// Clone returns a copy of the file with its own copy of the payload.
func (f *File) Clone() *File {
	clone := *f
	clone.Data = make([]byte, len(f.Data))
	copy(clone.Data, f.Data)
	return &clone
}
