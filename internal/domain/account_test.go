package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_Validate(t *testing.T) {
	valid := NewAccount("alice", "alice@example.com", "Secret1-long-enough")
	assert.True(t, valid.Validate().Empty())

	tests := []struct {
		name   string
		mutate func(*Account)
		field  string
	}{
		{"username too short", func(a *Account) { a.Username = "ab" }, "username"},
		{"username too long", func(a *Account) { a.Username = strings.Repeat("a", UsernameMaxLength+1) }, "username"},
		{"username control chars", func(a *Account) { a.Username = "ali\tce" }, "username"},
		{"email empty", func(a *Account) { a.Email = "" }, "email"},
		{"email malformed", func(a *Account) { a.Email = "not-an-email" }, "email"},
		{"secret too short", func(a *Account) { a.Secret = "short" }, "password"},
		{"picture too long", func(a *Account) { a.ProfilePictureURL = strings.Repeat("x", ProfilePictureMaxLength+1) }, "profilePictureUrl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := NewAccount("alice", "alice@example.com", "Secret1-long-enough")
			tt.mutate(account)

			errs := account.Validate()
			assert.True(t, errs.Has(tt.field))
		})
	}
}

func TestAccount_ValidationAccumulates(t *testing.T) {
	account := NewAccount("ab", "nope", "short")
	errs := account.Validate()

	assert.Len(t, errs.Fields, 3)
	assert.True(t, errs.Has("username"))
	assert.True(t, errs.Has("email"))
	assert.True(t, errs.Has("password"))
}

func TestAccount_SecretNeverEchoedInValidation(t *testing.T) {
	account := NewAccount("alice", "alice@example.com", "short")
	errs := account.Validate()

	for _, f := range errs.Fields {
		assert.NotContains(t, f.Value, "short")
	}
}

func TestAccount_SecretExcludedFromJSON(t *testing.T) {
	account := NewAccount("alice", "alice@example.com", "Secret1-long-enough")
	account.ID = 7

	data, err := json.Marshal(account)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "Secret1-long-enough")
	assert.Contains(t, string(data), `"username":"alice"`)
}

func TestAccount_CloneIsIndependent(t *testing.T) {
	account := NewAccount("alice", "alice@example.com", "Secret1-long-enough")
	clone := account.Clone()
	clone.Username = "mallory"

	assert.Equal(t, "alice", account.Username)
	assert.True(t, account.Equal(account.Clone()))
	assert.False(t, account.Equal(clone))
	assert.False(t, account.Equal(nil))
}

func TestFile_Validate(t *testing.T) {
	valid := NewFile(1, "notes.txt", "text/plain", []byte("x"))
	assert.True(t, valid.Validate().Empty())

	empty := NewFile(1, "", "", nil)
	errs := empty.Validate()
	assert.True(t, errs.Has("name"))
	assert.True(t, errs.Has("mimeType"))

	long := NewFile(1, strings.Repeat("n", FileNameMaxLength+1), "text/plain", nil)
	assert.True(t, long.Validate().Has("name"))
}

func TestFile_CloneCopiesData(t *testing.T) {
	file := NewFile(1, "notes.txt", "text/plain", []byte("abc"))
	clone := file.Clone()
	clone.Data[0] = 'z'

	assert.Equal(t, byte('a'), file.Data[0])
}

func TestValidationErrors_ErrorString(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs.Add("username", "unique", "bob")
	errs.Add("email", "unique", "bob@example.com")
	assert.Equal(t, "validation failed: username (unique), email (unique)", errs.Error())
}
