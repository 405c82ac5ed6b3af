// Package domain contains the core business entities for Meridian Accounts.
package domain

import (
	"fmt"
	"strings"
)

// FieldError describes a single validation failure on a single field.
type FieldError struct {
	// Field is the JSON name of the offending field.
	Field string `json:"field"`

	// Code is a short text code identifying the category of error,
	// for example "length", "email", or "unique".
	Code string `json:"code"`

	// Value is the rejected value. Sensitive values are left empty.
	Value string `json:"value,omitempty"`
}

// ValidationErrors accumulates field-level validation failures across an
// operation. Multiple failures may be reported together: uniqueness checks,
// for example, always run for both username and email and never
// short-circuit on the first conflict.
//
// The zero value is ready to use. ValidationErrors implements error so it
// travels through ordinary error returns; callers detect it with errors.As.
type ValidationErrors struct {
	// Fields holds the accumulated failures in the order they were detected.
	Fields []FieldError `json:"fields"`
}

// Add records a validation failure for a field.
func (v *ValidationErrors) Add(field, code, value string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Code: code, Value: value})
}

// Merge appends all failures from other.
func (v *ValidationErrors) Merge(other ValidationErrors) {
	v.Fields = append(v.Fields, other.Fields...)
}

// Empty reports whether no failures have been recorded.
func (v ValidationErrors) Empty() bool {
	return len(v.Fields) == 0
}

// Has reports whether a failure has been recorded for the given field.
func (v ValidationErrors) Has(field string) bool {
	for _, f := range v.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	if len(v.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Field, f.Code))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
