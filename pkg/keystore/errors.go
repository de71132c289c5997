package keystore

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Lookup when no key is stored for a provider.
var ErrNotFound = errors.New("no API key stored for provider")

// MissingFieldError indicates a save request with an empty required field.
type MissingFieldError struct {
	// Field is the name of the missing field
	Field string
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// InvalidFormatError indicates an API key that does not carry the expected
// prefix for its provider. The key is rejected and the store is unchanged.
type InvalidFormatError struct {
	// Provider is the provider the key was submitted for
	Provider string

	// Prefix is the prefix the provider's keys must carry
	Prefix string
}

// Error implements the error interface.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid API key format for provider %q: expected prefix %q", e.Provider, e.Prefix)
}
