package keystore

import (
	"fmt"
	"strings"
	"sync"
)

// Store is the credential store interface. At most one key is held per
// provider; saving replaces the previous value atomically, and the latest
// write always wins.
type Store interface {
	// Save validates and stores an API key for a provider, replacing any
	// existing key. A rejected key leaves the store unchanged.
	Save(provider, apiKey string) error

	// Lookup returns the stored key for a provider, or ErrNotFound.
	Lookup(provider string) (string, error)

	// Providers returns the names of providers that currently hold a key.
	Providers() []string
}

// keyPrefixes maps known providers to the prefix their API keys must carry.
// Providers absent from this map are stored without format validation.
var keyPrefixes = map[string]string{
	"openai":    "sk-",
	"anthropic": "sk-ant-",
}

// MemoryStore is an in-memory Store implementation guarded by a RWMutex.
// It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys: make(map[string]string),
	}
}

// Save validates and stores an API key for a provider.
func (s *MemoryStore) Save(provider, apiKey string) error {
	if provider == "" {
		return &MissingFieldError{Field: "provider"}
	}
	if apiKey == "" {
		return &MissingFieldError{Field: "apiKey"}
	}

	if prefix, known := keyPrefixes[provider]; known {
		if !strings.HasPrefix(apiKey, prefix) {
			return &InvalidFormatError{Provider: provider, Prefix: prefix}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[provider] = apiKey
	return nil
}

// Lookup returns the stored key for a provider.
func (s *MemoryStore) Lookup(provider string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[provider]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrNotFound, provider)
	}
	return key, nil
}

// Providers returns the names of providers that currently hold a key.
func (s *MemoryStore) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.keys))
	for name := range s.keys {
		names = append(names, name)
	}
	return names
}
