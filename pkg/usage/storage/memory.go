// Package storage provides the usage log backends: an in-memory store for
// development and tests, and a SQLite store for durable accounting.
package storage

import (
	"context"
	"sync"
	"time"

	"keybridge-hq/keybridge/pkg/usage"
)

// MemoryStorage is an in-memory usage log backend.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*usage.Record
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Insert persists one usage record.
func (s *MemoryStorage) Insert(ctx context.Context, record *usage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	s.records = append(s.records, &copied)
	return nil
}

// DeleteBefore removes records older than cutoff.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for _, record := range s.records {
		if record.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	s.records = kept
	return removed, nil
}

// Count returns the number of stored records.
func (s *MemoryStorage) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// Records returns a snapshot of all stored records, oldest first.
func (s *MemoryStorage) Records() []*usage.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*usage.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Close releases no resources for the memory backend.
func (s *MemoryStorage) Close() error {
	return nil
}
