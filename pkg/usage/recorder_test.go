package usage

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// blockingStorage is a Storage whose inserts wait until released.
type blockingStorage struct {
	mu      sync.Mutex
	records []*Record
	gate    chan struct{}
}

func newBlockingStorage(gate chan struct{}) *blockingStorage {
	return &blockingStorage{gate: gate}
}

func (s *blockingStorage) Insert(ctx context.Context, record *Record) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *blockingStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *blockingStorage) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.records)), nil
}

func (s *blockingStorage) Close() error { return nil }

func (s *blockingStorage) stored() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// TestRecorder_WritesAsync tests that enqueued records reach storage.
func TestRecorder_WritesAsync(t *testing.T) {
	store := newBlockingStorage(nil)
	recorder := NewRecorder(store, 16)

	recorder.Record(&Record{Provider: "openai", Model: "gpt-4o", Status: StatusSuccess})
	recorder.Record(&Record{Provider: "anthropic", Model: "claude-sonnet-4", Status: StatusError})
	recorder.Close()

	records := store.stored()
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID == "" {
		t.Error("Expected the recorder to fill in the record ID")
	}
	if records[0].Timestamp.IsZero() {
		t.Error("Expected the recorder to fill in the timestamp")
	}
}

// TestRecorder_DropsWhenFull tests that a saturated queue drops instead of
// blocking the caller.
func TestRecorder_DropsWhenFull(t *testing.T) {
	gate := make(chan struct{})
	store := newBlockingStorage(gate)
	recorder := NewRecorder(store, 1)

	// The writer is stuck on the gate; the buffer holds one more record,
	// so everything past the second enqueue drops.
	for i := 0; i < 10; i++ {
		recorder.Record(&Record{Provider: "openai", Status: StatusSuccess})
	}

	if recorder.Dropped() == 0 {
		t.Error("Expected dropped records with a saturated queue")
	}

	close(gate)
	recorder.Close()
}

// TestRecorder_CloseIdempotent tests calling Close more than once.
func TestRecorder_CloseIdempotent(t *testing.T) {
	recorder := NewRecorder(newBlockingStorage(nil), 4)
	recorder.Close()
	recorder.Close()
}

// TestTokenCounts tests extraction from both provider usage shapes.
func TestTokenCounts(t *testing.T) {
	cases := []struct {
		name           string
		raw            string
		wantPrompt     int
		wantCompletion int
	}{
		{"openai_shape", `{"prompt_tokens": 12, "completion_tokens": 34, "total_tokens": 46}`, 12, 34},
		{"anthropic_shape", `{"input_tokens": 7, "output_tokens": 9}`, 7, 9},
		{"empty", ``, 0, 0},
		{"unknown_shape", `{"whatever": true}`, 0, 0},
		{"malformed", `{nope`, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prompt, completion := TokenCounts(json.RawMessage(tc.raw))
			if prompt != tc.wantPrompt || completion != tc.wantCompletion {
				t.Errorf("TokenCounts(%s) = (%d, %d), want (%d, %d)",
					tc.raw, prompt, completion, tc.wantPrompt, tc.wantCompletion)
			}
		})
	}
}
