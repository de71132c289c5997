package usage

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Recorder writes usage records to storage asynchronously so request
// handling never blocks on the usage log. When the queue is full, records
// are dropped and counted rather than stalling the caller.
type Recorder struct {
	storage Storage
	queue   chan *Record
	dropped atomic.Int64
	wg      sync.WaitGroup
	once    sync.Once
}

// writeTimeout bounds one storage insert.
const writeTimeout = 5 * time.Second

// NewRecorder creates a recorder over the given storage and starts its
// background writer.
func NewRecorder(storage Storage, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 1024
	}

	r := &Recorder{
		storage: storage,
		queue:   make(chan *Record, buffer),
	}

	r.wg.Add(1)
	go r.writeLoop()

	return r
}

// Record enqueues one usage record. Missing ID and Timestamp fields are
// filled in. Never blocks; a full queue drops the record.
func (r *Recorder) Record(record *Record) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	select {
	case r.queue <- record:
	default:
		if r.dropped.Add(1)%100 == 1 {
			slog.Warn("usage queue full, dropping records", "dropped_total", r.dropped.Load())
		}
	}
}

// Dropped returns the number of records dropped due to a full queue.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close drains the queue and stops the background writer. The storage
// itself is not closed; its owner closes it.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.queue)
		r.wg.Wait()
	})
}

func (r *Recorder) writeLoop() {
	defer r.wg.Done()

	for record := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.storage.Insert(ctx, record); err != nil {
			slog.Warn("failed to write usage record",
				"record_id", record.ID,
				"provider", record.Provider,
				"error", err,
			)
		}
		cancel()
	}
}
