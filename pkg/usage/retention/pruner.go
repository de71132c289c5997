// Package retention prunes old rows from the usage log on a cron
// schedule.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"keybridge-hq/keybridge/pkg/usage"
)

// Config contains retention settings.
type Config struct {
	// RetentionDays is how long usage rows are kept.
	RetentionDays int

	// PruneSchedule is a cron expression for the pruning job.
	PruneSchedule string
}

// Pruner deletes usage records older than the retention window on a cron
// schedule.
type Pruner struct {
	storage usage.Storage
	config  *Config
	cron    *cron.Cron
	entryID cron.EntryID
	started bool
}

// NewPruner creates a pruner over the given storage.
func NewPruner(storage usage.Storage, cfg *Config) *Pruner {
	return &Pruner{
		storage: storage,
		config:  cfg,
		cron:    cron.New(),
	}
}

// Start registers the pruning job and starts the scheduler.
func (p *Pruner) Start() error {
	if p.started {
		return fmt.Errorf("pruner already started")
	}

	entryID, err := p.cron.AddFunc(p.config.PruneSchedule, p.runPrune)
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", p.config.PruneSchedule, err)
	}
	p.entryID = entryID

	p.cron.Start()
	p.started = true

	slog.Info("usage retention scheduler started",
		"schedule", p.config.PruneSchedule,
		"retention_days", p.config.RetentionDays,
	)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (p *Pruner) Stop() {
	if !p.started {
		return
	}
	ctx := p.cron.Stop()
	<-ctx.Done()
	p.started = false
}

// NextPruning returns the next scheduled pruning time, or nil when the
// scheduler is not running.
func (p *Pruner) NextPruning() *time.Time {
	if !p.started {
		return nil
	}
	next := p.cron.Entry(p.entryID).Next
	return &next
}

// Prune deletes records older than the retention window once, outside the
// schedule.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)
	return p.storage.DeleteBefore(ctx, cutoff)
}

func (p *Pruner) runPrune() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := p.Prune(ctx)
	if err != nil {
		slog.Error("usage pruning failed", "error", err)
		return
	}
	slog.Info("usage records pruned",
		"removed", removed,
		"retention_days", p.config.RetentionDays,
	)
}
