package retention

import (
	"context"
	"testing"
	"time"

	"keybridge-hq/keybridge/pkg/usage"
	"keybridge-hq/keybridge/pkg/usage/storage"
)

// TestPruner_Prune tests a one-shot prune against the retention window.
func TestPruner_Prune(t *testing.T) {
	store := storage.NewMemoryStorage()
	ctx := context.Background()
	now := time.Now()

	store.Insert(ctx, &usage.Record{ID: "ancient", Timestamp: now.AddDate(0, 0, -40)})
	store.Insert(ctx, &usage.Record{ID: "recent", Timestamp: now.AddDate(0, 0, -5)})

	pruner := NewPruner(store, &Config{RetentionDays: 30, PruneSchedule: "@daily"})

	removed, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}

	count, _ := store.Count(ctx)
	if count != 1 {
		t.Errorf("Expected 1 record left, got %d", count)
	}
}

// TestPruner_StartStop tests the scheduler lifecycle.
func TestPruner_StartStop(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), &Config{
		RetentionDays: 30,
		PruneSchedule: "@hourly",
	})

	if next := pruner.NextPruning(); next != nil {
		t.Error("Expected no next pruning before Start")
	}

	if err := pruner.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := pruner.Start(); err == nil {
		t.Error("Expected an error on double Start")
	}

	next := pruner.NextPruning()
	if next == nil || next.IsZero() {
		t.Error("Expected a scheduled next pruning time")
	}

	pruner.Stop()
	pruner.Stop() // idempotent

	if next := pruner.NextPruning(); next != nil {
		t.Error("Expected no next pruning after Stop")
	}
}

// TestPruner_InvalidSchedule tests rejecting a bad cron expression.
func TestPruner_InvalidSchedule(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), &Config{
		RetentionDays: 30,
		PruneSchedule: "not a schedule",
	})

	if err := pruner.Start(); err == nil {
		t.Error("Expected an error for an invalid schedule")
	}
}
