package housekeeping

import (
	"context"
	"testing"
	"time"

	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/reminder"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/storage"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/pkg/logx"
)

func TestPruneRemovesOldSentRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemory(reminder.NewResolver())
	defer store.Close()

	old, err := store.Create(ctx, "telegram", "42", "in 1 hour old one")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.MarkSent(ctx, old.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	// Unsent rows are never pruned, no matter how old.
	if _, err := store.Create(ctx, "telegram", "42", "in 2 hours keep me"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	svc := New(Config{Enabled: true, KeepFor: time.Minute}, store, logx.Nop())
	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	svc.prune(ctx)

	active, err := store.ListActive(ctx, "telegram", "42")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected the unsent reminder to survive, got %+v", active)
	}
	if n, err := store.PruneSent(ctx, time.Now().Add(72*time.Hour)); err != nil || n != 0 {
		t.Fatalf("expected sent row already pruned, removed=%d err=%v", n, err)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	t.Parallel()
	store := storage.NewMemory(reminder.NewResolver())
	defer store.Close()

	svc := New(Config{Enabled: true, Schedule: "not-a-spec"}, store, logx.Nop())
	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()
	store := storage.NewMemory(reminder.NewResolver())
	defer store.Close()

	svc := New(Config{Enabled: true, Schedule: "@every 1h"}, store, logx.Nop())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start (repeat): %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.Stop(ctx)
	svc.Stop(ctx)
}
