package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/reminder"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/pkg/logx"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)

// openTestStore returns a store of the given driver with a frozen clock.
func openTestStore(t *testing.T, driver string) Store {
	t.Helper()
	res := reminder.NewResolver()

	cfg := Config{Driver: driver}
	if driver == "sqlite" {
		cfg.Path = filepath.Join(t.TempDir(), "reminders.db")
	}
	s, err := Open(cfg, res, logx.Nop())
	if err != nil {
		t.Fatalf("Open(%s): %v", driver, err)
	}
	t.Cleanup(func() { _ = s.Close() })

	clock := func() time.Time { return base }
	switch st := s.(type) {
	case *sqliteStore:
		st.now = clock
	case *memoryStore:
		st.now = clock
	default:
		t.Fatalf("unexpected store type %T", s)
	}
	return s
}

func forEachDriver(t *testing.T, fn func(t *testing.T, s Store)) {
	for _, driver := range []string{"sqlite", "memory"} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			fn(t, openTestStore(t, driver))
		})
	}
}

func TestCreateResolvesDueTime(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		r, err := s.Create(ctx, "telegram", "42", "in 10 minutes buy milk")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if r.ID == 0 {
			t.Fatal("expected store-assigned id")
		}
		if r.Sent {
			t.Fatal("new reminder must not be sent")
		}
		if want := base.Add(10 * time.Minute); !r.DueAt.Equal(want) {
			t.Fatalf("DueAt = %v, want %v", r.DueAt, want)
		}
		if r.Text != "buy milk" {
			t.Fatalf("Text = %q", r.Text)
		}
	})
}

func TestCreatePropagatesResolutionErrors(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		tests := []struct {
			raw  string
			want error
		}{
			{raw: "gibberish buy milk", want: reminder.ErrUnparseable},
			{raw: "yesterday buy milk", want: reminder.ErrPastTime},
			{raw: "17:00", want: reminder.ErrMissingBody},
		}
		for _, tt := range tests {
			if _, err := s.Create(ctx, "telegram", "42", tt.raw); !errors.Is(err, tt.want) {
				t.Fatalf("Create(%q) error = %v, want %v", tt.raw, err, tt.want)
			}
		}
	})
}

func TestDueAndMarkSentLifecycle(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		r, err := s.Create(ctx, "telegram", "42", "in 10 minutes buy milk")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		// Not yet due.
		got, err := s.Due(ctx, base.Add(5*time.Minute))
		if err != nil {
			t.Fatalf("Due: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no due reminders, got %d", len(got))
		}

		// Due after the deadline.
		got, err = s.Due(ctx, base.Add(11*time.Minute))
		if err != nil {
			t.Fatalf("Due: %v", err)
		}
		if len(got) != 1 || got[0].ID != r.ID {
			t.Fatalf("expected reminder %d due, got %+v", r.ID, got)
		}

		if err := s.MarkSent(ctx, r.ID); err != nil {
			t.Fatalf("MarkSent: %v", err)
		}
		// Marking twice is a no-op, not an error.
		if err := s.MarkSent(ctx, r.ID); err != nil {
			t.Fatalf("MarkSent (repeat): %v", err)
		}
		// Absent ids are also a no-op.
		if err := s.MarkSent(ctx, r.ID+1000); err != nil {
			t.Fatalf("MarkSent (absent): %v", err)
		}

		// Sent reminders never come back.
		got, err = s.Due(ctx, base.Add(20*time.Minute))
		if err != nil {
			t.Fatalf("Due: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("sent reminder returned by Due: %+v", got)
		}
		active, err := s.ListActive(ctx, "telegram", "42")
		if err != nil {
			t.Fatalf("ListActive: %v", err)
		}
		if len(active) != 0 {
			t.Fatalf("sent reminder returned by ListActive: %+v", active)
		}
	})
}

func TestListActiveOrdering(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		for _, raw := range []string{"in 3 hours later one", "in 1 hour early one", "in 2 hours middle one"} {
			if _, err := s.Create(ctx, "telegram", "42", raw); err != nil {
				t.Fatalf("Create(%q): %v", raw, err)
			}
		}
		// Another user's reminder must not leak into the list.
		if _, err := s.Create(ctx, "telegram", "99", "in 1 hour other user"); err != nil {
			t.Fatalf("Create: %v", err)
		}

		active, err := s.ListActive(ctx, "telegram", "42")
		if err != nil {
			t.Fatalf("ListActive: %v", err)
		}
		if len(active) != 3 {
			t.Fatalf("expected 3 reminders, got %d", len(active))
		}
		for i := 1; i < len(active); i++ {
			if active[i].DueAt.Before(active[i-1].DueAt) {
				t.Fatalf("ListActive not ascending by DueAt: %+v", active)
			}
		}
	})
}

func TestClearActive(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		for _, raw := range []string{"in 1 hour a", "in 2 hours b"} {
			if _, err := s.Create(ctx, "telegram", "42", raw); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}
		keep, err := s.Create(ctx, "discord", "42", "in 1 hour other platform")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		n, err := s.ClearActive(ctx, "telegram", "42")
		if err != nil {
			t.Fatalf("ClearActive: %v", err)
		}
		if n != 2 {
			t.Fatalf("ClearActive count = %d, want 2", n)
		}

		active, err := s.ListActive(ctx, "telegram", "42")
		if err != nil {
			t.Fatalf("ListActive: %v", err)
		}
		if len(active) != 0 {
			t.Fatalf("expected empty list after clear, got %+v", active)
		}

		// The same user on another platform is untouched.
		other, err := s.ListActive(ctx, "discord", "42")
		if err != nil {
			t.Fatalf("ListActive: %v", err)
		}
		if len(other) != 1 || other[0].ID != keep.ID {
			t.Fatalf("cross-platform reminder affected by clear: %+v", other)
		}
	})
}

func TestPruneSent(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		old, err := s.Create(ctx, "telegram", "42", "in 1 hour old one")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		fresh, err := s.Create(ctx, "telegram", "42", "in 48 hours fresh one")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		for _, id := range []int64{old.ID, fresh.ID} {
			if err := s.MarkSent(ctx, id); err != nil {
				t.Fatalf("MarkSent: %v", err)
			}
		}

		n, err := s.PruneSent(ctx, base.Add(24*time.Hour))
		if err != nil {
			t.Fatalf("PruneSent: %v", err)
		}
		if n != 1 {
			t.Fatalf("PruneSent removed %d rows, want 1", n)
		}
	})
}
