package reminder

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestResolveClockRollover(t *testing.T) {
	t.Parallel()
	r := NewResolver()
	now := time.Date(2024, 1, 1, 18, 0, 0, 0, time.Local)

	due, body, err := r.Resolve("17:00 team sync", now)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	want := time.Date(2024, 1, 2, 17, 0, 0, 0, time.Local)
	if !due.Equal(want) {
		t.Fatalf("due = %v, want %v", due, want)
	}
	if body != "team sync" {
		t.Fatalf("body = %q, want %q", body, "team sync")
	}
}

func TestResolveClockStillToday(t *testing.T) {
	t.Parallel()
	r := NewResolver()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)

	due, _, err := r.Resolve("17:00 standup", now)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	want := time.Date(2024, 1, 1, 17, 0, 0, 0, time.Local)
	if !due.Equal(want) {
		t.Fatalf("due = %v, want %v", due, want)
	}
}

func TestResolveRelativePhrases(t *testing.T) {
	t.Parallel()
	r := NewResolver()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		raw  string
		want time.Time
		body string
	}{
		{name: "english deadline", raw: "in 10 minutes buy milk", want: now.Add(10 * time.Minute), body: "buy milk"},
		{name: "russian deadline", raw: "через 1 час купить молоко", want: now.Add(time.Hour), body: "купить молоко"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			due, body, err := r.Resolve(tt.raw, now)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.raw, err)
			}
			if !due.Equal(tt.want) {
				t.Fatalf("due = %v, want %v", due, tt.want)
			}
			if body != tt.body {
				t.Fatalf("body = %q, want %q", body, tt.body)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()
	r := NewResolver()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "empty input", raw: "", want: ErrUnparseable},
		{name: "no time grammar", raw: "foobar buy milk", want: ErrUnparseable},
		{name: "past relative date", raw: "yesterday buy milk", want: ErrPastTime},
		{name: "clock without body", raw: "17:00", want: ErrMissingBody},
		{name: "phrase without body", raw: "in 10 minutes", want: ErrMissingBody},
		{name: "body too long", raw: "17:00 " + strings.Repeat("a", MaxTextLen+1), want: ErrTextTooLong},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := r.Resolve(tt.raw, now)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Resolve(%q) error = %v, want %v", tt.raw, err, tt.want)
			}
		})
	}
}

// Resolve must be a pure function of (raw, now).
func TestResolveDeterministic(t *testing.T) {
	t.Parallel()
	r := NewResolver()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)

	d1, b1, err1 := r.Resolve("in 2 hours water plants", now)
	d2, b2, err2 := r.Resolve("in 2 hours water plants", now)
	if err1 != nil || err2 != nil {
		t.Fatalf("Resolve errors: %v / %v", err1, err2)
	}
	if !d1.Equal(d2) || b1 != b2 {
		t.Fatalf("resolution not deterministic: (%v,%q) vs (%v,%q)", d1, b1, d2, b2)
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()
	if h, m, ok := parseClock("23:15"); !ok || h != 23 || m != 15 {
		t.Fatalf("parseClock(23:15) = %d:%d ok=%v", h, m, ok)
	}
	for _, bad := range []string{"24:00", "12:60", "12:5", "12", "a:b", "12:34:56"} {
		if _, _, ok := parseClock(bad); ok {
			t.Fatalf("parseClock(%q) unexpectedly ok", bad)
		}
	}
}
