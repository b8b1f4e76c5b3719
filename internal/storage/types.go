package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/reminder"
)

var ErrClosed = errors.New("storage closed")

// Config configures storage.
//
// Driver values:
//   - "sqlite" (or empty): SQLite database file
//   - "memory": in-memory, lost on restart
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the reminder persistence API used by the gateways and the
// dispatcher.
//
// Create resolves the leading time expression of rawText and persists the
// remainder as the message body; resolution failures come back wrapped so
// callers can match reminder.ErrUnparseable, ErrPastTime, ErrMissingBody and
// ErrTextTooLong with errors.Is.
//
// MarkSent is idempotent: marking an already-sent or absent id is a no-op,
// because the dispatcher may retry the mark after a delivery failure.
type Store interface {
	Create(ctx context.Context, platform, userID, rawText string) (*reminder.Reminder, error)
	Due(ctx context.Context, now time.Time) ([]reminder.Reminder, error)
	MarkSent(ctx context.Context, id int64) error
	ListActive(ctx context.Context, platform, userID string) ([]reminder.Reminder, error)
	ClearActive(ctx context.Context, platform, userID string) (int64, error)
	PruneSent(ctx context.Context, olderThan time.Time) (int64, error)
	Close() error
}
