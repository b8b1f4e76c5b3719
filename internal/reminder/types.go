package reminder

import (
	"errors"
	"time"
)

// MaxTextLen bounds the reminder body (matches the stored column width).
const MaxTextLen = 500

// Resolution and creation failures surfaced to the requesting user.
// Wrapped errors from Store.Create stay reachable via errors.Is.
var (
	ErrUnparseable = errors.New("time expression not recognized")
	ErrPastTime    = errors.New("time is in the past")
	ErrMissingBody = errors.New("reminder text is missing")
	ErrTextTooLong = errors.New("reminder text is too long")
)

// Reminder is a scheduled one-time notification.
//
// Sent is monotonic: it starts false and flips to true exactly once when the
// dispatcher retires the reminder. Sent rows never reappear in due or list
// queries; they are kept for audit until the retention job prunes them.
type Reminder struct {
	ID        int64
	UserID    string
	Platform  string
	Text      string
	DueAt     time.Time
	Sent      bool
	CreatedAt time.Time
}

// Due reports whether the reminder should be delivered at the given instant.
func (r Reminder) Due(now time.Time) bool {
	return !r.Sent && !r.DueAt.After(now)
}
