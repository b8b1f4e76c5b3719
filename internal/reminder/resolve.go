package reminder

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/olebedev/when/rules/ru"
)

// Resolver splits a raw "<time expression> <text>" input into an absolute due
// instant and the message body.
//
// Resolution is a pure function of (raw, now): the underlying rule set is
// immutable after construction, so a Resolver is safe for concurrent use.
type Resolver struct {
	w *when.Parser
}

// NewResolver builds a resolver that understands English and Russian time
// expressions ("in 10 minutes", "tomorrow at 9:30", "через 1 час", "завтра").
func NewResolver() *Resolver {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(ru.All...)
	w.Add(common.All...)
	return &Resolver{w: w}
}

// Resolve returns the due instant and the remaining body text.
//
// The time expression must lead the input. A bare clock time ("17:00") that
// already passed today rolls over to the same time tomorrow; any other
// expression resolving to the past is rejected with ErrPastTime.
func (r *Resolver) Resolve(raw string, now time.Time) (time.Time, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, "", ErrUnparseable
	}

	token, rest := splitFirst(raw)

	// Bare HH:MM is resolved deterministically, independent of locale rules.
	if hour, minute, ok := parseClock(token); ok {
		due := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !due.After(now) {
			due = due.Add(24 * time.Hour)
		}
		body, err := checkBody(rest)
		if err != nil {
			return time.Time{}, "", err
		}
		return due, body, nil
	}

	res, err := r.w.Parse(raw, now)
	if err != nil || res == nil {
		return time.Time{}, "", ErrUnparseable
	}
	// The match must anchor the input; a time expression buried mid-sentence
	// means the leading token was not a time at all.
	if res.Index != 0 {
		return time.Time{}, "", ErrUnparseable
	}

	due := res.Time
	if !due.After(now) {
		if strings.Contains(res.Text, ":") {
			// Clock-time expression that already passed today.
			due = due.Add(24 * time.Hour)
		} else {
			return time.Time{}, "", ErrPastTime
		}
	}

	body, err := checkBody(raw[len(res.Text):])
	if err != nil {
		return time.Time{}, "", err
	}
	return due, body, nil
}

func checkBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrMissingBody
	}
	if utf8.RuneCountInString(body) > MaxTextLen {
		return "", ErrTextTooLong
	}
	return body, nil
}

// splitFirst returns the first whitespace-delimited token and the remainder.
func splitFirst(s string) (token, rest string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func parseClock(s string) (hour, minute int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, 0, false
	}
	return h, m, true
}
