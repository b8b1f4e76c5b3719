package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/reminder"
)

// memoryStore keeps reminders in a map guarded by one mutex. Every operation
// runs under the lock, which trivially gives the same atomic-per-record
// semantics as the sqlite driver.
type memoryStore struct {
	mu     sync.Mutex
	res    *reminder.Resolver
	nextID int64
	items  map[int64]reminder.Reminder
	closed bool

	now func() time.Time
}

// NewMemory returns a process-local Store. State is lost on Close.
func NewMemory(res *reminder.Resolver) Store {
	return &memoryStore{
		res:    res,
		nextID: 1,
		items:  map[int64]reminder.Reminder{},
		now:    time.Now,
	}
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items = nil
	return nil
}

func (s *memoryStore) Create(ctx context.Context, platform, userID, rawText string) (*reminder.Reminder, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	now := s.now()
	dueAt, body, err := s.res.Resolve(rawText, now)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", rawText, err)
	}

	r := reminder.Reminder{
		ID:        s.nextID,
		UserID:    userID,
		Platform:  platform,
		Text:      body,
		DueAt:     dueAt,
		CreatedAt: now,
	}
	s.nextID++
	s.items[r.ID] = r
	cp := r
	return &cp, nil
}

func (s *memoryStore) Due(ctx context.Context, now time.Time) ([]reminder.Reminder, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	var out []reminder.Reminder
	for _, r := range s.items {
		if r.Due(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memoryStore) MarkSent(ctx context.Context, id int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	r, ok := s.items[id]
	if !ok || r.Sent {
		return nil
	}
	r.Sent = true
	s.items[id] = r
	return nil
}

func (s *memoryStore) ListActive(ctx context.Context, platform, userID string) ([]reminder.Reminder, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	var out []reminder.Reminder
	for _, r := range s.items {
		if !r.Sent && r.Platform == platform && r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

func (s *memoryStore) ClearActive(ctx context.Context, platform, userID string) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	var n int64
	for id, r := range s.items {
		if !r.Sent && r.Platform == platform && r.UserID == userID {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) PruneSent(ctx context.Context, olderThan time.Time) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	var n int64
	for id, r := range s.items {
		if r.Sent && r.DueAt.Before(olderThan) {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}
