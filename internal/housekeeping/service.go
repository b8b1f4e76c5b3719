// Package housekeeping prunes retired reminders on a cron schedule.
//
// Sent rows are kept for a while so operators can audit what went out; this
// service deletes the ones whose due time fell outside the retention window.
package housekeeping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/storage"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/pkg/logx"
)

// Config controls retention.
type Config struct {
	Enabled  bool
	Schedule string        // cron spec (seconds optional) or descriptor, default "@daily"
	KeepFor  time.Duration // how long sent rows are retained, default 7 days
}

func (c Config) withDefaults() Config {
	if c.Schedule == "" {
		c.Schedule = "@daily"
	}
	if c.KeepFor <= 0 {
		c.KeepFor = 7 * 24 * time.Hour
	}
	return c
}

type Service struct {
	mu  sync.Mutex
	cfg Config

	log    logx.Logger
	store  storage.Store
	parser cron.Parser
	c      *cron.Cron

	now func() time.Time // overridable in tests
}

func New(cfg Config, store storage.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:   cfg.withDefaults(),
		log:   log,
		store: store,
		// SecondOptional allows both 5-field and 6-field cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		now:    time.Now,
	}
}

// Start schedules the prune job. Disabled configs start nothing.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil || !s.cfg.Enabled {
		return nil
	}

	sched, err := s.parser.Parse(s.cfg.Schedule)
	if err != nil {
		return fmt.Errorf("retention schedule %q: %w", s.cfg.Schedule, err)
	}

	c := cron.New(cron.WithParser(s.parser))
	c.Schedule(sched, cron.FuncJob(func() { s.prune(ctx) }))
	c.Start()
	s.c = c
	s.log.Info("retention job scheduled", logx.String("spec", s.cfg.Schedule), logx.Duration("keep_for", s.cfg.KeepFor))
	return nil
}

// Stop halts the schedule and waits for a running prune to finish.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Service) prune(ctx context.Context) {
	s.mu.Lock()
	keep := s.cfg.KeepFor
	s.mu.Unlock()

	cutoff := s.now().Add(-keep)
	n, err := s.store.PruneSent(ctx, cutoff)
	if err != nil {
		s.log.Error("retention prune failed", logx.Err(err))
		return
	}
	if n > 0 {
		s.log.Info("pruned retired reminders", logx.Int64("removed", n), logx.Time("cutoff", cutoff))
	}
}
