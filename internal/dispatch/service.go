package dispatch

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/gateway"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/reminder"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/storage"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/pkg/logx"
)

// notifyPrefix marks delivered reminders so they stand out from command
// replies in the chat.
const notifyPrefix = "🔔 Reminder!\n\n"

// Config controls the dispatch loop.
type Config struct {
	Interval        time.Duration // time between due scans
	DeliveryTimeout time.Duration // per-delivery deadline
	MaxParallel     int           // concurrent deliveries within one batch
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = 15 * time.Second
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = 4
	}
	return c
}

// Service is the dispatch loop. It is driven by a single goroutine, so ticks
// never overlap; deliveries within one tick run concurrently up to
// MaxParallel.
type Service struct {
	mu  sync.Mutex
	cfg Config

	log      logx.Logger
	store    storage.Store
	gateways *gateway.Registry

	stopCh chan struct{}
	done   chan struct{}

	now func() time.Time // overridable in tests
}

func New(cfg Config, store storage.Store, gateways *gateway.Registry, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:      cfg.withDefaults(),
		log:      log,
		store:    store,
		gateways: gateways,
		now:      time.Now,
	}
}

// Apply updates loop settings. The new interval takes effect when the next
// tick is armed.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg.withDefaults()
	s.mu.Unlock()
}

// Start launches the loop. It is idempotent.
func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.stopCh != nil {
		s.mu.Unlock()
		return
	}
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	stopCh, done := s.stopCh, s.done
	interval := s.cfg.Interval
	s.mu.Unlock()

	s.log.Info("dispatch loop started", logx.Duration("interval", interval))
	go s.loop(ctx, stopCh, done)
}

// Stop prevents new ticks from starting and waits for an in-flight batch to
// finish, up to the ctx deadline. In-flight deliveries are not cancelled.
func (s *Service) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	stopCh, done := s.stopCh, s.done
	s.stopCh = nil
	s.done = nil
	s.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	select {
	case <-done:
		s.log.Info("dispatch loop stopped")
	case <-ctx.Done():
		s.log.Warn("dispatch loop stop timed out; batch finishing in background")
	}
}

func (s *Service) loop(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		s.mu.Lock()
		interval := s.cfg.Interval
		s.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}

		// The batch runs to completion before the next timer is armed,
		// which is what guarantees tick non-overlap.
		s.runBatch(ctx)
	}
}

// runBatch processes one due batch. Any fault is contained here: the loop
// must survive transient store outages and bad gateways.
func (s *Service) runBatch(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in dispatch batch", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()

	now := s.now()
	due, err := s.store.Due(ctx, now)
	if err != nil {
		s.log.Error("due query failed; will retry next tick", logx.Err(err))
		return
	}
	if len(due) == 0 {
		return
	}
	s.log.Debug("dispatching due reminders", logx.Int("count", len(due)))

	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	sem := make(chan struct{}, cfg.MaxParallel)
	var wg sync.WaitGroup
	for _, r := range due {
		r := r
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			// A gateway panic must not escape the delivery goroutine: the
			// batch-level recover lives on another stack. The reminder stays
			// unmarked and is retried next tick.
			defer func() {
				if rec := recover(); rec != nil {
					s.log.Error("panic delivering reminder",
						logx.Int64("reminder_id", r.ID),
						logx.String("platform", r.Platform),
						logx.Any("panic", rec),
						logx.String("stack", string(debug.Stack())),
					)
				}
			}()
			s.dispatchOne(ctx, r, cfg.DeliveryTimeout)
		}()
	}
	wg.Wait()
}

func (s *Service) dispatchOne(ctx context.Context, r reminder.Reminder, timeout time.Duration) {
	log := s.log.With(
		logx.Int64("reminder_id", r.ID),
		logx.String("platform", r.Platform),
		logx.String("user_id", r.UserID),
	)

	g, err := s.gateways.Lookup(r.Platform)
	if err != nil {
		// Left pending on purpose: it will be retried every tick until a
		// gateway for this platform shows up.
		log.Warn("no gateway registered; reminder stays pending", logx.Err(err))
		return
	}

	dctx, cancel := context.WithTimeout(ctx, timeout)
	err = g.Deliver(dctx, r.UserID, notifyPrefix+r.Text)
	cancel()
	if err != nil {
		log.Error("delivery failed; retiring reminder", logx.Err(err))
	} else {
		log.Info("reminder delivered", logx.Time("due_at", r.DueAt))
	}

	// Retire regardless of the delivery outcome. If the mark itself fails the
	// reminder stays due and the whole dispatch repeats next tick, which is
	// the at-least-once side of the contract.
	if err := s.store.MarkSent(ctx, r.ID); err != nil {
		log.Error("mark sent failed; reminder may be re-delivered", logx.Err(err))
	}
}
