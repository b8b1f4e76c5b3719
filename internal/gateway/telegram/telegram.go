// Package telegram implements the Telegram gateway: command handling for
// creating and managing reminders, and outbound delivery for the dispatcher.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/gateway"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/storage"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/pkg/logx"
)

const platformID = "telegram"

type Config struct {
	Token       string
	PollTimeout time.Duration
	RatePerSec  int // outbound send cap (Telegram flood control)
}

type Gateway struct {
	cfg Config
	log logx.Logger

	bot     *tele.Bot
	store   storage.Store
	limiter *rate.Limiter

	// poll blocks until stopPoll is called; swapped out in tests.
	poll     func()
	stopPoll func()

	runMu  sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

func New(cfg Config, store storage.Store, log logx.Logger) (*Gateway, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 25
	}

	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	g := &Gateway{
		cfg:     cfg,
		log:     log,
		bot:     b,
		store:   store,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
	g.poll = b.Start
	g.stopPoll = b.Stop
	g.registerHandlers()
	return g, nil
}

func (g *Gateway) PlatformID() string { return platformID }

// Deliver sends a reminder notification to the Telegram user id.
func (g *Gateway) Deliver(ctx context.Context, userID, text string) error {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad telegram user id %q", gateway.ErrUnreachable, userID)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrTransient, err)
	}
	_, err = g.bot.Send(&tele.User{ID: id}, text)
	return classifySendErr(err)
}

func classifySendErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, tele.ErrBlockedByUser),
		errors.Is(err, tele.ErrUserIsDeactivated),
		errors.Is(err, tele.ErrChatNotFound):
		return fmt.Errorf("%w: %v", gateway.ErrUnreachable, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", gateway.ErrTransient, err)
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return fmt.Errorf("%w: %v", gateway.ErrTransient, err)
	}
	return err
}

// Start launches long polling. Telebot's poll loop can exit on persistent API
// failures; it is restarted with backoff until Stop or ctx cancellation.
func (g *Gateway) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	g.runMu.Lock()
	if g.stopCh != nil {
		g.runMu.Unlock()
		return
	}
	g.stopCh = make(chan struct{})
	g.done = make(chan struct{})
	stopCh, done := g.stopCh, g.done
	g.runMu.Unlock()

	// poll blocks; stopPoll makes it return. One watcher owns the stopPoll
	// call, and it exits when the poll loop finishes first.
	go func() {
		select {
		case <-ctx.Done():
		case <-stopCh:
		case <-done:
			return
		}
		g.stopPoll()
	}()

	go func() {
		defer close(done)
		backoff := 500 * time.Millisecond
		for {
			g.log.Info("telegram polling started")
			g.poll()
			select {
			case <-stopCh:
				g.log.Info("telegram polling stopped")
				return
			case <-ctx.Done():
				return
			default:
			}
			g.log.Warn("telegram poller exited; restarting", logx.Duration("backoff", backoff))
			select {
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > 10*time.Second {
				backoff = 10 * time.Second
			}
		}
	}()
}

// Stop halts polling and waits for the poll goroutine, up to the ctx deadline.
func (g *Gateway) Stop(ctx context.Context) {
	g.runMu.Lock()
	stopCh, done := g.stopCh, g.done
	g.stopCh = nil
	g.done = nil
	g.runMu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	select {
	case <-done:
	case <-ctx.Done():
	}
}
