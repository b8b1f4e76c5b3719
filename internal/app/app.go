// Package app wires configuration, logging, storage, gateways and the
// dispatch loop into one process.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/config"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/dispatch"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/gateway"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/gateway/telegram"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/housekeeping"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/reminder"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/storage"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	store      storage.Store
	registry   *gateway.Registry
	tg         *telegram.Gateway
	dispatcher *dispatch.Service
	keeper     *housekeeping.Service

	watchCancel context.CancelFunc
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logxConfig(cfg.Logging))
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	res := reminder.NewResolver()

	storeCfg, err := storageConfig(cfg.Storage)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storeCfg, res, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	tgCfg, err := telegramConfig(cfg.Telegram)
	if err != nil {
		return nil, err
	}
	tg, err := telegram.New(tgCfg, store, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, fmt.Errorf("telegram gateway: %w", err)
	}

	registry := gateway.NewRegistry()
	if err := registry.Register(tg); err != nil {
		return nil, err
	}

	dispatchCfg, err := dispatchConfig(cfg.Dispatch)
	if err != nil {
		return nil, err
	}
	dispatcher := dispatch.New(dispatchCfg, store, registry, log.With(logx.String("comp", "dispatch")))

	keepCfg, err := retentionConfig(cfg.Retention)
	if err != nil {
		return nil, err
	}
	keeper := housekeeping.New(keepCfg, store, log.With(logx.String("comp", "housekeeping")))

	return &App{
		cfgMgr:     mgr,
		logSvc:     logSvc,
		log:        log,
		store:      store,
		registry:   registry,
		tg:         tg,
		dispatcher: dispatcher,
		keeper:     keeper,
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	if err := a.keeper.Start(ctx); err != nil {
		return err
	}
	a.tg.Start(ctx)
	a.dispatcher.Start(ctx)

	// Config edits apply live where the services support it.
	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	go func() {
		if err := a.cfgMgr.Watch(wctx, a.applyConfig); err != nil {
			a.log.Warn("config watch unavailable", logx.Err(err))
		}
	}()

	a.log.Info("started", logx.Any("platforms", a.registry.Platforms()))
	return nil
}

func (a *App) applyConfig(cfg *config.Config) {
	a.logSvc.Apply(logxConfig(cfg.Logging))
	if d, err := dispatchConfig(cfg.Dispatch); err == nil {
		a.dispatcher.Apply(d)
	}
	// Storage, telegram and retention changes need a restart.
	a.log.Info("config applied", logx.String("level", cfg.Logging.Level))
}

func (a *App) Stop(ctx context.Context) error {
	if a.watchCancel != nil {
		a.watchCancel()
	}
	a.dispatcher.Stop(ctx)
	a.keeper.Stop(ctx)
	a.tg.Stop(ctx)
	err := a.store.Close()
	a.log.Info("stopped")
	_ = a.logSvc.Close()
	return err
}

// ---- config type mapping ----

func logxConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File:    logx.FileConfig{Enabled: c.File.Enabled, Path: c.File.Path},
	}
}

func storageConfig(c config.StorageConfig) (storage.Config, error) {
	busy, err := config.Duration("storage.busy_timeout", c.BusyTimeout, 5*time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	path := c.Path
	if path == "" {
		path = "./reminders.db"
	}
	return storage.Config{Driver: c.Driver, Path: path, BusyTimeout: busy}, nil
}

func telegramConfig(c config.TelegramConfig) (telegram.Config, error) {
	poll, err := config.Duration("telegram.poll_timeout", c.PollTimeout, 10*time.Second)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{Token: c.Token, PollTimeout: poll, RatePerSec: c.RatePerSec}, nil
}

func dispatchConfig(c config.DispatchConfig) (dispatch.Config, error) {
	interval, err := config.Duration("dispatch.interval", c.Interval, 30*time.Second)
	if err != nil {
		return dispatch.Config{}, err
	}
	timeout, err := config.Duration("dispatch.delivery_timeout", c.DeliveryTimeout, 15*time.Second)
	if err != nil {
		return dispatch.Config{}, err
	}
	return dispatch.Config{Interval: interval, DeliveryTimeout: timeout, MaxParallel: c.MaxParallel}, nil
}

func retentionConfig(c config.RetentionConfig) (housekeeping.Config, error) {
	keep, err := config.Duration("retention.keep_for", c.KeepFor, 7*24*time.Hour)
	if err != nil {
		return housekeeping.Config{}, err
	}
	return housekeeping.Config{Enabled: c.Enabled, Schedule: c.Schedule, KeepFor: keep}, nil
}
