package storage

import (
	"errors"
	"strings"

	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/reminder"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/pkg/logx"
)

// Open initializes the configured store.
func Open(cfg Config, res *reminder.Resolver, log logx.Logger) (Store, error) {
	if res == nil {
		return nil, errors.New("storage: resolver is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, res, log)
	case "memory":
		return NewMemory(res), nil
	default:
		return nil, errors.New("unknown storage driver: " + cfg.Driver)
	}
}
