// Package config loads and watches the bot configuration file.
//
// YAML and JSON are both accepted; YAML is coerced to JSON so one strict
// decoder (DisallowUnknownFields) covers both formats. All durations are Go
// duration strings (e.g. "500ms", "30s", "1m").
package config

import (
	"errors"
	"strings"
)

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Telegram  TelegramConfig  `json:"telegram"`
	Dispatch  DispatchConfig  `json:"dispatch"`
	Retention RetentionConfig `json:"retention,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig selects the persistence driver.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./reminders.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is the long-poll timeout.
	PollTimeout string `json:"poll_timeout,omitempty"`
	// RatePerSec caps outbound sends (Telegram flood control).
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// DispatchConfig controls the due-reminder scan loop.
type DispatchConfig struct {
	Interval        string `json:"interval,omitempty"`
	DeliveryTimeout string `json:"delivery_timeout,omitempty"`
	MaxParallel     int    `json:"max_parallel,omitempty"`
}

// RetentionConfig controls pruning of sent reminders.
type RetentionConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"` // cron spec, default "@daily"
	KeepFor  string `json:"keep_for,omitempty"` // default "168h"
}

// Validate checks the fields that cannot be defaulted away.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	for _, f := range []struct{ path, raw string }{
		{"storage.busy_timeout", c.Storage.BusyTimeout},
		{"telegram.poll_timeout", c.Telegram.PollTimeout},
		{"dispatch.interval", c.Dispatch.Interval},
		{"dispatch.delivery_timeout", c.Dispatch.DeliveryTimeout},
		{"retention.keep_for", c.Retention.KeepFor},
	} {
		if _, err := Duration(f.path, f.raw, 0); err != nil {
			return err
		}
	}
	return nil
}
