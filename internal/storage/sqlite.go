package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/reminder"
	"github.com/Neuron-Ecosystem/telegram-reminder-bot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	res *reminder.Resolver
	log logx.Logger

	now func() time.Time // overridable in tests
}

func openSQLite(cfg Config, res *reminder.Resolver, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, res: res, log: log, now: time.Now}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Create(ctx context.Context, platform, userID, rawText string) (*reminder.Reminder, error) {
	now := s.now()
	dueAt, body, err := s.res.Resolve(rawText, now)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", rawText, err)
	}

	r := &reminder.Reminder{
		UserID:    userID,
		Platform:  platform,
		Text:      body,
		DueAt:     dueAt,
		CreatedAt: now,
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders(user_id, platform, text, due_at, sent, created_at)
		 VALUES(?,?,?,?,0,?)`,
		r.UserID, r.Platform, r.Text, r.DueAt.UnixMilli(), r.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *sqliteStore) Due(ctx context.Context, now time.Time) ([]reminder.Reminder, error) {
	return s.query(ctx,
		`SELECT id, user_id, platform, text, due_at, sent, created_at
		 FROM reminders WHERE sent = 0 AND due_at <= ?`,
		now.UnixMilli(),
	)
}

func (s *sqliteStore) MarkSent(ctx context.Context, id int64) error {
	// No-op when the row is absent or already sent; retries after delivery
	// failures must not error out.
	_, err := s.db.ExecContext(ctx, `UPDATE reminders SET sent = 1 WHERE id = ? AND sent = 0`, id)
	return err
}

func (s *sqliteStore) ListActive(ctx context.Context, platform, userID string) ([]reminder.Reminder, error) {
	return s.query(ctx,
		`SELECT id, user_id, platform, text, due_at, sent, created_at
		 FROM reminders WHERE platform = ? AND user_id = ? AND sent = 0
		 ORDER BY due_at ASC`,
		platform, userID,
	)
}

func (s *sqliteStore) ClearActive(ctx context.Context, platform, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE platform = ? AND user_id = ? AND sent = 0`,
		platform, userID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sqliteStore) PruneSent(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE sent = 1 AND due_at < ?`,
		olderThan.UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sqliteStore) query(ctx context.Context, q string, args ...any) ([]reminder.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reminder.Reminder
	for rows.Next() {
		var (
			r            reminder.Reminder
			due, created int64
			sent         int
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Platform, &r.Text, &due, &sent, &created); err != nil {
			return nil, err
		}
		r.DueAt = time.UnixMilli(due)
		r.CreatedAt = time.UnixMilli(created)
		r.Sent = sent != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
