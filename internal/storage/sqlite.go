package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"ratelim/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:ratelimd.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS firings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seq INTEGER NOT NULL,
			fired_at_ms INTEGER NOT NULL,
			source TEXT NOT NULL,
			since_previous_ms INTEGER NOT NULL,
			action_duration_ms INTEGER NOT NULL,
			suppressed INTEGER NOT NULL,
			action_error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_firings_fired_at ON firings(fired_at_ms)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) SaveFiring(ctx context.Context, f model.Firing) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO firings (seq, fired_at_ms, source, since_previous_ms, action_duration_ms, suppressed, action_error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Seq,
		f.FiredAt.UTC().UnixMilli(),
		f.Source,
		f.SincePrevious.Milliseconds(),
		f.ActionDuration.Milliseconds(),
		f.Suppressed,
		f.ActionError,
	)
	return err
}

func (s *sqliteStore) CountFirings(ctx context.Context) (int64, error) {
	return s.countFirings(ctx)
}

func (s *sqliteStore) RecentFirings(ctx context.Context, limit int) ([]model.Firing, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, fired_at_ms, source, since_previous_ms, action_duration_ms, suppressed, action_error
		FROM firings ORDER BY fired_at_ms DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanFirings(rows)
}
