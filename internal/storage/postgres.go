package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ratelim/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/ratelimd?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS firings (
			id BIGSERIAL PRIMARY KEY,
			seq BIGINT NOT NULL,
			fired_at_ms BIGINT NOT NULL,
			source TEXT NOT NULL,
			since_previous_ms BIGINT NOT NULL,
			action_duration_ms BIGINT NOT NULL,
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

func (s *postgresStore) SaveFiring(ctx context.Context, f model.Firing) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO firings (seq, fired_at_ms, source, since_previous_ms, action_duration_ms, suppressed, action_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
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

func (s *postgresStore) CountFirings(ctx context.Context) (int64, error) {
	return s.countFirings(ctx)
}

func (s *postgresStore) RecentFirings(ctx context.Context, limit int) ([]model.Firing, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, fired_at_ms, source, since_previous_ms, action_duration_ms, suppressed, action_error
		FROM firings ORDER BY fired_at_ms DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return scanFirings(rows)
}
