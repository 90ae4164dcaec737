package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"ratelim/internal/config"
	"ratelim/internal/model"
)

// Store is the audit log of permitted firings. Only firings are persisted;
// the gate itself always starts cold after a restart.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveFiring(ctx context.Context, f model.Firing) error
	CountFirings(ctx context.Context) (int64, error)
	RecentFirings(ctx context.Context, limit int) ([]model.Firing, error)
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *baseStore) countFirings(ctx context.Context) (int64, error) {
	if b.db == nil {
		return 0, nil
	}
	var n int64
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM firings`).Scan(&n)
	return n, err
}

// Timestamps and durations are stored as integer milliseconds so both
// backends scan identically.
func scanFirings(rows *sql.Rows) ([]model.Firing, error) {
	defer rows.Close()
	out := make([]model.Firing, 0)
	for rows.Next() {
		var f model.Firing
		var firedAtMs, sincePrevMs, actionMs int64
		if err := rows.Scan(&f.Seq, &firedAtMs, &f.Source, &sincePrevMs, &actionMs, &f.Suppressed, &f.ActionError); err != nil {
			return nil, err
		}
		f.FiredAt = time.UnixMilli(firedAtMs).UTC()
		f.SincePrevious = time.Duration(sincePrevMs) * time.Millisecond
		f.ActionDuration = time.Duration(actionMs) * time.Millisecond
		out = append(out, f)
	}
	return out, rows.Err()
}
