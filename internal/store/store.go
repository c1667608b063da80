// Package store persists report run records in Postgres. The store is
// optional; with no database configured every call is a no-op.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store defines the contract for recording report runs.
type Store interface {
	RecordRunStart(ctx context.Context, runID uuid.UUID, report, product string) error
	RecordRunFinish(ctx context.Context, runID uuid.UUID, rows int, runErr error) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// PGStore writes run records into the reporting.report_run table.
type PGStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

type PGPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// New connects to Postgres. An empty URL yields a store whose methods are
// all no-ops, so callers never need to nil-check.
func New(pgURL string, poolCfg PGPoolConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pgURL == "" {
		return &PGStore{logger: logger}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(pgURL)
	if err != nil {
		return nil, fmt.Errorf("invalid pg config: %w", err)
	}
	if poolCfg.MaxConns > 0 {
		cfg.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		cfg.MinConns = poolCfg.MinConns
	}
	if poolCfg.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = poolCfg.MaxConnLifetime
	}
	if poolCfg.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	}
	if poolCfg.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = poolCfg.HealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PGStore{pool: pool, logger: logger}, nil
}

// RecordRunStart inserts a running row for the report run.
func (s *PGStore) RecordRunStart(ctx context.Context, runID uuid.UUID, report, product string) error {
	if s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reporting.report_run (run_id, report, product, status, started_at)
		VALUES ($1, $2, $3, 'running', NOW())
	`, runID, report, product)
	if err != nil {
		s.logger.Error("store.pg.insert_run_failed", zap.Error(err))
	}
	return err
}

// RecordRunFinish marks the run completed or failed with its row count.
func (s *PGStore) RecordRunFinish(ctx context.Context, runID uuid.UUID, rows int, runErr error) error {
	if s.pool == nil {
		return nil
	}
	status := "completed"
	detail := ""
	if runErr != nil {
		status = "failed"
		detail = runErr.Error()
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE reporting.report_run
		SET status = $2, rows_emitted = $3, error = NULLIF($4, ''), finished_at = NOW()
		WHERE run_id = $1
	`, runID, status, rows, detail)
	if err != nil {
		s.logger.Error("store.pg.update_run_failed", zap.Error(err))
	}
	return err
}

func (s *PGStore) HealthCheck(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (s *PGStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
