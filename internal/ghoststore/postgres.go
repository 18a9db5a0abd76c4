package ghoststore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"spindoctor/internal/ghost"
)

const postgresSchema = `
CREATE SCHEMA IF NOT EXISTS spin;
CREATE TABLE IF NOT EXISTS spin.ghost_runs (
	id            TEXT PRIMARY KEY,
	player        TEXT NOT NULL,
	turns         INTEGER NOT NULL,
	final_support DOUBLE PRECISION NOT NULL,
	final_risk    INTEGER NOT NULL,
	victory       BOOLEAN NOT NULL,
	banned        BOOLEAN NOT NULL,
	snapshots     JSONB NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ghost_runs_finished_at ON spin.ghost_runs (finished_at);
`

// PostgresStore keeps ghost runs in the spin.ghost_runs table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres ensures the schema exists and takes ownership of the pool.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres pool is required")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run ghost.Run) error {
	rec, err := prepare(run)
	if err != nil {
		return err
	}
	cmd, err := s.pool.Exec(ctx, `
		INSERT INTO spin.ghost_runs (id, player, turns, final_support, final_risk, victory, banned, snapshots, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
		ON CONFLICT (id) DO NOTHING
	`, rec.summary.ID, rec.summary.Player, rec.summary.Turns, rec.summary.FinalSupport, rec.summary.FinalRisk,
		rec.summary.Victory, rec.summary.Banned, string(rec.snapshots), rec.summary.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert ghost run: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunExists, rec.summary.ID)
	}
	return nil
}

func (s *PostgresStore) LoadRun(ctx context.Context, id string) (ghost.Run, error) {
	var (
		run ghost.Run
		raw []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, player, snapshots, finished_at
		FROM spin.ghost_runs
		WHERE id = $1
	`, id).Scan(&run.ID, &run.Player, &raw, &run.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ghost.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return ghost.Run{}, fmt.Errorf("load ghost run: %w", err)
	}
	snaps, err := decodeSnapshots(run.ID, raw)
	if err != nil {
		return ghost.Run{}, err
	}
	run.Snapshots = snaps
	run.FinishedAt = run.FinishedAt.UTC()
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, player, turns, final_support, final_risk, victory, banned, finished_at
		FROM spin.ghost_runs
		ORDER BY finished_at DESC, id ASC
		LIMIT $1
	`, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list ghost runs: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Player, &sum.Turns, &sum.FinalSupport, &sum.FinalRisk,
			&sum.Victory, &sum.Banned, &sum.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan ghost run: %w", err)
		}
		sum.FinishedAt = sum.FinishedAt.UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *PostgresStore) PruneRuns(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM spin.ghost_runs WHERE finished_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune ghost runs: %w", err)
	}
	return cmd.RowsAffected(), nil
}
