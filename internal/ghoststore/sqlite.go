package ghoststore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spindoctor/internal/ghost"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ghost_runs (
	id            TEXT PRIMARY KEY,
	player        TEXT NOT NULL,
	turns         INTEGER NOT NULL,
	final_support REAL NOT NULL,
	final_risk    INTEGER NOT NULL,
	victory       INTEGER NOT NULL,
	banned        INTEGER NOT NULL,
	snapshots     TEXT NOT NULL,
	finished_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS ghost_runs_finished_at ON ghost_runs (finished_at);
`

// SQLiteStore keeps ghost runs in a local SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// NewSQLite creates the schema on an open handle and takes ownership of it.
func NewSQLite(ctx context.Context, sqlDB *sql.DB) (*SQLiteStore, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sqlite handle is required")
	}
	if _, err := sqlDB.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run ghost.Run) error {
	rec, err := prepare(run)
	if err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO ghost_runs (id, player, turns, final_support, final_risk, victory, banned, snapshots, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, rec.summary.ID, rec.summary.Player, rec.summary.Turns, rec.summary.FinalSupport, rec.summary.FinalRisk,
		rec.summary.Victory, rec.summary.Banned, string(rec.snapshots), toMillis(rec.summary.FinishedAt))
	if err != nil {
		return fmt.Errorf("insert ghost run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert ghost run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunExists, rec.summary.ID)
	}
	return nil
}

func (s *SQLiteStore) LoadRun(ctx context.Context, id string) (ghost.Run, error) {
	var (
		run        ghost.Run
		raw        string
		finishedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, player, snapshots, finished_at
		FROM ghost_runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Player, &raw, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ghost.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return ghost.Run{}, fmt.Errorf("load ghost run: %w", err)
	}
	snaps, err := decodeSnapshots(run.ID, []byte(raw))
	if err != nil {
		return ghost.Run{}, err
	}
	run.Snapshots = snaps
	run.FinishedAt = fromMillis(finishedAt)
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, player, turns, final_support, final_risk, victory, banned, finished_at
		FROM ghost_runs
		ORDER BY finished_at DESC, id ASC
		LIMIT ?
	`, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list ghost runs: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var (
			sum        Summary
			finishedAt int64
		)
		if err := rows.Scan(&sum.ID, &sum.Player, &sum.Turns, &sum.FinalSupport, &sum.FinalRisk,
			&sum.Victory, &sum.Banned, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan ghost run: %w", err)
		}
		sum.FinishedAt = fromMillis(finishedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PruneRuns(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM ghost_runs WHERE finished_at < ?`, toMillis(before))
	if err != nil {
		return 0, fmt.Errorf("prune ghost runs: %w", err)
	}
	return res.RowsAffected()
}
