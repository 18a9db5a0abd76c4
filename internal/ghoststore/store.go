// Package ghoststore persists published ghost runs.
package ghoststore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"spindoctor/internal/game"
	"spindoctor/internal/ghost"
)

var (
	ErrNotFound  = errors.New("ghost run not found")
	ErrRunExists = errors.New("ghost run already published")
)

// DefaultListLimit caps ListRuns when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Store is implemented by the Postgres and SQLite backends.
type Store interface {
	SaveRun(ctx context.Context, run ghost.Run) error
	LoadRun(ctx context.Context, id string) (ghost.Run, error)
	ListRuns(ctx context.Context, limit int) ([]Summary, error)
	PruneRuns(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

// Summary is the listing row for a stored run.
type Summary struct {
	ID           string    `json:"id"`
	Player       string    `json:"player"`
	Turns        int       `json:"turns"`
	FinalSupport float64   `json:"finalSupport"`
	FinalRisk    int       `json:"finalRisk"`
	Victory      bool      `json:"victory"`
	Banned       bool      `json:"banned"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// Summarize builds the listing row for a run.
func Summarize(run ghost.Run) Summary {
	final, _ := run.Final()
	return Summary{
		ID:           run.ID,
		Player:       run.Player,
		Turns:        final.Turn,
		FinalSupport: final.Support,
		FinalRisk:    final.Risk,
		Victory:      final.Victory,
		Banned:       final.Banned(),
		FinishedAt:   run.FinishedAt.UTC(),
	}
}

// record is the normalized row both backends write.
type record struct {
	summary   Summary
	snapshots []byte
}

func prepare(run ghost.Run) (record, error) {
	run.ID = strings.TrimSpace(run.ID)
	run.Player = strings.TrimSpace(run.Player)
	if run.ID == "" {
		return record{}, fmt.Errorf("run id is required")
	}
	if len(run.Snapshots) == 0 {
		return record{}, fmt.Errorf("%w: run %s has no snapshots", ghost.ErrIncomparableRun, run.ID)
	}
	if err := ghost.ValidateSnapshots(run.Snapshots); err != nil {
		return record{}, err
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	raw, err := json.Marshal(run.Snapshots)
	if err != nil {
		return record{}, fmt.Errorf("encode snapshots: %w", err)
	}
	return record{summary: Summarize(run), snapshots: raw}, nil
}

func decodeSnapshots(id string, raw []byte) ([]game.Snapshot, error) {
	var snaps []game.Snapshot
	if err := json.Unmarshal(raw, &snaps); err != nil {
		return nil, fmt.Errorf("%w: run %s: %v", ghost.ErrMalformedSnapshot, id, err)
	}
	if err := ghost.ValidateSnapshots(snaps); err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return snaps, nil
}

func listLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return DefaultListLimit
	}
	return limit
}
