package ghoststore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"spindoctor/internal/config"
	"spindoctor/internal/db"
	"spindoctor/internal/game"
	"spindoctor/internal/ghost"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "ghosts.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store, err := NewSQLite(ctx, sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRun(id string, finished time.Time, final game.Snapshot) ghost.Run {
	final.Turn = 2
	return ghost.Run{
		ID:     id,
		Player: "pepe",
		Snapshots: []game.Snapshot{
			{Turn: 0, Support: 40, Clout: 50, Funds: 100},
			{Turn: 1, Support: 44.5, Clout: 40, Funds: 100, Risk: 5},
			final,
		},
		FinishedAt: finished,
	}
}

func TestSQLiteSaveLoad(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	finished := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	run := testRun("run-a", finished, game.Snapshot{Support: 71.25, Clout: 60, Funds: 90, Risk: 9, Victory: true})

	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.LoadRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Player != "pepe" || len(got.Snapshots) != 3 || got.Snapshots[2] != run.Snapshots[2] {
		t.Fatalf("loaded %+v", got)
	}
	if !got.FinishedAt.Equal(finished) {
		t.Fatalf("got finished %s want %s", got.FinishedAt, finished)
	}
	if err := store.SaveRun(ctx, run); !errors.Is(err, ErrRunExists) {
		t.Fatalf("got %v want ErrRunExists", err)
	}
}

func TestSQLiteLoadMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.LoadRun(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v want ErrNotFound", err)
	}
}

func TestSQLiteRejectsBadRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.SaveRun(ctx, ghost.Run{ID: "empty"}); !errors.Is(err, ghost.ErrIncomparableRun) {
		t.Fatalf("got %v want ErrIncomparableRun", err)
	}
	bad := testRun("bad", time.Now(), game.Snapshot{Support: 140})
	if err := store.SaveRun(ctx, bad); !errors.Is(err, ghost.ErrMalformedSnapshot) {
		t.Fatalf("got %v want ErrMalformedSnapshot", err)
	}
	if err := store.SaveRun(ctx, testRun(" ", time.Now(), game.Snapshot{Support: 40})); err == nil {
		t.Fatalf("expected error for blank id")
	}
}

func TestSQLiteListAndPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	runs := []ghost.Run{
		testRun("old", base, game.Snapshot{Support: 30, Risk: 100, GameOver: true}),
		testRun("mid", base.Add(24*time.Hour), game.Snapshot{Support: 55, Risk: 20, GameOver: true}),
		testRun("new", base.Add(48*time.Hour), game.Snapshot{Support: 72, Risk: 10, Victory: true}),
	}
	for _, r := range runs {
		if err := store.SaveRun(ctx, r); err != nil {
			t.Fatalf("save %s: %v", r.ID, err)
		}
	}

	list, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != "new" || list[2].ID != "old" {
		t.Fatalf("unexpected order %+v", list)
	}
	if !list[2].Banned || list[2].Victory || !list[0].Victory {
		t.Fatalf("summary flags wrong: %+v", list)
	}
	limited, err := store.ListRuns(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("got %d runs, %v", len(limited), err)
	}

	n, err := store.PruneRuns(ctx, base.Add(36*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 {
		t.Fatalf("got %d pruned want 2", n)
	}
	if _, err := store.LoadRun(ctx, "mid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v want ErrNotFound", err)
	}
	if _, err := store.LoadRun(ctx, "new"); err != nil {
		t.Fatalf("load survivor: %v", err)
	}
}

func TestSummarize(t *testing.T) {
	run := testRun("s", time.Now(), game.Snapshot{Support: 50, Risk: 100, GameOver: true})
	sum := Summarize(run)
	if sum.Turns != 2 || !sum.Banned || sum.FinalRisk != 100 {
		t.Fatalf("got %+v", sum)
	}
}

func TestPruneOlderThan(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC)
	if err := store.SaveRun(ctx, testRun("stale", now.Add(-31*24*time.Hour), game.Snapshot{Support: 50, GameOver: true})); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveRun(ctx, testRun("fresh", now.Add(-time.Hour), game.Snapshot{Support: 50, GameOver: true})); err != nil {
		t.Fatalf("save: %v", err)
	}
	n, err := PruneOlderThan(ctx, store, 720*time.Hour, now)
	if err != nil || n != 1 {
		t.Fatalf("got %d pruned, %v", n, err)
	}
	if _, err := PruneOlderThan(ctx, store, 0, now); err == nil {
		t.Fatalf("expected error for zero retention")
	}
}

func TestOpenFallsBackToSQLite(t *testing.T) {
	cfg := config.StoreConfig{SQLitePath: filepath.Join(t.TempDir(), "open.db")}
	store, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*SQLiteStore); !ok {
		t.Fatalf("got %T want *SQLiteStore", store)
	}
}
