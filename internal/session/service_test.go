package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"spindoctor/internal/db"
	"spindoctor/internal/game"
	"spindoctor/internal/ghost"
	"spindoctor/internal/ghoststore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, maxTurns int) *Service {
	t.Helper()
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "ghosts.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store, err := ghoststore.NewSQLite(ctx, sqlDB)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, testLogger(), Options{MaxTurns: maxTurns, Seed: 42})
}

// playOut fundraises until the campaign ends, resolving any pending event
// with its first option.
func playOut(t *testing.T, svc *Service, id string) View {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		v, err := svc.State(id)
		if err != nil {
			t.Fatalf("state: %v", err)
		}
		if v.State.Terminal() {
			return v
		}
		_, err = svc.Act(ctx, id, "fundraise")
		if errors.Is(err, game.ErrEventPending) {
			if _, err := svc.Choose(ctx, id, 0); err != nil {
				t.Fatalf("choose: %v", err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("act: %v", err)
		}
	}
	t.Fatalf("campaign never finished")
	return View{}
}

func TestNewSession(t *testing.T) {
	svc := newTestService(t, 10)
	v, err := svc.NewSession(context.Background(), "  pepe ")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if v.ID == "" || v.Player != "pepe" {
		t.Fatalf("got %+v", v)
	}
	if v.State.Turn != 0 || v.State.MaxTurns != 10 || v.Turns != 1 {
		t.Fatalf("unexpected fresh session %+v", v)
	}
	if _, err := svc.NewSession(context.Background(), "a-name-that-is-far-too-long-for-the-board"); !errors.Is(err, game.ErrInvalidState) {
		t.Fatalf("got %v want ErrInvalidState", err)
	}
}

func TestActRecordsSnapshots(t *testing.T) {
	svc := newTestService(t, 10)
	ctx := context.Background()
	v, err := svc.NewSession(ctx, "pepe")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	res, err := svc.Act(ctx, v.ID, "fundraise")
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if res.Session.State.Turn != 1 || res.Session.Turns != 2 {
		t.Fatalf("got turn %d with %d snapshots", res.Session.State.Turn, res.Session.Turns)
	}
	if res.Result.ActionID != "fundraise" || res.Result.Snapshot.Turn != 1 {
		t.Fatalf("got %+v", res.Result)
	}

	if _, err := svc.Act(ctx, v.ID, "fundrase"); !errors.Is(err, game.ErrUnknownAction) {
		t.Fatalf("got %v want ErrUnknownAction", err)
	}
	after, _ := svc.State(v.ID)
	if after.State.Turn != 1 {
		t.Fatalf("rejected action changed turn to %d", after.State.Turn)
	}
	if _, err := svc.Act(ctx, "missing", "fundraise"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v want ErrSessionNotFound", err)
	}
}

func TestViewIsDetached(t *testing.T) {
	svc := newTestService(t, 10)
	v, err := svc.NewSession(context.Background(), "pepe")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	v.State.Funds = 999999
	v.State.Support["CA"] = 0
	again, _ := svc.State(v.ID)
	if again.State.Funds != game.StartingFunds || again.State.Support["CA"] == 0 {
		t.Fatalf("view mutation leaked into the session")
	}
}

func TestPublishAndBattle(t *testing.T) {
	svc := newTestService(t, 5)
	ctx := context.Background()
	v, err := svc.NewSession(ctx, "pepe")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := svc.Publish(ctx, v.ID); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("got %v want ErrRunInProgress", err)
	}

	final := playOut(t, svc, v.ID)
	run, err := svc.Publish(ctx, v.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if run.ID == "" || run.ID == v.ID || len(run.Snapshots) != final.State.Turn+1 {
		t.Fatalf("got run %s with %d snapshots at turn %d", run.ID, len(run.Snapshots), final.State.Turn)
	}
	if err := ghost.ValidateSnapshots(run.Snapshots); err != nil {
		t.Fatalf("published run invalid: %v", err)
	}
	if _, err := svc.Publish(ctx, v.ID); !errors.Is(err, ErrAlreadyPublished) {
		t.Fatalf("got %v want ErrAlreadyPublished", err)
	}

	ghosts, err := svc.ListGhosts(ctx, 10)
	if err != nil || len(ghosts) != 1 || ghosts[0].ID != run.ID {
		t.Fatalf("got %+v, %v", ghosts, err)
	}

	cmp, err := svc.Battle(ctx, v.ID, run.ID)
	if err != nil {
		t.Fatalf("battle: %v", err)
	}
	if cmp.Verdict != ghost.VerdictTie {
		t.Fatalf("battling your own ghost: got %s (%s)", cmp.Verdict, cmp.Reason)
	}

	rival, err := svc.NewSession(ctx, "rival")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := svc.Battle(ctx, rival.ID, run.ID); err != nil {
		t.Fatalf("battle in-progress session: %v", err)
	}
	if _, err := svc.Battle(ctx, rival.ID, "no-such-ghost"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("got %v want ErrRunNotFound", err)
	}
}

func TestStoreUnavailable(t *testing.T) {
	svc := NewService(nil, testLogger(), Options{MaxTurns: 3, Seed: 7})
	ctx := context.Background()
	v, err := svc.NewSession(ctx, "pepe")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := svc.Publish(ctx, v.ID); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("got %v want ErrStoreUnavailable", err)
	}
	if _, err := svc.ListGhosts(ctx, 0); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("got %v want ErrStoreUnavailable", err)
	}
	if _, err := svc.Battle(ctx, v.ID, "x"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("got %v want ErrStoreUnavailable", err)
	}
}

func TestChooseWithoutPendingEvent(t *testing.T) {
	svc := newTestService(t, 10)
	ctx := context.Background()
	v, _ := svc.NewSession(ctx, "pepe")
	if _, err := svc.Choose(ctx, v.ID, 0); !errors.Is(err, game.ErrNoPendingEvent) {
		t.Fatalf("got %v want ErrNoPendingEvent", err)
	}
}

func TestDrawEventKeepsTurn(t *testing.T) {
	svc := newTestService(t, 10)
	ctx := context.Background()
	v, _ := svc.NewSession(ctx, "pepe")
	res, err := svc.DrawEvent(ctx, v.ID)
	if err != nil {
		t.Fatalf("draw event: %v", err)
	}
	if res.Session.State.Turn != 0 || res.Session.Turns != 1 {
		t.Fatalf("event advanced the turn: %+v", res.Session)
	}
	pending := res.Session.State.PendingEvent != nil
	if pending != (res.Event.Kind == game.EventInteractive) {
		t.Fatalf("pending=%v for %s event", pending, res.Event.Kind)
	}
}

func TestConcurrentActionsSerialize(t *testing.T) {
	svc := newTestService(t, 60)
	ctx := context.Background()
	v, err := svc.NewSession(ctx, "pepe")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Act(ctx, v.ID, "fundraise")
			if errors.Is(err, game.ErrEventPending) {
				_, _ = svc.Choose(ctx, v.ID, 0)
			}
		}()
	}
	wg.Wait()

	state, _ := svc.State(v.ID)
	run, err := svc.Run(v.ID)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(run.Snapshots) != state.State.Turn+1 {
		t.Fatalf("got %d snapshots at turn %d", len(run.Snapshots), state.State.Turn)
	}
	if err := ghost.ValidateSnapshots(run.Snapshots); err != nil {
		t.Fatalf("snapshots out of order: %v", err)
	}
}

func TestMood(t *testing.T) {
	svc := newTestService(t, 10)
	ctx := context.Background()
	v, _ := svc.NewSession(ctx, "pepe")
	moods, err := svc.Mood(v.ID)
	if err != nil {
		t.Fatalf("mood: %v", err)
	}
	if len(moods) != len(game.Factions) {
		t.Fatalf("got %d moods want %d", len(moods), len(game.Factions))
	}
	for _, m := range moods {
		if m.Trend != game.TrendSteady {
			t.Fatalf("fresh session trending %s for %s", m.Trend, m.Faction)
		}
	}
}
