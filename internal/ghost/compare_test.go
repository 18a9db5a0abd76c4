package ghost

import (
	"errors"
	"reflect"
	"testing"

	"spindoctor/internal/game"
)

func snaps(final game.Snapshot, leadIn ...float64) []game.Snapshot {
	out := make([]game.Snapshot, 0, len(leadIn)+1)
	for i, s := range leadIn {
		out = append(out, game.Snapshot{Turn: i, Support: s, Clout: 50, Funds: 100})
	}
	final.Turn = max(final.Turn, len(leadIn))
	return append(out, final)
}

func TestCompareSameRunIsTie(t *testing.T) {
	runs := [][]game.Snapshot{
		snaps(game.Snapshot{Support: 48, Clout: 10, Funds: 20, Risk: 30, GameOver: true}, 40, 44),
		snaps(game.Snapshot{Support: 40, Risk: 100, GameOver: true}, 40),
		snaps(game.Snapshot{Support: 72, Risk: 5, Victory: true}, 40, 55, 65),
	}
	for i, run := range runs {
		got, err := Compare(run, run)
		if err != nil {
			t.Fatalf("run %d: compare: %v", i, err)
		}
		if got.Verdict != VerdictTie {
			t.Fatalf("run %d: got %s want tie", i, got.Verdict)
		}
		if got.Reason != ReasonBothBanned && got.Reason != ReasonDeadHeat {
			t.Fatalf("run %d: tie with reason %s", i, got.Reason)
		}
		if got.SupportMargin != 0 || got.LeadChanges != 0 || got.TiedTurns != len(run) {
			t.Fatalf("run %d: unexpected alignment %+v", i, got)
		}
	}
}

func TestCompareReasons(t *testing.T) {
	tests := []struct {
		name     string
		player   game.Snapshot
		opponent game.Snapshot
		verdict  Verdict
		reason   BattleWinReason
	}{
		{
			name:     "both banned",
			player:   game.Snapshot{Turn: 3, Support: 60, Risk: 100, GameOver: true},
			opponent: game.Snapshot{Turn: 9, Support: 30, Risk: 110, GameOver: true},
			verdict:  VerdictTie,
			reason:   ReasonBothBanned,
		},
		{
			name:     "opponent banned beats support",
			player:   game.Snapshot{Turn: 5, Support: 40, Risk: 20},
			opponent: game.Snapshot{Turn: 4, Support: 65, Risk: 100, GameOver: true},
			verdict:  VerdictWin,
			reason:   ReasonOpponentBanned,
		},
		{
			name:     "player banned",
			player:   game.Snapshot{Turn: 5, Support: 65, Risk: 100, GameOver: true},
			opponent: game.Snapshot{Turn: 5, Support: 40, Risk: 10},
			verdict:  VerdictLoss,
			reason:   ReasonRiskOverload,
		},
		{
			name:     "higher support",
			player:   game.Snapshot{Turn: 60, Support: 60, Risk: 40, GameOver: true},
			opponent: game.Snapshot{Turn: 60, Support: 50, Risk: 10, GameOver: true},
			verdict:  VerdictWin,
			reason:   ReasonHigherSupport,
		},
		{
			name:     "lower support",
			player:   game.Snapshot{Turn: 60, Support: 50, Risk: 10, GameOver: true},
			opponent: game.Snapshot{Turn: 60, Support: 52, Risk: 40, GameOver: true},
			verdict:  VerdictLoss,
			reason:   ReasonLowerSupport,
		},
		{
			name:     "support inside epsilon falls to risk",
			player:   game.Snapshot{Turn: 60, Support: 50.3, Risk: 10, GameOver: true},
			opponent: game.Snapshot{Turn: 60, Support: 50, Risk: 20, GameOver: true},
			verdict:  VerdictWin,
			reason:   ReasonLowerRisk,
		},
		{
			name:     "higher risk",
			player:   game.Snapshot{Turn: 60, Support: 50, Risk: 30, GameOver: true},
			opponent: game.Snapshot{Turn: 60, Support: 50.4, Risk: 20, GameOver: true},
			verdict:  VerdictLoss,
			reason:   ReasonHigherRisk,
		},
		{
			name:     "faster victory",
			player:   game.Snapshot{Turn: 8, Support: 70.2, Risk: 15, Victory: true},
			opponent: game.Snapshot{Turn: 10, Support: 70, Risk: 15, Victory: true},
			verdict:  VerdictWin,
			reason:   ReasonFasterVictory,
		},
		{
			name:     "slower victory",
			player:   game.Snapshot{Turn: 12, Support: 70, Risk: 15, Victory: true},
			opponent: game.Snapshot{Turn: 10, Support: 70, Risk: 15, Victory: true},
			verdict:  VerdictLoss,
			reason:   ReasonSlowerVictory,
		},
		{
			name:     "dead heat",
			player:   game.Snapshot{Turn: 60, Support: 45, Risk: 15, GameOver: true},
			opponent: game.Snapshot{Turn: 60, Support: 45.5, Risk: 15, GameOver: true},
			verdict:  VerdictTie,
			reason:   ReasonDeadHeat,
		},
	}
	for _, tc := range tests {
		got, err := Compare([]game.Snapshot{tc.player}, []game.Snapshot{tc.opponent})
		if err != nil {
			t.Fatalf("%s: compare: %v", tc.name, err)
		}
		if got.Verdict != tc.verdict || got.Reason != tc.reason {
			t.Fatalf("%s: got %s/%s want %s/%s", tc.name, got.Verdict, got.Reason, tc.verdict, tc.reason)
		}
		if got.Narrative == "" {
			t.Fatalf("%s: empty narrative", tc.name)
		}
	}
}

func TestCompareAlignment(t *testing.T) {
	player := []game.Snapshot{
		{Turn: 0, Support: 40},
		{Turn: 1, Support: 45},
		{Turn: 2, Support: 50},
		{Turn: 3, Support: 51},
	}
	opponent := []game.Snapshot{
		{Turn: 0, Support: 42},
		{Turn: 1, Support: 44},
		{Turn: 2, Support: 55},
	}
	got, err := Compare(player, opponent)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if got.TurnsCompared != 3 || len(got.Turns) != 3 {
		t.Fatalf("got %d compared turns want 3", got.TurnsCompared)
	}
	if got.PlayerLeadTurns != 1 || got.OpponentLeadTurns != 2 || got.TiedTurns != 0 {
		t.Fatalf("unexpected lead split %+v", got)
	}
	if got.LeadChanges != 2 {
		t.Fatalf("got %d lead changes want 2", got.LeadChanges)
	}
	if got.Turns[1].Leader != "player" {
		t.Fatalf("turn 1 leader %q", got.Turns[1].Leader)
	}
	if got.PlayerFinal.Support != 51 || got.OpponentFinal.Support != 55 {
		t.Fatalf("finals %+v / %+v", got.PlayerFinal, got.OpponentFinal)
	}
	if got.Verdict != VerdictLoss || got.SupportMargin != -4 {
		t.Fatalf("got %s margin %v", got.Verdict, got.SupportMargin)
	}
}

func TestCompareDoesNotMutate(t *testing.T) {
	player := snaps(game.Snapshot{Support: 61, Risk: 12, GameOver: true}, 40, 50)
	opponent := snaps(game.Snapshot{Support: 58, Risk: 30, GameOver: true}, 41)
	pCopy := append([]game.Snapshot(nil), player...)
	oCopy := append([]game.Snapshot(nil), opponent...)
	if _, err := Compare(player, opponent); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !reflect.DeepEqual(player, pCopy) || !reflect.DeepEqual(opponent, oCopy) {
		t.Fatalf("compare mutated its inputs")
	}
}

func TestCompareRejects(t *testing.T) {
	ok := []game.Snapshot{{Turn: 0, Support: 40}}
	if _, err := Compare(nil, ok); !errors.Is(err, ErrIncomparableRun) {
		t.Fatalf("got %v want ErrIncomparableRun", err)
	}
	if _, err := Compare(ok, []game.Snapshot{}); !errors.Is(err, ErrIncomparableRun) {
		t.Fatalf("got %v want ErrIncomparableRun", err)
	}
	bad := [][]game.Snapshot{
		{{Turn: 1, Support: 40}, {Turn: 1, Support: 41}},
		{{Turn: 0, Support: 101}},
		{{Turn: 0, Support: 40, Funds: -1}},
		{{Turn: -1, Support: 40}},
		{{Turn: 0, Support: 40, Victory: true, GameOver: true}},
		{{Turn: 0, Support: 40, GameOver: true}, {Turn: 1, Support: 40}},
	}
	for i, b := range bad {
		if _, err := Compare(ok, b); !errors.Is(err, ErrMalformedSnapshot) {
			t.Fatalf("case %d: got %v want ErrMalformedSnapshot", i, err)
		}
	}
}
