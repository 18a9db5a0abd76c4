package ghost

import (
	"testing"

	"spindoctor/internal/game"
)

func TestTierForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  LeagueTier
	}{
		{score: 0, want: TierBronze},
		{score: 200, want: TierBronze},
		{score: 200.01, want: TierSilver},
		{score: 450, want: TierGold},
		{score: 600, want: TierGold},
		{score: 799, want: TierPlatinum},
		{score: 1000, want: TierDiamond},
		{score: 1500, want: TierLegend},
	}
	for _, tc := range tests {
		if got := TierForScore(tc.score); got != tc.want {
			t.Fatalf("score %v: got %s want %s", tc.score, got, tc.want)
		}
	}
}

func TestTierMonotonic(t *testing.T) {
	prev := TierBronze
	for s := 0.0; s <= 1200; s += 12.5 {
		got := TierForScore(s)
		if got < prev {
			t.Fatalf("score %v dropped to %s after %s", s, got, prev)
		}
		prev = got
	}
	if prev != TierLegend {
		t.Fatalf("top score reached %s", prev)
	}
}

func TestScore(t *testing.T) {
	player := game.Snapshot{Support: 60, Risk: 10}
	opponent := game.Snapshot{Support: 50}
	if got := Score(player, opponent, VerdictWin); got != 545 {
		t.Fatalf("got %v want 545", got)
	}
	player.Victory = true
	if got := Score(player, opponent, VerdictWin); got != 595 {
		t.Fatalf("got %v want 595", got)
	}
	floor := Score(game.Snapshot{Support: 0, Risk: 100}, game.Snapshot{Support: 80}, VerdictLoss)
	if floor != 0 {
		t.Fatalf("got %v want 0", floor)
	}
}

func TestTierText(t *testing.T) {
	b, err := TierPlatinum.MarshalText()
	if err != nil || string(b) != "platinum" {
		t.Fatalf("got %q, %v", b, err)
	}
}

func TestTierTextRoundTrip(t *testing.T) {
	for tier := TierBronze; tier <= TierLegend; tier++ {
		b, _ := tier.MarshalText()
		var got LeagueTier
		if err := got.UnmarshalText(b); err != nil || got != tier {
			t.Fatalf("%s: got %s, %v", tier, got, err)
		}
	}
	var bad LeagueTier
	if err := bad.UnmarshalText([]byte("wood")); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
}
