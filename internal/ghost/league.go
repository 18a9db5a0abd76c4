package ghost

import (
	"fmt"
	"math"

	"spindoctor/internal/game"
)

type LeagueTier int

const (
	TierBronze LeagueTier = iota
	TierSilver
	TierGold
	TierPlatinum
	TierDiamond
	TierLegend
)

// LeagueThresholds is indexed by tier and strictly ascending.
var LeagueThresholds = [...]float64{
	TierBronze:   0,
	TierSilver:   200,
	TierGold:     400,
	TierPlatinum: 600,
	TierDiamond:  800,
	TierLegend:   1000,
}

func (t LeagueTier) String() string {
	switch t {
	case TierBronze:
		return "bronze"
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	case TierPlatinum:
		return "platinum"
	case TierDiamond:
		return "diamond"
	case TierLegend:
		return "legend"
	default:
		return "unranked"
	}
}

func (t LeagueTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *LeagueTier) UnmarshalText(text []byte) error {
	for tier := TierBronze; int(tier) < len(LeagueThresholds); tier++ {
		if tier.String() == string(text) {
			*t = tier
			return nil
		}
	}
	return fmt.Errorf("unknown league tier %q", text)
}

// TierForScore returns the highest tier whose threshold the score strictly
// exceeds. A score sitting exactly on a boundary stays in the lower tier.
func TierForScore(score float64) LeagueTier {
	tier := TierBronze
	for t := TierSilver; int(t) < len(LeagueThresholds); t++ {
		if score > LeagueThresholds[t] {
			tier = t
		}
	}
	return tier
}

const (
	supportWeight = 6.0
	marginWeight  = 4.0
	verdictBonus  = 150.0
	victoryBonus  = 50.0
	riskPenalty   = 0.5
)

// Score rates the player's run from its final snapshot and the margin over the
// opponent; it never looks at older battles.
func Score(player, opponent game.Snapshot, verdict Verdict) float64 {
	score := supportWeight*player.Support + marginWeight*(player.Support-opponent.Support) - riskPenalty*float64(player.Risk)
	switch verdict {
	case VerdictWin:
		score += verdictBonus
	case VerdictLoss:
		score -= verdictBonus
	}
	if player.Victory {
		score += victoryBonus
	}
	return round2(math.Max(0, score))
}
