package ghost

import (
	"fmt"
	"math"

	"spindoctor/internal/game"
)

const (
	leaderPlayer   = "player"
	leaderOpponent = "opponent"
	leaderTie      = "tie"
)

// Compare aligns the two runs by turn index, then decides the verdict from
// their terminal snapshots. Precedence: bans, support (outside
// SupportEpsilon), risk, then turns to victory. Neither input is modified.
func Compare(player, opponent []game.Snapshot) (BattleComparison, error) {
	if len(player) == 0 || len(opponent) == 0 {
		return BattleComparison{}, fmt.Errorf("%w: player has %d snapshots, opponent has %d",
			ErrIncomparableRun, len(player), len(opponent))
	}
	if err := ValidateSnapshots(player); err != nil {
		return BattleComparison{}, fmt.Errorf("player run: %w", err)
	}
	if err := ValidateSnapshots(opponent); err != nil {
		return BattleComparison{}, fmt.Errorf("opponent run: %w", err)
	}

	n := min(len(player), len(opponent))
	out := BattleComparison{
		TurnsCompared: n,
		Turns:         make([]TurnComparison, 0, n),
		PlayerFinal:   player[len(player)-1],
		OpponentFinal: opponent[len(opponent)-1],
	}
	lastLeader := ""
	for i := 0; i < n; i++ {
		p, o := player[i], opponent[i]
		leader := leaderFor(p.Support, o.Support)
		switch leader {
		case leaderPlayer:
			out.PlayerLeadTurns++
		case leaderOpponent:
			out.OpponentLeadTurns++
		default:
			out.TiedTurns++
		}
		if leader != leaderTie {
			if lastLeader != "" && leader != lastLeader {
				out.LeadChanges++
			}
			lastLeader = leader
		}
		out.Turns = append(out.Turns, TurnComparison{
			Turn:            p.Turn,
			PlayerSupport:   p.Support,
			OpponentSupport: o.Support,
			Leader:          leader,
		})
	}

	out.Verdict, out.Reason = decide(out.PlayerFinal, out.OpponentFinal)
	out.Narrative = out.Reason.Narrative()
	out.SupportMargin = round2(out.PlayerFinal.Support - out.OpponentFinal.Support)
	out.Score = Score(out.PlayerFinal, out.OpponentFinal, out.Verdict)
	out.Tier = TierForScore(out.Score)
	return out, nil
}

// CompareRuns is Compare over two Run records.
func CompareRuns(player, opponent Run) (BattleComparison, error) {
	return Compare(player.Snapshots, opponent.Snapshots)
}

func decide(p, o game.Snapshot) (Verdict, BattleWinReason) {
	switch pb, ob := p.Banned(), o.Banned(); {
	case pb && ob:
		return VerdictTie, ReasonBothBanned
	case ob:
		return VerdictWin, ReasonOpponentBanned
	case pb:
		return VerdictLoss, ReasonRiskOverload
	}
	switch leaderFor(p.Support, o.Support) {
	case leaderPlayer:
		return VerdictWin, ReasonHigherSupport
	case leaderOpponent:
		return VerdictLoss, ReasonLowerSupport
	}
	switch {
	case p.Risk < o.Risk:
		return VerdictWin, ReasonLowerRisk
	case p.Risk > o.Risk:
		return VerdictLoss, ReasonHigherRisk
	}
	if p.Victory && o.Victory {
		switch {
		case p.Turn < o.Turn:
			return VerdictWin, ReasonFasterVictory
		case p.Turn > o.Turn:
			return VerdictLoss, ReasonSlowerVictory
		}
	}
	return VerdictTie, ReasonDeadHeat
}

func leaderFor(player, opponent float64) string {
	d := player - opponent
	switch {
	case d > SupportEpsilon:
		return leaderPlayer
	case d < -SupportEpsilon:
		return leaderOpponent
	default:
		return leaderTie
	}
}

// ValidateSnapshots checks ranges and that turns strictly increase.
func ValidateSnapshots(snaps []game.Snapshot) error {
	for i, s := range snaps {
		if s.Turn < 0 {
			return fmt.Errorf("%w: snapshot %d has negative turn %d", ErrMalformedSnapshot, i, s.Turn)
		}
		if i > 0 && s.Turn <= snaps[i-1].Turn {
			return fmt.Errorf("%w: snapshot %d turn %d does not follow %d", ErrMalformedSnapshot, i, s.Turn, snaps[i-1].Turn)
		}
		if math.IsNaN(s.Support) || s.Support < game.MinSupport || s.Support > game.MaxSupport {
			return fmt.Errorf("%w: snapshot %d support %v out of range", ErrMalformedSnapshot, i, s.Support)
		}
		if s.Clout < 0 || s.Funds < 0 || s.Risk < 0 {
			return fmt.Errorf("%w: snapshot %d has negative resources", ErrMalformedSnapshot, i)
		}
		if s.Victory && s.GameOver {
			return fmt.Errorf("%w: snapshot %d is both victory and game over", ErrMalformedSnapshot, i)
		}
		if s.Terminal() && i != len(snaps)-1 {
			return fmt.Errorf("%w: snapshot %d is terminal but the run continues", ErrMalformedSnapshot, i)
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
