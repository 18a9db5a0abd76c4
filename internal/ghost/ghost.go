// Package ghost compares two recorded campaign runs turn by turn and places
// the result in a league.
package ghost

import (
	"errors"
	"time"

	"spindoctor/internal/game"
)

var (
	ErrIncomparableRun   = errors.New("incomparable run")
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// SupportEpsilon is the band inside which two support values count as equal.
const SupportEpsilon = 0.5

// Run is a finished, immutable sequence of turn-boundary snapshots.
type Run struct {
	ID         string          `json:"id"`
	Player     string          `json:"player"`
	Snapshots  []game.Snapshot `json:"snapshots"`
	FinishedAt time.Time       `json:"finishedAt,omitempty"`
}

func (r Run) Final() (game.Snapshot, bool) {
	if len(r.Snapshots) == 0 {
		return game.Snapshot{}, false
	}
	return r.Snapshots[len(r.Snapshots)-1], true
}

type Verdict string

const (
	VerdictWin  Verdict = "win"
	VerdictLoss Verdict = "loss"
	VerdictTie  Verdict = "tie"
)

// BattleWinReason explains a verdict from the player's point of view.
type BattleWinReason string

const (
	ReasonBothBanned     BattleWinReason = "both_banned"
	ReasonOpponentBanned BattleWinReason = "opponent_banned"
	ReasonRiskOverload   BattleWinReason = "risk_overload"
	ReasonHigherSupport  BattleWinReason = "higher_support"
	ReasonLowerSupport   BattleWinReason = "lower_support"
	ReasonLowerRisk      BattleWinReason = "lower_risk"
	ReasonHigherRisk     BattleWinReason = "higher_risk"
	ReasonFasterVictory  BattleWinReason = "faster_victory"
	ReasonSlowerVictory  BattleWinReason = "slower_victory"
	ReasonDeadHeat       BattleWinReason = "dead_heat"
)

func (r BattleWinReason) Narrative() string {
	switch r {
	case ReasonBothBanned:
		return "Both campaigns got banned. Democracy wins, sort of."
	case ReasonOpponentBanned:
		return "Your rival flew too close to the algorithm and got banned."
	case ReasonRiskOverload:
		return "Your campaign overloaded on risk and got banned."
	case ReasonHigherSupport:
		return "You finished with more of the country behind you."
	case ReasonLowerSupport:
		return "Your rival finished with more of the country behind them."
	case ReasonLowerRisk:
		return "Dead even on support, but you kept your nose cleaner."
	case ReasonHigherRisk:
		return "Dead even on support, but your rival kept their nose cleaner."
	case ReasonFasterVictory:
		return "Both won, but you got there first."
	case ReasonSlowerVictory:
		return "Both won, but your rival got there first."
	case ReasonDeadHeat:
		return "A perfect tie. Recount!"
	default:
		return ""
	}
}

type TurnComparison struct {
	Turn            int     `json:"turn"`
	PlayerSupport   float64 `json:"playerSupport"`
	OpponentSupport float64 `json:"opponentSupport"`
	Leader          string  `json:"leader"`
}

type BattleComparison struct {
	Verdict           Verdict          `json:"verdict"`
	Reason            BattleWinReason  `json:"reason"`
	Narrative         string           `json:"narrative"`
	Score             float64          `json:"score"`
	Tier              LeagueTier       `json:"tier"`
	SupportMargin     float64          `json:"supportMargin"`
	TurnsCompared     int              `json:"turnsCompared"`
	PlayerLeadTurns   int              `json:"playerLeadTurns"`
	OpponentLeadTurns int              `json:"opponentLeadTurns"`
	TiedTurns         int              `json:"tiedTurns"`
	LeadChanges       int              `json:"leadChanges"`
	Turns             []TurnComparison `json:"turns"`
	PlayerFinal       game.Snapshot    `json:"playerFinal"`
	OpponentFinal     game.Snapshot    `json:"opponentFinal"`
}
