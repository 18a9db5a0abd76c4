package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	StartingClout   = 50
	StartingFunds   = 100
	DefaultMaxTurns = 60

	RiskLimit      = 100 // reaching this is a platform ban
	VictorySupport = 70.0
	MinSupport     = 0.0
	MaxSupport     = 100.0

	AdvisorCount = 3
	TweetCount   = 3
)

var (
	ErrUnknownAction         = errors.New("unknown action")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrInvalidState          = errors.New("invalid state")
	ErrGameFinished          = fmt.Errorf("%w: game already finished", ErrInvalidState)
	ErrEventPending          = errors.New("an event is awaiting a decision")
	ErrNoPendingEvent        = errors.New("no pending event")
	ErrInvalidOption         = errors.New("invalid event option")
)

// Regions is the fixed set of 50 states plus DC, in display order.
var Regions = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "DC", "FL",
	"GA", "HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME",
	"MD", "MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH",
	"NJ", "NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI",
	"SC", "SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI",
	"WY",
}

var regionSet = func() map[string]struct{} {
	out := make(map[string]struct{}, len(Regions))
	for _, r := range Regions {
		out[r] = struct{}{}
	}
	return out
}()

func IsRegion(code string) bool {
	_, ok := regionSet[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

type Faction string

const (
	FactionTechWorkers    Faction = "tech_workers"
	FactionRuralVoters    Faction = "rural_voters"
	FactionYoungActivists Faction = "young_activists"
	FactionModerates      Faction = "moderates"
	FactionBusinessClass  Faction = "business_class"
)

var Factions = []Faction{
	FactionTechWorkers,
	FactionRuralVoters,
	FactionYoungActivists,
	FactionModerates,
	FactionBusinessClass,
}

func IsFaction(f Faction) bool {
	for _, known := range Factions {
		if known == f {
			return true
		}
	}
	return false
}

func clampSupport(v float64) float64 {
	if math.IsNaN(v) {
		return MinSupport
	}
	return math.Max(MinSupport, math.Min(MaxSupport, v))
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
