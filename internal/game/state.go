package game

import (
	"fmt"
	"math"
)

// NewGameState builds a fresh session: support scattered between 35 and 45,
// starting resources, three advisors and neutral factions.
func NewGameState(rng Source, maxTurns int) (*GameState, error) {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	advisors, err := GenerateAdvisors(rng)
	if err != nil {
		return nil, err
	}
	support := make(map[string]float64, len(Regions))
	for _, r := range Regions {
		support[r] = float64(35 + rng.Intn(11))
	}
	factions := make(map[Faction]float64, len(Factions))
	for _, f := range Factions {
		factions[f] = 50
	}
	return &GameState{
		MaxTurns:             maxTurns,
		Support:              support,
		Clout:                StartingClout,
		Funds:                StartingFunds,
		SessionFirstAction:   true,
		Advisors:             advisors,
		NewsLog:              []NewsItem{},
		SocialFeed:           []Tweet{},
		AchievementsUnlocked: []string{},
		FactionSupport:       factions,
	}, nil
}

// Validate rejects snapshots with missing or out-of-range fields.
func (s *GameState) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil state", ErrInvalidState)
	}
	if s.Turn < 0 {
		return fmt.Errorf("%w: negative turn %d", ErrInvalidState, s.Turn)
	}
	if len(s.Support) == 0 {
		return fmt.Errorf("%w: support is required", ErrInvalidState)
	}
	for r, v := range s.Support {
		if !IsRegion(r) {
			return fmt.Errorf("%w: unknown region %q", ErrInvalidState, r)
		}
		if math.IsNaN(v) || v < MinSupport || v > MaxSupport {
			return fmt.Errorf("%w: support for %s out of range: %v", ErrInvalidState, r, v)
		}
	}
	if s.Clout < 0 || s.Funds < 0 || s.Risk < 0 {
		return fmt.Errorf("%w: negative resources (clout %d funds %d risk %d)", ErrInvalidState, s.Clout, s.Funds, s.Risk)
	}
	if s.Streak < 0 || s.TotalCriticalHits < 0 {
		return fmt.Errorf("%w: negative counters", ErrInvalidState)
	}
	if s.HighestStreak < s.Streak {
		return fmt.Errorf("%w: highest streak %d below streak %d", ErrInvalidState, s.HighestStreak, s.Streak)
	}
	if n := len(s.Advisors); n != 0 && n != AdvisorCount {
		return fmt.Errorf("%w: expected %d advisors, got %d", ErrInvalidState, AdvisorCount, n)
	}
	for f, v := range s.FactionSupport {
		if !IsFaction(f) {
			return fmt.Errorf("%w: unknown faction %q", ErrInvalidState, f)
		}
		if math.IsNaN(v) || v < MinSupport || v > MaxSupport {
			return fmt.Errorf("%w: faction %s out of range: %v", ErrInvalidState, f, v)
		}
	}
	if s.PendingEvent != nil {
		if err := s.PendingEvent.Validate(); err != nil {
			return fmt.Errorf("%w: pending event: %v", ErrInvalidState, err)
		}
	}
	return nil
}

// AggregateSupport is the mean support over the regions present in state.
func (s *GameState) AggregateSupport() float64 {
	return meanSupport(s.Support)
}

func meanSupport(support map[string]float64) float64 {
	if len(support) == 0 {
		return 0
	}
	var total float64
	for _, v := range support {
		total += v
	}
	return total / float64(len(support))
}

func (s *GameState) Terminal() bool {
	return s.Victory || s.GameOver
}

func (s *GameState) Snapshot() Snapshot {
	return Snapshot{
		Turn:     s.Turn,
		Support:  math.Round(s.AggregateSupport()*100) / 100,
		Clout:    s.Clout,
		Funds:    s.Funds,
		Risk:     s.Risk,
		Victory:  s.Victory,
		GameOver: s.GameOver,
	}
}

func (s *GameState) HasAchievement(id string) bool {
	for _, a := range s.AchievementsUnlocked {
		if a == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Support = make(map[string]float64, len(s.Support))
	for k, v := range s.Support {
		out.Support[k] = v
	}
	if s.FactionSupport != nil {
		out.FactionSupport = make(map[Faction]float64, len(s.FactionSupport))
		for k, v := range s.FactionSupport {
			out.FactionSupport[k] = v
		}
	}
	out.Advisors = make([]Advisor, len(s.Advisors))
	for i, a := range s.Advisors {
		a.Traits = append([]string(nil), a.Traits...)
		a.Quotes = append([]string(nil), a.Quotes...)
		out.Advisors[i] = a
	}
	out.NewsLog = append([]NewsItem{}, s.NewsLog...)
	out.SocialFeed = append([]Tweet{}, s.SocialFeed...)
	out.AchievementsUnlocked = append([]string{}, s.AchievementsUnlocked...)
	if s.PendingEvent != nil {
		ev := *s.PendingEvent
		ev.Options = append([]EventOption(nil), s.PendingEvent.Options...)
		out.PendingEvent = &ev
	}
	return &out
}
