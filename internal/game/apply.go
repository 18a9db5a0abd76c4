package game

import (
	"fmt"
	"math"
)

const (
	baseCritChance    = 0.15
	critChancePerStep = 0.03
	maxCritChance     = 0.40
	critCloutBonus    = 5
	randomEventChance = 0.35
)

// TurnResult describes what one applied action did to the state.
type TurnResult struct {
	ActionID        string            `json:"actionId"`
	Outcome         Outcome           `json:"outcome"`
	Critical        bool              `json:"critical"`
	Tweets          []Tweet           `json:"tweets"`
	Event           *Event            `json:"event,omitempty"`
	NewAchievements []string          `json:"newAchievements,omitempty"`
	Reactions       []FactionReaction `json:"reactions,omitempty"`
	BreakingNews    *BreakingNews     `json:"breakingNews,omitempty"`
	Snapshot        Snapshot          `json:"snapshot"`
}

// Act resolves actionID against state and applies the outcome in place.
// Validation errors leave the state untouched. See Apply for the rest.
func Act(state *GameState, actionID string, rng Source) (TurnResult, error) {
	outcome, err := Resolve(state, actionID, rng)
	if err != nil {
		return TurnResult{}, err
	}
	return Apply(state, actionID, outcome, rng)
}

// Apply charges the action's cost, rolls for a critical hit, applies outcome,
// then advances the turn: news, reactions, a possible random event,
// victory/loss detection and achievements.
//
// Validation errors leave state untouched. An error from the random event
// step arrives after the action was charged and the turn advanced, so state
// is partly changed; callers that need all-or-nothing should Apply to a Clone.
func Apply(state *GameState, actionID string, outcome Outcome, rng Source) (TurnResult, error) {
	action, err := LookupAction(actionID)
	if err != nil {
		return TurnResult{}, err
	}
	if err := state.Validate(); err != nil {
		return TurnResult{}, err
	}
	if state.Terminal() {
		return TurnResult{}, ErrGameFinished
	}
	if state.PendingEvent != nil {
		return TurnResult{}, ErrEventPending
	}
	if !state.CanAfford(action.Cost) {
		return TurnResult{}, fmt.Errorf("%w: %s", ErrInsufficientResources, action.ID)
	}
	tweets, err := GenerateTweets(action.Name, rng)
	if err != nil {
		return TurnResult{}, err
	}

	before := state.Snapshot()
	prevFactions := copyFactions(state.FactionSupport)
	firstAction := state.SessionFirstAction

	state.Clout -= action.Cost.Clout
	state.Funds -= action.Cost.Funds

	critical := rng.Float64() < critChance(state.Streak)
	if critical {
		outcome = criticalOutcome(outcome)
		state.Streak++
		state.TotalCriticalHits++
		if state.Streak > state.HighestStreak {
			state.HighestStreak = state.Streak
		}
	} else {
		state.Streak = 0
	}
	state.LastActionWasCritical = critical

	applyOutcome(state, outcome)
	state.Turn++
	state.SessionFirstAction = false

	headline := outcome.Headline
	if headline == "" {
		headline = action.Name
	}
	if critical {
		headline = "CRITICAL HIT! " + headline
	}
	state.NewsLog = append(state.NewsLog, NewsItem{Turn: state.Turn, Headline: headline, Critical: critical})
	state.SocialFeed = append(state.SocialFeed, tweets...)

	res := TurnResult{
		ActionID: action.ID,
		Outcome:  outcome,
		Critical: critical,
		Tweets:   tweets,
	}

	checkTerminal(state)
	if !state.Terminal() && !firstAction && rng.Float64() < randomEventChance {
		ev, err := GenerateEvent(state, rng)
		if err != nil {
			return res, err
		}
		if err := triggerEvent(state, ev); err != nil {
			return res, err
		}
		res.Event = &ev
		checkTerminal(state)
	}

	res.NewAchievements = unlockAchievements(state)
	res.Reactions = FactionReactions(prevFactions, state.FactionSupport)
	res.Snapshot = state.Snapshot()
	if news, ok := DetectBreakingNews(before, res.Snapshot); ok {
		res.BreakingNews = &news
		state.NewsLog = append(state.NewsLog, NewsItem{Turn: state.Turn, Headline: news.Headline})
	}
	return res, nil
}

// TriggerEvent applies a narrative event immediately or parks an interactive
// one as the pending decision.
func TriggerEvent(state *GameState, ev Event) ([]string, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}
	if state.Terminal() {
		return nil, ErrGameFinished
	}
	if state.PendingEvent != nil {
		return nil, ErrEventPending
	}
	if err := triggerEvent(state, ev); err != nil {
		return nil, err
	}
	checkTerminal(state)
	return unlockAchievements(state), nil
}

func triggerEvent(state *GameState, ev Event) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	switch ev.Kind {
	case EventNarrative:
		applyOutcome(state, *ev.Outcome)
		state.NewsLog = append(state.NewsLog, NewsItem{Turn: state.Turn, Headline: ev.Title})
	case EventInteractive:
		pending := ev
		state.PendingEvent = &pending
		state.NewsLog = append(state.NewsLog, NewsItem{Turn: state.Turn, Headline: "Decision needed: " + ev.Title})
	}
	return nil
}

// ChooseOption resolves the pending interactive event with the option at index.
func ChooseOption(state *GameState, index int) (Outcome, []string, error) {
	if state == nil {
		return Outcome{}, nil, fmt.Errorf("%w: nil state", ErrInvalidState)
	}
	if state.Terminal() {
		return Outcome{}, nil, ErrGameFinished
	}
	ev := state.PendingEvent
	if ev == nil {
		return Outcome{}, nil, ErrNoPendingEvent
	}
	if index < 0 || index >= len(ev.Options) {
		return Outcome{}, nil, fmt.Errorf("%w: %d of %d", ErrInvalidOption, index, len(ev.Options))
	}
	opt := ev.Options[index]
	applyOutcome(state, opt.Outcome)
	state.PendingEvent = nil
	state.NewsLog = append(state.NewsLog, NewsItem{Turn: state.Turn, Headline: fmt.Sprintf("%s: %s", ev.Title, opt.Text)})
	checkTerminal(state)
	return opt.Outcome, unlockAchievements(state), nil
}

// ApplyDeltas adds outcome to state with every invariant enforced: support
// and factions clamp to [0,100], resources floor at zero.
func ApplyDeltas(state *GameState, o Outcome) {
	applyOutcome(state, o)
}

func applyOutcome(state *GameState, o Outcome) {
	if state.Support == nil {
		state.Support = map[string]float64{}
	}
	for region, delta := range o.Support.Resolve() {
		if !IsRegion(region) {
			continue
		}
		state.Support[region] = clampSupport(state.Support[region] + delta)
	}
	state.Clout = nonNegative(state.Clout + o.CloutDelta)
	state.Funds = nonNegative(state.Funds + o.FundsDelta)
	state.Risk = nonNegative(state.Risk + o.RiskDelta)
	if len(o.FactionDelta) > 0 && state.FactionSupport == nil {
		state.FactionSupport = make(map[Faction]float64, len(Factions))
		for _, f := range Factions {
			state.FactionSupport[f] = 50
		}
	}
	for f, delta := range o.FactionDelta {
		if !IsFaction(f) {
			continue
		}
		state.FactionSupport[f] = clampSupport(state.FactionSupport[f] + delta)
	}
}

func checkTerminal(state *GameState) {
	if state.Terminal() {
		return
	}
	maxTurns := state.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	switch {
	case state.Risk >= RiskLimit:
		state.GameOver = true
		state.PendingEvent = nil
		state.NewsLog = append(state.NewsLog, NewsItem{Turn: state.Turn, Headline: "BANNED: every platform suspends the campaign"})
	case state.AggregateSupport() >= VictorySupport:
		state.Victory = true
		state.PendingEvent = nil
		state.NewsLog = append(state.NewsLog, NewsItem{Turn: state.Turn, Headline: "Landslide! The nation has spoken"})
	case state.Turn >= maxTurns:
		state.GameOver = true
		state.PendingEvent = nil
		state.NewsLog = append(state.NewsLog, NewsItem{Turn: state.Turn, Headline: "Election day arrives before the landslide did"})
	}
}

func critChance(streak int) float64 {
	return math.Min(maxCritChance, baseCritChance+critChancePerStep*float64(streak))
}

func criticalOutcome(o Outcome) Outcome {
	o.Support = o.Support.Map(func(v float64) float64 {
		if v > 0 {
			return v * 2
		}
		return v
	})
	o.CloutDelta += critCloutBonus
	return o
}

func copyFactions(in map[Faction]float64) map[Faction]float64 {
	if in == nil {
		return nil
	}
	out := make(map[Faction]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
