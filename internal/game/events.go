package game

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

func NarrativeEvent(id, title, description string, outcome Outcome) Event {
	return Event{ID: id, Title: title, Description: description, Kind: EventNarrative, Outcome: &outcome}
}

func InteractiveEvent(id, title, description string, options ...EventOption) Event {
	return Event{ID: id, Title: title, Description: description, Kind: EventInteractive, Options: options}
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("event id is required")
	}
	switch e.Kind {
	case EventNarrative:
		if e.Outcome == nil {
			return fmt.Errorf("narrative event %s has no outcome", e.ID)
		}
		if len(e.Options) > 0 {
			return fmt.Errorf("narrative event %s must not carry options", e.ID)
		}
	case EventInteractive:
		if e.Outcome != nil {
			return fmt.Errorf("interactive event %s must not carry an outcome", e.ID)
		}
		if len(e.Options) == 0 {
			return fmt.Errorf("interactive event %s has no options", e.ID)
		}
		for i, o := range e.Options {
			if strings.TrimSpace(o.Text) == "" {
				return fmt.Errorf("interactive event %s option %d has no text", e.ID, i)
			}
		}
	default:
		return fmt.Errorf("event %s has unknown kind %q", e.ID, e.Kind)
	}
	return nil
}

// eventEnv is what weight expressions can see.
type eventEnv struct {
	Turn         float64
	Risk         float64
	Clout        float64
	Funds        float64
	Support      float64
	Streak       float64
	FirstAction  bool
	LastCritical bool
}

func newEventEnv(s *GameState) eventEnv {
	return eventEnv{
		Turn:         float64(s.Turn),
		Risk:         float64(s.Risk),
		Clout:        float64(s.Clout),
		Funds:        float64(s.Funds),
		Support:      s.AggregateSupport(),
		Streak:       float64(s.Streak),
		FirstAction:  s.SessionFirstAction,
		LastCritical: s.LastActionWasCritical,
	}
}

type eventTemplate struct {
	ID        string
	WeightSrc string
	build     func(s *GameState, rng Source) Event
	program   *vm.Program
}

var eventCatalog = []*eventTemplate{
	{
		ID:        "platform_ban_warning",
		WeightSrc: `FirstAction ? 0.0 : (Risk >= 60.0 ? 6.0 : (Risk >= 30.0 ? 1.5 : 0.2))`,
		build: func(s *GameState, rng Source) Event {
			return InteractiveEvent("platform_ban_warning", "Platform Ban Warning",
				"Trust & Safety has noticed your, uh, engagement patterns.",
				EventOption{Text: "Delete the bots", Outcome: Outcome{Support: Uniform(-2), RiskDelta: -15}},
				EventOption{Text: "Double down", Outcome: Outcome{CloutDelta: 10, RiskDelta: 10}},
				EventOption{Text: "Lawyer up", Outcome: Outcome{FundsDelta: -40, RiskDelta: -8}},
			)
		},
	},
	{
		ID:        "celebrity_endorsement",
		WeightSrc: `1.0 + Clout / 100.0`,
		build: func(s *GameState, rng Source) Event {
			region := pick(rng, Regions)
			return NarrativeEvent("celebrity_endorsement", "Celebrity Endorsement",
				fmt.Sprintf("A reality star from %s posts a selfie in your hat.", region),
				Outcome{
					Support:      PerRegion(map[string]float64{region: 8}),
					CloutDelta:   5,
					FactionDelta: map[Faction]float64{FactionYoungActivists: 2},
					Headline:     "Celebrity endorsement lands in " + region,
				})
		},
	},
	{
		ID:        "debate_invite",
		WeightSrc: `Turn >= 5.0 ? 2.0 : 0.5`,
		build: func(s *GameState, rng Source) Event {
			return InteractiveEvent("debate_invite", "Debate Invitation",
				"The networks want a prime-time showdown.",
				EventOption{Text: "Prep for days", Outcome: Outcome{Support: Uniform(2), FundsDelta: -20}},
				EventOption{Text: "Wing it", Outcome: Outcome{Support: Uniform(4), RiskDelta: 5}},
				EventOption{Text: "Skip it", Outcome: Outcome{Support: Uniform(-1), RiskDelta: -2}},
			)
		},
	},
	{
		ID:        "leaked_memo",
		WeightSrc: `FirstAction ? 0.0 : 1.0 + Risk / 50.0`,
		build: func(s *GameState, rng Source) Event {
			return NarrativeEvent("leaked_memo", "Leaked Memo",
				"An internal memo titled 'Operation Vibes' hits the press.",
				Outcome{
					Support:      Uniform(-2),
					RiskDelta:    5,
					FactionDelta: map[Faction]float64{FactionModerates: -2},
					Headline:     "Leaked memo embarrasses campaign",
				})
		},
	},
	{
		ID:        "grassroots_surge",
		WeightSrc: `Support < 45.0 ? 2.0 : 1.0`,
		build: func(s *GameState, rng Source) Event {
			deltas := map[string]float64{}
			if r, ok := lowestSupportRegion(s.Support); ok {
				deltas[r] = 6
			}
			return NarrativeEvent("grassroots_surge", "Grassroots Surge",
				"Volunteers you have never met organize a bake sale for you.",
				Outcome{
					Support:      PerRegion(deltas),
					FactionDelta: map[Faction]float64{FactionYoungActivists: 4, FactionRuralVoters: 1},
					Headline:     "Grassroots surge where it was needed most",
				})
		},
	},
	{
		ID:        "donor_scandal",
		WeightSrc: `FirstAction ? 0.0 : (Funds >= 200.0 ? 3.0 : 0.5)`,
		build: func(s *GameState, rng Source) Event {
			return InteractiveEvent("donor_scandal", "Donor Scandal",
				"Your biggest donor is on a watchlist. Several, actually.",
				EventOption{Text: "Return the money", Outcome: Outcome{FundsDelta: -60, RiskDelta: -10, FactionDelta: map[Faction]float64{FactionModerates: 3}}},
				EventOption{Text: "Deny everything", Outcome: Outcome{RiskDelta: 12}},
				EventOption{Text: "Blame an intern", Outcome: Outcome{CloutDelta: -10, RiskDelta: -4}},
			)
		},
	},
	{
		ID:        "hashtag_hijack",
		WeightSrc: `LastCritical ? 2.5 : 1.0`,
		build: func(s *GameState, rng Source) Event {
			deltas := map[string]float64{}
			for _, r := range sample(rng, Regions, 2) {
				deltas[r] = 3
			}
			return NarrativeEvent("hashtag_hijack", "Hashtag Hijack",
				"Your opponent's hashtag now trends with your memes attached.",
				Outcome{Support: PerRegion(deltas), CloutDelta: 10, RiskDelta: 3, Headline: "Campaign hijacks rival hashtag"})
		},
	},
	{
		ID:        "fact_check",
		WeightSrc: `1.0`,
		build: func(s *GameState, rng Source) Event {
			return NarrativeEvent("fact_check", "Fact Check",
				"An independent fact-checker rates your last claim 'mostly vibes'.",
				Outcome{CloutDelta: -5, RiskDelta: -3, FactionDelta: map[Faction]float64{FactionModerates: 2}, Headline: "Fact-checkers weigh in"})
		},
	},
	{
		ID:        "influencer_feud",
		WeightSrc: `Clout >= 80.0 ? 2.0 : 0.7`,
		build: func(s *GameState, rng Source) Event {
			return InteractiveEvent("influencer_feud", "Influencer Feud",
				"A streamer with nine million followers calls you cringe.",
				EventOption{Text: "Clap back", Outcome: Outcome{CloutDelta: 15, RiskDelta: 8, FactionDelta: map[Faction]float64{FactionYoungActivists: 2}}},
				EventOption{Text: "Take the high road", Outcome: Outcome{CloutDelta: -5, FactionDelta: map[Faction]float64{FactionModerates: 3}}},
			)
		},
	},
}

var (
	compileOnce sync.Once
	compileErr  error
)

func compileEventCatalog() error {
	compileOnce.Do(func() {
		for _, t := range eventCatalog {
			prog, err := expr.Compile(t.WeightSrc, expr.Env(eventEnv{}), expr.AsFloat64())
			if err != nil {
				compileErr = fmt.Errorf("compile event weight %q: %w", t.ID, err)
				return
			}
			t.program = prog
		}
	})
	return compileErr
}

// EventWeights evaluates every catalog weight against state.
func EventWeights(state *GameState) (map[string]float64, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", ErrInvalidState)
	}
	if err := compileEventCatalog(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	env := newEventEnv(state)
	out := make(map[string]float64, len(eventCatalog))
	for _, t := range eventCatalog {
		raw, err := expr.Run(t.program, env)
		if err != nil {
			return nil, fmt.Errorf("%w: evaluate event weight %q: %v", ErrInvalidState, t.ID, err)
		}
		w, _ := raw.(float64)
		if w < 0 {
			w = 0
		}
		out[t.ID] = w
	}
	return out, nil
}

// GenerateEvent draws one event, weighted by relevance to state.
func GenerateEvent(state *GameState, rng Source) (Event, error) {
	if state == nil {
		return Event{}, fmt.Errorf("%w: nil state", ErrInvalidState)
	}
	if len(eventCatalog) == 0 {
		return Event{}, fmt.Errorf("%w: event catalog is empty", ErrInvalidState)
	}
	weights, err := EventWeights(state)
	if err != nil {
		return Event{}, err
	}
	var total float64
	for _, t := range eventCatalog {
		total += weights[t.ID]
	}
	if total <= 0 {
		return Event{}, fmt.Errorf("%w: no event is eligible for this state", ErrInvalidState)
	}
	roll := rng.Float64() * total
	var chosen *eventTemplate
	for _, t := range eventCatalog {
		w := weights[t.ID]
		if w <= 0 {
			continue
		}
		chosen = t
		if roll < w {
			break
		}
		roll -= w
	}
	ev := chosen.build(state, rng)
	if err := ev.Validate(); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return ev, nil
}
