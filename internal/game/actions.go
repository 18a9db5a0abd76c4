package game

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

type effectFunc func(s *GameState, rng Source) Outcome

// Action is one entry of the static action catalog.
type Action struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        Cost   `json:"cost"`
	perform     effectFunc
}

// Perform computes the action's outcome. It only reads s.
func (a Action) Perform(s *GameState, rng Source) Outcome {
	return a.perform(s, rng)
}

var catalog = []Action{
	{
		ID:          "meme_campaign",
		Name:        "Meme Campaign",
		Description: "Flood the timelines with dank content in a few lucky states.",
		Cost:        Cost{Clout: 10},
		perform: func(s *GameState, rng Source) Outcome {
			n := 1 + rng.Intn(3)
			deltas := map[string]float64{}
			for _, r := range sample(rng, Regions, n) {
				deltas[r] = float64(3 + rng.Intn(6))
			}
			return Outcome{
				Support:    PerRegion(deltas),
				CloutDelta: 5,
				RiskDelta:  5,
				FactionDelta: map[Faction]float64{
					FactionYoungActivists: 3,
					FactionTechWorkers:    1,
					FactionModerates:      -1,
				},
				Headline: fmt.Sprintf("Meme campaign goes viral in %s", strings.Join(sortedKeys(deltas), ", ")),
			}
		},
	},
	{
		ID:          "fundraise",
		Name:        "Fundraise",
		Description: "Passing the hat at a very exclusive brunch.",
		perform: func(s *GameState, rng Source) Outcome {
			return Outcome{
				Support:    PerRegion(nil),
				FundsDelta: 50,
				RiskDelta:  2,
				FactionDelta: map[Faction]float64{
					FactionBusinessClass:  2,
					FactionYoungActivists: -1,
				},
				Headline: "Fundraiser brunch raises eyebrows and cash",
			}
		},
	},
	{
		ID:          "rally",
		Name:        "Rally",
		Description: "Bus in the faithful to the state that needs you most.",
		Cost:        Cost{Funds: 30},
		perform: func(s *GameState, rng Source) Outcome {
			target, ok := lowestSupportRegion(s.Support)
			deltas := map[string]float64{}
			headline := "Rally cancelled: nobody left to rally"
			if ok {
				deltas[target] = 10
				headline = fmt.Sprintf("Packed rally lifts spirits in %s", target)
			}
			return Outcome{
				Support:   PerRegion(deltas),
				RiskDelta: 3,
				FactionDelta: map[Faction]float64{
					FactionRuralVoters: 2,
					FactionModerates:   2,
				},
				Headline: headline,
			}
		},
	},
	{
		ID:          "bot_army",
		Name:        "Bot Army",
		Description: "Ten thousand accounts created yesterday all agree with you.",
		Cost:        Cost{Funds: 20, Clout: 5},
		perform: func(s *GameState, rng Source) Outcome {
			return Outcome{
				Support:   Uniform(3),
				RiskDelta: 15,
				FactionDelta: map[Faction]float64{
					FactionTechWorkers: -3,
					FactionModerates:   -2,
				},
				Headline: "Suspiciously enthusiastic accounts trend nationwide",
			}
		},
	},
	{
		ID:          "town_hall",
		Name:        "Town Hall",
		Description: "Answer hard questions in the three coldest states.",
		Cost:        Cost{Funds: 15},
		perform: func(s *GameState, rng Source) Outcome {
			deltas := map[string]float64{}
			for _, r := range lowestSupportRegions(s.Support, 3) {
				deltas[r] = 4
			}
			return Outcome{
				Support:   PerRegion(deltas),
				RiskDelta: -2,
				FactionDelta: map[Faction]float64{
					FactionModerates:   3,
					FactionRuralVoters: 1,
				},
				Headline: "Candidate survives town hall, mostly",
			}
		},
	},
	{
		ID:          "influencer_collab",
		Name:        "Influencer Collab",
		Description: "Pay someone with a ring light to say nice things.",
		Cost:        Cost{Funds: 40},
		perform: func(s *GameState, rng Source) Outcome {
			deltas := map[string]float64{}
			for _, r := range sample(rng, Regions, 2+rng.Intn(3)) {
				deltas[r] = 6
			}
			return Outcome{
				Support:    PerRegion(deltas),
				CloutDelta: 10,
				RiskDelta:  6,
				FactionDelta: map[Faction]float64{
					FactionYoungActivists: 4,
					FactionBusinessClass:  -1,
				},
				Headline: "Influencer unboxes campaign merch to millions",
			}
		},
	},
	{
		ID:          "podcast_tour",
		Name:        "Podcast Tour",
		Description: "Three hours a show, swing states only.",
		Cost:        Cost{Clout: 15},
		perform: func(s *GameState, rng Source) Outcome {
			deltas := map[string]float64{}
			for _, r := range swingRegions(s.Support, 3) {
				deltas[r] = 5
			}
			return Outcome{
				Support:   PerRegion(deltas),
				RiskDelta: 2,
				FactionDelta: map[Faction]float64{
					FactionTechWorkers:    2,
					FactionYoungActivists: 1,
				},
				Headline: "Candidate explains everything on a four-hour podcast",
			}
		},
	},
	{
		ID:          "op_ed",
		Name:        "Op-Ed",
		Description: "A sober column nobody under forty will read.",
		Cost:        Cost{Clout: 5},
		perform: func(s *GameState, rng Source) Outcome {
			return Outcome{
				Support:   Uniform(1),
				RiskDelta: 1,
				FactionDelta: map[Faction]float64{
					FactionModerates:     2,
					FactionBusinessClass: 1,
				},
				Headline: "Measured op-ed praised as measured",
			}
		},
	},
	{
		ID:          "lobbyist_dinner",
		Name:        "Lobbyist Dinner",
		Description: "Steak, cigars and absolutely no quid pro quo.",
		Cost:        Cost{Clout: 20},
		perform: func(s *GameState, rng Source) Outcome {
			return Outcome{
				Support:    PerRegion(nil),
				FundsDelta: 120,
				RiskDelta:  10,
				FactionDelta: map[Faction]float64{
					FactionBusinessClass:  4,
					FactionYoungActivists: -3,
				},
				Headline: "Closed-door dinner ends with open checkbooks",
			}
		},
	},
	{
		ID:          "apology_tour",
		Name:        "Apology Tour",
		Description: "Sorry for whatever it was. Really.",
		Cost:        Cost{Funds: 25, Clout: 10},
		perform: func(s *GameState, rng Source) Outcome {
			return Outcome{
				Support:   Uniform(-1),
				RiskDelta: -20,
				FactionDelta: map[Faction]float64{
					FactionModerates:      3,
					FactionYoungActivists: -1,
				},
				Headline: "Tearful apology cools the outrage cycle",
			}
		},
	},
	{
		ID:          "viral_stunt",
		Name:        "Viral Stunt",
		Description: "Skydive into a state fair. What could go wrong?",
		Cost:        Cost{Clout: 25},
		perform: func(s *GameState, rng Source) Outcome {
			target := pick(rng, Regions)
			return Outcome{
				Support:    PerRegion(map[string]float64{target: 15}),
				CloutDelta: 15,
				RiskDelta:  8,
				FactionDelta: map[Faction]float64{
					FactionYoungActivists: 3,
					FactionRuralVoters:    -2,
				},
				Headline: fmt.Sprintf("Stunt in %s breaks the internet", target),
			}
		},
	},
}

var catalogIndex = func() map[string]int {
	out := make(map[string]int, len(catalog))
	for i, a := range catalog {
		out[a.ID] = i
	}
	return out
}()

// Actions returns the catalog in display order.
func Actions() []Action {
	out := make([]Action, len(catalog))
	copy(out, catalog)
	return out
}

func LookupAction(id string) (Action, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if i, ok := catalogIndex[key]; ok {
		return catalog[i], nil
	}
	if guess := suggestAction(key); guess != "" {
		return Action{}, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownAction, id, guess)
	}
	return Action{}, fmt.Errorf("%w %q", ErrUnknownAction, id)
}

func suggestAction(key string) string {
	if key == "" {
		return ""
	}
	best := ""
	bestDist := math.MaxInt
	for _, a := range catalog {
		d := levenshtein.ComputeDistance(key, a.ID)
		if d < bestDist {
			best, bestDist = a.ID, d
		}
	}
	if bestDist > suggestLimit(len(best)) {
		return ""
	}
	return best
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

func (s *GameState) CanAfford(c Cost) bool {
	return s.Clout >= c.Clout && s.Funds >= c.Funds
}

// Resolve validates that the action exists and is affordable against state and
// returns its outcome. The state is never modified.
func Resolve(state *GameState, actionID string, rng Source) (Outcome, error) {
	action, err := LookupAction(actionID)
	if err != nil {
		return Outcome{}, err
	}
	if state == nil {
		return Outcome{}, fmt.Errorf("%w: nil state", ErrInvalidState)
	}
	if err := state.Validate(); err != nil {
		return Outcome{}, err
	}
	if state.Victory || state.GameOver {
		return Outcome{}, ErrGameFinished
	}
	if state.PendingEvent != nil {
		return Outcome{}, ErrEventPending
	}
	if !state.CanAfford(action.Cost) {
		return Outcome{}, fmt.Errorf("%w: %s costs clout %d funds %d, have clout %d funds %d",
			ErrInsufficientResources, action.ID, action.Cost.Clout, action.Cost.Funds, state.Clout, state.Funds)
	}
	return action.Perform(state, rng), nil
}

// lowestSupportRegion scans regions in catalog order, so ties go to the first
// code in Regions. Codes missing from support are skipped.
func lowestSupportRegion(support map[string]float64) (string, bool) {
	out := lowestSupportRegions(support, 1)
	if len(out) == 0 {
		return "", false
	}
	return out[0], true
}

func lowestSupportRegions(support map[string]float64, n int) []string {
	present := presentRegions(support)
	sort.SliceStable(present, func(i, j int) bool {
		return support[present[i]] < support[present[j]]
	})
	if len(present) > n {
		present = present[:n]
	}
	return present
}

func swingRegions(support map[string]float64, n int) []string {
	present := presentRegions(support)
	sort.SliceStable(present, func(i, j int) bool {
		return math.Abs(support[present[i]]-50) < math.Abs(support[present[j]]-50)
	})
	if len(present) > n {
		present = present[:n]
	}
	return present
}

func presentRegions(support map[string]float64) []string {
	out := make([]string, 0, len(support))
	for _, r := range Regions {
		if _, ok := support[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
