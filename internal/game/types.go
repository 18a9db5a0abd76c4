package game

import "sort"

type Cost struct {
	Clout int `json:"clout,omitempty"`
	Funds int `json:"funds,omitempty"`
}

type DeltaKind string

const (
	DeltaPerRegion DeltaKind = "per_region"
	DeltaUniform   DeltaKind = "uniform"
)

// SupportDelta is either a per-region mapping or one uniform delta applied to
// every region. The zero value changes nothing.
type SupportDelta struct {
	Kind      DeltaKind          `json:"kind,omitempty"`
	PerRegion map[string]float64 `json:"perRegion,omitempty"`
	Uniform   float64            `json:"uniform,omitempty"`
}

func PerRegion(deltas map[string]float64) SupportDelta {
	cp := make(map[string]float64, len(deltas))
	for k, v := range deltas {
		cp[k] = v
	}
	return SupportDelta{Kind: DeltaPerRegion, PerRegion: cp}
}

func Uniform(delta float64) SupportDelta {
	return SupportDelta{Kind: DeltaUniform, Uniform: delta}
}

func (d SupportDelta) IsZero() bool {
	switch d.Kind {
	case DeltaUniform:
		return d.Uniform == 0
	case DeltaPerRegion:
		for _, v := range d.PerRegion {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// For returns the delta that applies to one region.
func (d SupportDelta) For(region string) float64 {
	switch d.Kind {
	case DeltaUniform:
		return d.Uniform
	case DeltaPerRegion:
		return d.PerRegion[region]
	default:
		return 0
	}
}

// Resolve expands the delta into explicit per-region values for every region
// it touches.
func (d SupportDelta) Resolve() map[string]float64 {
	out := map[string]float64{}
	switch d.Kind {
	case DeltaUniform:
		if d.Uniform == 0 {
			return out
		}
		for _, r := range Regions {
			out[r] = d.Uniform
		}
	case DeltaPerRegion:
		for r, v := range d.PerRegion {
			if v != 0 {
				out[r] = v
			}
		}
	}
	return out
}

// Map returns a copy with fn applied to every delta value.
func (d SupportDelta) Map(fn func(float64) float64) SupportDelta {
	switch d.Kind {
	case DeltaUniform:
		return Uniform(fn(d.Uniform))
	case DeltaPerRegion:
		out := make(map[string]float64, len(d.PerRegion))
		for r, v := range d.PerRegion {
			out[r] = fn(v)
		}
		return SupportDelta{Kind: DeltaPerRegion, PerRegion: out}
	default:
		return d
	}
}

// Regions returns the touched region codes sorted.
func (d SupportDelta) Regions() []string {
	resolved := d.Resolve()
	out := make([]string, 0, len(resolved))
	for r := range resolved {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

type Outcome struct {
	Support      SupportDelta        `json:"supportDelta"`
	CloutDelta   int                 `json:"cloutDelta"`
	FundsDelta   int                 `json:"fundsDelta"`
	RiskDelta    int                 `json:"riskDelta"`
	FactionDelta map[Faction]float64 `json:"factionDelta,omitempty"`
	Headline     string              `json:"headline,omitempty"`
}

type EventKind string

const (
	EventNarrative   EventKind = "narrative"
	EventInteractive EventKind = "interactive"
)

type EventOption struct {
	Text    string  `json:"text"`
	Outcome Outcome `json:"outcome"`
}

// Event is a tagged union: narrative events carry Outcome, interactive events
// carry Options. Build them with NarrativeEvent or InteractiveEvent.
type Event struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Kind        EventKind     `json:"kind"`
	Outcome     *Outcome      `json:"outcome,omitempty"`
	Options     []EventOption `json:"options,omitempty"`
}

type Advisor struct {
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Ideology string   `json:"ideology"`
	Traits   []string `json:"traits"`
	Quotes   []string `json:"quotes"`
}

type Tweet struct {
	User    string `json:"user"`
	Content string `json:"content"`
}

type NewsItem struct {
	Turn     int    `json:"turn"`
	Headline string `json:"headline"`
	Critical bool   `json:"critical,omitempty"`
}

type GameState struct {
	Turn                  int                 `json:"turn"`
	MaxTurns              int                 `json:"maxTurns,omitempty"`
	Support               map[string]float64  `json:"support"`
	Clout                 int                 `json:"clout"`
	Funds                 int                 `json:"funds"`
	Risk                  int                 `json:"risk"`
	Streak                int                 `json:"streak"`
	HighestStreak         int                 `json:"highestStreak"`
	TotalCriticalHits     int                 `json:"totalCriticalHits"`
	LastActionWasCritical bool                `json:"lastActionWasCritical"`
	SessionFirstAction    bool                `json:"sessionFirstAction"`
	Advisors              []Advisor           `json:"advisors"`
	NewsLog               []NewsItem          `json:"newsLog"`
	SocialFeed            []Tweet             `json:"socialFeed"`
	PendingEvent          *Event              `json:"pendingEvent,omitempty"`
	Victory               bool                `json:"victory"`
	GameOver              bool                `json:"gameOver"`
	AchievementsUnlocked  []string            `json:"achievementsUnlocked"`
	FactionSupport        map[Faction]float64 `json:"factionSupport,omitempty"`
}

// Snapshot is the comparable subset of a GameState captured at a turn boundary.
type Snapshot struct {
	Turn     int     `json:"turn"`
	Support  float64 `json:"support"`
	Clout    int     `json:"clout"`
	Funds    int     `json:"funds"`
	Risk     int     `json:"risk"`
	Victory  bool    `json:"victory,omitempty"`
	GameOver bool    `json:"gameOver,omitempty"`
}

// Banned reports whether the run ended on the risk limit.
func (s Snapshot) Banned() bool {
	return s.GameOver && !s.Victory && s.Risk >= RiskLimit
}

func (s Snapshot) Terminal() bool {
	return s.Victory || s.GameOver
}
