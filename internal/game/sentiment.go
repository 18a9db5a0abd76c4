package game

import (
	"fmt"
	"math"
)

type MoodLevel int

const (
	MoodHostile MoodLevel = iota
	MoodSkeptical
	MoodNeutral
	MoodSupportive
	MoodEcstatic
)

func (m MoodLevel) String() string {
	switch m {
	case MoodHostile:
		return "hostile"
	case MoodSkeptical:
		return "skeptical"
	case MoodNeutral:
		return "neutral"
	case MoodSupportive:
		return "supportive"
	case MoodEcstatic:
		return "ecstatic"
	default:
		return "unknown"
	}
}

func (m MoodLevel) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MoodLevel) UnmarshalText(text []byte) error {
	for l := MoodHostile; l <= MoodEcstatic; l++ {
		if l.String() == string(text) {
			*m = l
			return nil
		}
	}
	return fmt.Errorf("unknown mood %q", text)
}

func (m MoodLevel) Icon() string {
	switch m {
	case MoodHostile:
		return "😡"
	case MoodSkeptical:
		return "🤨"
	case MoodNeutral:
		return "😐"
	case MoodSupportive:
		return "🙂"
	case MoodEcstatic:
		return "🤩"
	default:
		return "❔"
	}
}

// MoodFor maps a 0-100 value onto five equal bands.
func MoodFor(value float64) MoodLevel {
	v := clampSupport(value)
	level := MoodLevel(int(v / 20))
	if level > MoodEcstatic {
		level = MoodEcstatic
	}
	return level
}

type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendSteady  Trend = "steady"
)

const trendEpsilon = 0.5

type FactionMood struct {
	Faction Faction   `json:"faction"`
	Label   string    `json:"label"`
	Value   float64   `json:"value"`
	Level   MoodLevel `json:"level"`
	Icon    string    `json:"icon"`
	Trend   Trend     `json:"trend"`
}

type FactionReaction struct {
	Faction Faction   `json:"faction"`
	From    MoodLevel `json:"from"`
	To      MoodLevel `json:"to"`
	Up      bool      `json:"up"`
	Message string    `json:"message"`
}

func FactionLabel(f Faction) string {
	switch f {
	case FactionTechWorkers:
		return "Tech Workers"
	case FactionRuralVoters:
		return "Rural Voters"
	case FactionYoungActivists:
		return "Young Activists"
	case FactionModerates:
		return "Moderates"
	case FactionBusinessClass:
		return "Business Class"
	default:
		return string(f)
	}
}

// FactionMoods describes every known faction present in current. previous may
// be nil, in which case every trend is steady.
func FactionMoods(current, previous map[Faction]float64) []FactionMood {
	out := make([]FactionMood, 0, len(Factions))
	for _, f := range Factions {
		v, ok := current[f]
		if !ok {
			continue
		}
		level := MoodFor(v)
		trend := TrendSteady
		if prev, ok := previous[f]; ok {
			switch d := v - prev; {
			case d > trendEpsilon:
				trend = TrendRising
			case d < -trendEpsilon:
				trend = TrendFalling
			}
		}
		out = append(out, FactionMood{
			Faction: f,
			Label:   FactionLabel(f),
			Value:   math.Round(v*10) / 10,
			Level:   level,
			Icon:    level.Icon(),
			Trend:   trend,
		})
	}
	return out
}

// FactionReactions reports factions whose mood band changed between prev and next.
func FactionReactions(prev, next map[Faction]float64) []FactionReaction {
	var out []FactionReaction
	for _, f := range Factions {
		before, okBefore := prev[f]
		after, okAfter := next[f]
		if !okBefore || !okAfter {
			continue
		}
		from, to := MoodFor(before), MoodFor(after)
		if from == to {
			continue
		}
		up := to > from
		out = append(out, FactionReaction{
			Faction: f,
			From:    from,
			To:      to,
			Up:      up,
			Message: reactionMessage(f, from, to, up),
		})
	}
	return out
}

func reactionMessage(f Faction, from, to MoodLevel, up bool) string {
	verb := "are turning on you"
	if up {
		verb = "are warming up to you"
	}
	if to == MoodEcstatic {
		verb = "are printing your face on t-shirts"
	}
	if to == MoodHostile {
		verb = "are organizing against you"
	}
	return fmt.Sprintf("%s %s %s (%s → %s)", to.Icon(), FactionLabel(f), verb, from, to)
}
