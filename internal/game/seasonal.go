package game

import (
	"fmt"
	"math"
	"time"
)

type SeasonType string

const (
	SeasonPrimary  SeasonType = "primary_season"
	SeasonDebate   SeasonType = "debate_season"
	SeasonScandal  SeasonType = "scandal_summer"
	SeasonElection SeasonType = "election_season"
	SeasonHoliday  SeasonType = "holiday_truce"
)

type SeasonalEvent struct {
	Type             SeasonType `json:"type"`
	Label            string     `json:"label"`
	Icon             string     `json:"icon"`
	StartsAt         time.Time  `json:"startsAt"`
	EndsAt           time.Time  `json:"endsAt"`
	RemainingSeconds int64      `json:"remainingSeconds"`
}

// Remaining is the time left in the season at now, never negative.
func (e SeasonalEvent) Remaining(now time.Time) time.Duration {
	d := e.EndsAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

type seasonPhase struct {
	typ        SeasonType
	label      string
	icon       string
	startMonth time.Month
	months     int
}

var seasonCalendar = []seasonPhase{
	{SeasonPrimary, "Primary Season", "🗳️", time.January, 3},
	{SeasonDebate, "Debate Season", "🎤", time.April, 3},
	{SeasonScandal, "Scandal Summer", "🔥", time.July, 2},
	{SeasonElection, "Election Season", "🇺🇸", time.September, 3},
	{SeasonHoliday, "Holiday Truce", "🎄", time.December, 1},
}

// ActiveSeason derives the season from the calendar month of now (UTC).
func ActiveSeason(now time.Time) SeasonalEvent {
	now = now.UTC()
	phase := seasonCalendar[len(seasonCalendar)-1]
	for _, p := range seasonCalendar {
		if now.Month() >= p.startMonth && now.Month() < p.startMonth+time.Month(p.months) {
			phase = p
			break
		}
	}
	start := time.Date(now.Year(), phase.startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, phase.months, 0)
	ev := SeasonalEvent{
		Type:     phase.typ,
		Label:    phase.label,
		Icon:     phase.icon,
		StartsAt: start,
		EndsAt:   end,
	}
	ev.RemainingSeconds = int64(ev.Remaining(now) / time.Second)
	return ev
}

type CommunityGoal struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Target float64 `json:"target"`
}

// GoalProgress normalizes current against the goal target onto 0-100.
func GoalProgress(goal CommunityGoal, current float64) (float64, error) {
	if goal.Target <= 0 || math.IsNaN(goal.Target) {
		return 0, fmt.Errorf("%w: community goal target must be positive", ErrInvalidState)
	}
	if math.IsNaN(current) || current <= 0 {
		return 0, nil
	}
	return math.Min(100, current/goal.Target*100), nil
}

const (
	BreakingSupportShift = 4.0
	BreakingRiskShift    = 20
)

type BreakingNews struct {
	Kind         string  `json:"kind"`
	Headline     string  `json:"headline"`
	SupportShift float64 `json:"supportShift"`
	RiskShift    int     `json:"riskShift"`
}

// DetectBreakingNews fires when one turn moved national support or risk past
// the breaking thresholds. Support swings take precedence.
func DetectBreakingNews(before, after Snapshot) (BreakingNews, bool) {
	shift := math.Round((after.Support-before.Support)*100) / 100
	risk := after.Risk - before.Risk
	news := BreakingNews{SupportShift: shift, RiskShift: risk}
	switch {
	case shift >= BreakingSupportShift:
		news.Kind = "surge"
		news.Headline = fmt.Sprintf("BREAKING: national support surges %.1f points", shift)
	case shift <= -BreakingSupportShift:
		news.Kind = "collapse"
		news.Headline = fmt.Sprintf("BREAKING: national support collapses %.1f points", -shift)
	case risk >= BreakingRiskShift:
		news.Kind = "outrage"
		news.Headline = fmt.Sprintf("BREAKING: outrage meter jumps %d points", risk)
	default:
		return BreakingNews{}, false
	}
	return news, true
}
