package game

import (
	"errors"
	"reflect"
	"testing"
)

// fixedSource always returns the same draws.
type fixedSource struct {
	f float64
}

func (s fixedSource) Intn(n int) int   { return 0 }
func (s fixedSource) Float64() float64 { return s.f }

func TestActChargesCostAndAdvancesTurn(t *testing.T) {
	s := newTestState(t)
	res, err := Act(s, "fundraise", NewSource(5))
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if s.Turn != 1 {
		t.Fatalf("got turn %d want 1", s.Turn)
	}
	if s.Funds != StartingFunds+50 || s.Risk != 2 {
		t.Fatalf("got funds %d risk %d", s.Funds, s.Risk)
	}
	if s.SessionFirstAction {
		t.Fatalf("first action flag should clear")
	}
	if res.Event != nil {
		t.Fatalf("no random event expected on the first action")
	}
	if len(s.SocialFeed) != TweetCount || len(res.Tweets) != TweetCount {
		t.Fatalf("expected %d tweets in feed, got %d", TweetCount, len(s.SocialFeed))
	}
	if len(s.NewsLog) == 0 {
		t.Fatalf("expected a news entry")
	}
	if !s.HasAchievement("first_blood") {
		t.Fatalf("expected first_blood, got %v", s.AchievementsUnlocked)
	}
	if res.Snapshot.Turn != 1 {
		t.Fatalf("snapshot turn %d want 1", res.Snapshot.Turn)
	}
}

func TestApplyRejectionLeavesStateUntouched(t *testing.T) {
	broke := newTestState(t)
	broke.Clout = 0
	over := newTestState(t)
	over.GameOver = true
	cases := map[string]struct {
		state *GameState
		want  error
	}{
		"insufficient": {broke, ErrInsufficientResources},
		"finished":     {over, ErrGameFinished},
	}
	for name, tc := range cases {
		before := tc.state.Clone()
		if _, err := Apply(tc.state, "meme_campaign", Outcome{CloutDelta: 10}, NewSource(3)); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v want %v", name, err, tc.want)
		}
		if !reflect.DeepEqual(before, tc.state) {
			t.Fatalf("%s: rejected apply changed state", name)
		}
	}
}

func TestCriticalHitDoublesGainsAndBuildsStreak(t *testing.T) {
	s := newTestState(t)
	res, err := Act(s, "bot_army", fixedSource{f: 0})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if !res.Critical || !s.LastActionWasCritical {
		t.Fatalf("expected a critical hit")
	}
	if res.Outcome.Support.Uniform != 6 {
		t.Fatalf("got uniform %v want 6", res.Outcome.Support.Uniform)
	}
	if s.Streak != 1 || s.HighestStreak != 1 || s.TotalCriticalHits != 1 {
		t.Fatalf("got streak %d highest %d crits %d", s.Streak, s.HighestStreak, s.TotalCriticalHits)
	}
	if s.Clout != StartingClout-5+critCloutBonus {
		t.Fatalf("got clout %d", s.Clout)
	}

	if _, err := Act(s, "fundraise", fixedSource{f: 0.99}); err != nil {
		t.Fatalf("act: %v", err)
	}
	if s.Streak != 0 || s.HighestStreak != 1 {
		t.Fatalf("non-critical action should reset streak, got %d/%d", s.Streak, s.HighestStreak)
	}
}

func TestStreakInvariantOverLongPlay(t *testing.T) {
	rng := NewSource(42)
	s := newTestState(t)
	s.MaxTurns = 1000
	for i := 0; i < 300; i++ {
		if s.Terminal() {
			s = newTestState(t)
			s.MaxTurns = 1000
		}
		if s.PendingEvent != nil {
			if _, _, err := ChooseOption(s, 0); err != nil {
				t.Fatalf("choose: %v", err)
			}
			continue
		}
		s.Funds += 100
		s.Clout += 100
		id := Actions()[rng.Intn(len(Actions()))].ID
		res, err := Act(s, id, rng)
		if err != nil {
			t.Fatalf("turn %d %s: %v", i, id, err)
		}
		if s.HighestStreak < s.Streak {
			t.Fatalf("highest streak %d below streak %d", s.HighestStreak, s.Streak)
		}
		if !res.Critical && s.Streak != 0 {
			t.Fatalf("streak should reset after a non-critical action")
		}
		if err := s.Validate(); err != nil {
			t.Fatalf("state invalid after turn %d: %v", i, err)
		}
	}
}

func TestClampInvariantUnderRandomDeltas(t *testing.T) {
	rng := NewSource(99)
	s := newTestState(t)
	for i := 0; i < 2000; i++ {
		var o Outcome
		if rng.Intn(2) == 0 {
			o.Support = Uniform(float64(rng.Intn(81) - 40))
		} else {
			deltas := map[string]float64{}
			for _, r := range sample(rng, Regions, 1+rng.Intn(10)) {
				deltas[r] = rng.Float64()*160 - 80
			}
			o.Support = PerRegion(deltas)
		}
		o.CloutDelta = rng.Intn(201) - 100
		o.FundsDelta = rng.Intn(201) - 100
		o.RiskDelta = rng.Intn(201) - 100
		o.FactionDelta = map[Faction]float64{pick(rng, Factions): rng.Float64()*100 - 50}
		ApplyDeltas(s, o)
		for r, v := range s.Support {
			if v < MinSupport || v > MaxSupport {
				t.Fatalf("iteration %d: support %s=%v out of range", i, r, v)
			}
		}
		for f, v := range s.FactionSupport {
			if v < MinSupport || v > MaxSupport {
				t.Fatalf("iteration %d: faction %s=%v out of range", i, f, v)
			}
		}
		if s.Clout < 0 || s.Funds < 0 || s.Risk < 0 {
			t.Fatalf("iteration %d: negative resources %d/%d/%d", i, s.Clout, s.Funds, s.Risk)
		}
	}
}

func TestTerminalStateIsNeverMutated(t *testing.T) {
	for _, flag := range []string{"victory", "gameOver"} {
		s := newTestState(t)
		if flag == "victory" {
			s.Victory = true
		} else {
			s.GameOver = true
		}
		before := s.Clone()
		if _, err := Act(s, "fundraise", NewSource(1)); !errors.Is(err, ErrGameFinished) {
			t.Fatalf("%s: expected ErrGameFinished, got %v", flag, err)
		}
		if _, err := Apply(s, "fundraise", Outcome{FundsDelta: 50}, NewSource(1)); !errors.Is(err, ErrGameFinished) {
			t.Fatalf("%s: expected ErrGameFinished from Apply, got %v", flag, err)
		}
		if !reflect.DeepEqual(before, s) {
			t.Fatalf("%s: terminal state was mutated", flag)
		}
	}
}

func TestRiskLimitBansCampaign(t *testing.T) {
	s := newTestState(t)
	s.Risk = 95
	if _, err := Act(s, "bot_army", NewSource(3)); err != nil {
		t.Fatalf("act: %v", err)
	}
	if !s.GameOver || s.Victory {
		t.Fatalf("expected a ban, got victory=%v gameOver=%v", s.Victory, s.GameOver)
	}
	if !s.Snapshot().Banned() {
		t.Fatalf("snapshot should report a ban")
	}
}

func TestVictoryAtSupportThreshold(t *testing.T) {
	s := newTestState(t)
	for r := range s.Support {
		s.Support[r] = 69
	}
	if _, err := Act(s, "bot_army", NewSource(3)); err != nil {
		t.Fatalf("act: %v", err)
	}
	if !s.Victory || s.GameOver {
		t.Fatalf("expected victory, got victory=%v gameOver=%v", s.Victory, s.GameOver)
	}
	if !s.HasAchievement("landslide") {
		t.Fatalf("expected landslide achievement, got %v", s.AchievementsUnlocked)
	}
}

func TestTurnLimitEndsGame(t *testing.T) {
	s := newTestState(t)
	s.MaxTurns = 1
	if _, err := Act(s, "fundraise", NewSource(3)); err != nil {
		t.Fatalf("act: %v", err)
	}
	if !s.GameOver {
		t.Fatalf("expected game over at the turn limit")
	}
}

func TestPendingEventLifecycle(t *testing.T) {
	s := newTestState(t)
	ev := InteractiveEvent("test", "Test", "desc",
		EventOption{Text: "A", Outcome: Outcome{FundsDelta: 10}},
		EventOption{Text: "B", Outcome: Outcome{RiskDelta: 10}},
	)
	if _, err := TriggerEvent(s, ev); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if s.PendingEvent == nil {
		t.Fatalf("interactive event should be pending")
	}
	if _, err := TriggerEvent(s, ev); !errors.Is(err, ErrEventPending) {
		t.Fatalf("expected ErrEventPending, got %v", err)
	}
	if _, err := Act(s, "fundraise", NewSource(1)); !errors.Is(err, ErrEventPending) {
		t.Fatalf("expected ErrEventPending, got %v", err)
	}
	if _, _, err := ChooseOption(s, 5); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	funds := s.Funds
	if _, _, err := ChooseOption(s, 0); err != nil {
		t.Fatalf("choose: %v", err)
	}
	if s.PendingEvent != nil {
		t.Fatalf("pending event should clear")
	}
	if s.Funds != funds+10 {
		t.Fatalf("got funds %d want %d", s.Funds, funds+10)
	}
	if _, _, err := ChooseOption(s, 0); !errors.Is(err, ErrNoPendingEvent) {
		t.Fatalf("expected ErrNoPendingEvent, got %v", err)
	}
}

func TestNarrativeEventAppliesImmediately(t *testing.T) {
	s := newTestState(t)
	ev := NarrativeEvent("n", "Narrative", "desc", Outcome{Support: Uniform(5), RiskDelta: 1})
	before := s.Support["OH"]
	if _, err := TriggerEvent(s, ev); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if s.PendingEvent != nil {
		t.Fatalf("narrative event must not be pending")
	}
	if s.Support["OH"] != before+5 || s.Risk != 1 {
		t.Fatalf("got OH %v risk %d", s.Support["OH"], s.Risk)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := newTestState(t)
	c := s.Clone()
	c.Support["CA"] = 99
	c.Advisors[0].Quotes[0] = "changed"
	c.FactionSupport[FactionModerates] = 1
	if s.Support["CA"] == 99 || s.Advisors[0].Quotes[0] == "changed" || s.FactionSupport[FactionModerates] == 1 {
		t.Fatalf("clone shares memory with original")
	}
}
