package game

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	check       func(s *GameState) bool
}

var achievements = []Achievement{
	{ID: "first_blood", Title: "First Blood", Description: "Take your first action.", check: func(s *GameState) bool {
		return s.Turn >= 1
	}},
	{ID: "hot_streak", Title: "Hot Streak", Description: "Land 3 critical hits in a row.", check: func(s *GameState) bool {
		return s.HighestStreak >= 3
	}},
	{ID: "unstoppable", Title: "Unstoppable", Description: "Land 5 critical hits in a row.", check: func(s *GameState) bool {
		return s.HighestStreak >= 5
	}},
	{ID: "crit_machine", Title: "Crit Machine", Description: "Land 10 critical hits in one campaign.", check: func(s *GameState) bool {
		return s.TotalCriticalHits >= 10
	}},
	{ID: "coast_to_coast", Title: "Coast to Coast", Description: "Reach 50% support in every region.", check: func(s *GameState) bool {
		if len(s.Support) < len(Regions) {
			return false
		}
		for _, v := range s.Support {
			if v < 50 {
				return false
			}
		}
		return true
	}},
	{ID: "war_chest", Title: "War Chest", Description: "Hold 500 funds at once.", check: func(s *GameState) bool {
		return s.Funds >= 500
	}},
	{ID: "living_dangerously", Title: "Living Dangerously", Description: "Stay in the race with risk at 80 or more.", check: func(s *GameState) bool {
		return s.Risk >= 80 && !s.GameOver
	}},
	{ID: "landslide", Title: "Landslide", Description: "Win the election.", check: func(s *GameState) bool {
		return s.Victory
	}},
}

func Achievements() []Achievement {
	out := make([]Achievement, len(achievements))
	copy(out, achievements)
	return out
}

// unlockAchievements appends newly earned ids and returns them.
func unlockAchievements(s *GameState) []string {
	var unlocked []string
	for _, a := range achievements {
		if s.HasAchievement(a.ID) || !a.check(s) {
			continue
		}
		s.AchievementsUnlocked = append(s.AchievementsUnlocked, a.ID)
		unlocked = append(unlocked, a.ID)
	}
	return unlocked
}
