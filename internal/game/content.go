package game

import (
	"fmt"
	"strings"
)

var memeStrategist = Advisor{
	Name:     "Pepe Silvia",
	Role:     "Meme Strategist",
	Ideology: "Chaotic Neutral",
	Traits:   []string{"extremely online", "irony-poisoned", "tireless"},
	Quotes: []string{
		"If it isn't trending, it didn't happen.",
		"We don't need a platform, we need a template.",
		"Ratio them into the sun.",
	},
}

var advisorPool = []Advisor{
	{
		Name:     "Margaret Pollworth",
		Role:     "Pollster",
		Ideology: "Data Centrist",
		Traits:   []string{"methodical", "pessimistic"},
		Quotes:   []string{"The margin of error is my love language.", "Crosstabs never lie. People do."},
	},
	{
		Name:     "Chad Ventures",
		Role:     "Finance Chair",
		Ideology: "Libertarian-ish",
		Traits:   []string{"well connected", "tone deaf"},
		Quotes:   []string{"Have you considered a second yacht-based fundraiser?", "Money talks. Ours shouts."},
	},
	{
		Name:     "Rosa Grassroots",
		Role:     "Field Organizer",
		Ideology: "Progressive",
		Traits:   []string{"relentless", "idealistic"},
		Quotes:   []string{"Every door knocked is a vote earned.", "The clipboard is mightier than the sword."},
	},
	{
		Name:     "Hank Heartland",
		Role:     "Rural Outreach",
		Ideology: "Populist",
		Traits:   []string{"folksy", "stubborn"},
		Quotes:   []string{"Nobody ever lost a county fair by eating too much pie.", "Talk less, shake more hands."},
	},
	{
		Name:     "Dana Spinwell",
		Role:     "Communications Director",
		Ideology: "Whatever Polls Well",
		Traits:   []string{"silver tongued", "evasive"},
		Quotes:   []string{"That wasn't a gaffe, it was a pivot.", "Let's circle back to never."},
	},
	{
		Name:     "Dr. Ada Byte",
		Role:     "Tech Policy Lead",
		Ideology: "Techno-Optimist",
		Traits:   []string{"brilliant", "jargon prone"},
		Quotes:   []string{"We should A/B test democracy.", "The algorithm is just vibes with math."},
	},
}

// GenerateAdvisors returns the meme strategist plus two distinct advisors from
// the pool.
func GenerateAdvisors(rng Source) ([]Advisor, error) {
	if len(advisorPool) < AdvisorCount-1 {
		return nil, fmt.Errorf("%w: advisor pool has %d entries", ErrInvalidState, len(advisorPool))
	}
	out := make([]Advisor, 0, AdvisorCount)
	out = append(out, cloneAdvisor(memeStrategist))
	for _, a := range sample(rng, advisorPool, AdvisorCount-1) {
		out = append(out, cloneAdvisor(a))
	}
	return out, nil
}

func cloneAdvisor(a Advisor) Advisor {
	a.Traits = append([]string(nil), a.Traits...)
	a.Quotes = append([]string(nil), a.Quotes...)
	return a
}

var tweetHandles = []string{
	"Patriot4Memes", "SwingVoterSue", "TechBroTony", "GrandmaOnline", "PoliticalPundit99",
	"CornfieldCarl", "WokeWendy", "MarketMike", "NotABot_1337", "ModerateMel",
	"ZoomerZack", "FactCheckFran",
}

// Templates with a %s are guaranteed to mention the action verbatim.
var mentionTemplates = []string{
	"Just saw the %s and honestly? I'm in.",
	"This %s is the most unhinged thing I've seen all week",
	"Whoever planned the %s deserves a raise. Or jail.",
	"Nobody:\nAbsolutely nobody:\nThe campaign: %s",
	"Rating the %s: 7/10, needed more eagles",
	"My whole feed is the %s now. Send help.",
}

var ambientTemplates = []string{
	"Can we talk about policy for once??",
	"Polls are fake. Also my candidate is up 4.",
	"Logging off forever (back in 5 min)",
	"This election is giving season finale energy",
	"Ok but who is paying for all this",
	"Ratio.",
}

// GenerateTweets returns three reactions; the first always names actionName.
func GenerateTweets(actionName string, rng Source) ([]Tweet, error) {
	if strings.TrimSpace(actionName) == "" {
		return nil, fmt.Errorf("%w: action name is required", ErrInvalidState)
	}
	handles := sample(rng, tweetHandles, TweetCount)
	out := make([]Tweet, 0, TweetCount)
	for i, h := range handles {
		var content string
		if i == 0 || rng.Intn(2) == 0 {
			content = fmt.Sprintf(pick(rng, mentionTemplates), actionName)
		} else {
			content = pick(rng, ambientTemplates)
		}
		out = append(out, Tweet{User: "@" + h, Content: content})
	}
	return out, nil
}
