package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "spindoctor/internal/cli"
	"spindoctor/internal/game"
	"spindoctor/internal/ghost"
	"spindoctor/internal/ghoststore"
	"spindoctor/internal/session"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)
	winStyle   = panelStyle.BorderForeground(lipgloss.Color("2"))
	lossStyle  = panelStyle.BorderForeground(lipgloss.Color("1"))
	tieStyle   = panelStyle.BorderForeground(lipgloss.Color("3"))
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

// interactive reports whether stdin is a terminal we can prompt on.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptIndex(label string, n int) (int, error) {
	for {
		text, err := promptRequired(fmt.Sprintf("%s [1-%d]", label, n))
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(text)
		if err != nil || v < 1 || v > n {
			printWarn(fmt.Sprintf("Pick a number between 1 and %d.", n))
			continue
		}
		return v - 1, nil
	}
}

func chooseInteractively(cmd *cobra.Command, client *cl.Client, sessionID string, options []game.EventOption) error {
	if len(options) == 0 {
		return nil
	}
	for i, opt := range options {
		fmt.Printf("  %d) %s\n", i+1, opt.Text)
	}
	idx, err := promptIndex("Your call", len(options))
	if err != nil {
		return err
	}
	return submitChoice(cmd, client, sessionID, idx)
}

func submitChoice(cmd *cobra.Command, client *cl.Client, sessionID string, idx int) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()
	res, err := client.Choose(ctx, sessionID, idx)
	if err != nil {
		return err
	}
	renderOutcome(res.Outcome)
	for _, a := range res.NewAchievements {
		printSuccess("Achievement unlocked: " + a)
	}
	renderState(res.Session)
	return nil
}

func renderState(view session.View) {
	s := view.State
	if s == nil {
		printError("Session has no state.")
		return
	}
	snap := s.Snapshot()
	accent.Printf("\n== %s | turn %d/%d ==\n", view.Player, s.Turn, s.MaxTurns)
	fmt.Printf("Support:  %s\n", colorizeSupport(snap.Support))
	fmt.Printf("Clout:    %d\n", s.Clout)
	fmt.Printf("Funds:    $%d\n", s.Funds)
	fmt.Printf("Risk:     %s\n", colorizeRisk(s.Risk))
	fmt.Printf("Streak:   %d (best %d, %d crits)\n", s.Streak, s.HighestStreak, s.TotalCriticalHits)
	switch {
	case s.Victory:
		printSuccess("VICTORY! The nation has spoken.")
	case s.GameOver && snap.Banned():
		printError("BANNED. Every platform suspended the campaign.")
	case s.GameOver:
		printWarn("Election day came and went.")
	case s.PendingEvent != nil:
		printWarn("Decision needed: " + s.PendingEvent.Title + " (run `spin choose`)")
	}
	fmt.Println()
}

func renderTurn(res game.TurnResult) {
	if res.Critical {
		warn.Println("CRITICAL HIT!")
	}
	renderOutcome(res.Outcome)
	renderTweets(res.Tweets)
	if res.Event != nil {
		renderEvent(*res.Event)
	}
	for _, r := range res.Reactions {
		if r.Up {
			printSuccess(r.Message)
		} else {
			printWarn(r.Message)
		}
	}
	if res.BreakingNews != nil {
		danger.Println("BREAKING: " + res.BreakingNews.Headline)
	}
	for _, a := range res.NewAchievements {
		printSuccess("Achievement unlocked: " + a)
	}
}

func renderOutcome(o game.Outcome) {
	if o.Headline != "" {
		accent.Println(o.Headline)
	}
	regions := o.Support.Regions()
	switch {
	case o.Support.Kind == game.DeltaUniform && !o.Support.IsZero():
		fmt.Printf("Support %s everywhere\n", signed(o.Support.Uniform))
	case len(regions) > 0:
		parts := make([]string, 0, len(regions))
		for _, r := range regions {
			parts = append(parts, fmt.Sprintf("%s %s", r, signed(o.Support.For(r))))
		}
		fmt.Printf("Support: %s\n", strings.Join(parts, ", "))
	}
	if o.CloutDelta != 0 || o.FundsDelta != 0 || o.RiskDelta != 0 {
		fmt.Printf("Clout %+d, funds %+d, risk %+d\n", o.CloutDelta, o.FundsDelta, o.RiskDelta)
	}
}

func renderEvent(ev game.Event) {
	accent.Printf("\n>> %s\n", ev.Title)
	printInfo(ev.Description)
	switch ev.Kind {
	case game.EventNarrative:
		if ev.Outcome != nil {
			renderOutcome(*ev.Outcome)
		}
	case game.EventInteractive:
		for i, opt := range ev.Options {
			fmt.Printf("  %d) %s\n", i+1, opt.Text)
		}
	}
}

func renderTweets(tweets []game.Tweet) {
	for _, t := range tweets {
		fmt.Printf("  %s %s\n", dimStyle.Render(t.User), t.Content)
	}
}

func renderNews(news []game.NewsItem, n int) {
	if len(news) == 0 {
		return
	}
	accent.Println("Headlines")
	start := max(0, len(news)-n)
	for _, item := range news[start:] {
		line := fmt.Sprintf("  [t%d] %s", item.Turn, item.Headline)
		if item.Critical {
			warn.Println(line)
			continue
		}
		fmt.Println(line)
	}
}

func renderActions(actions []cl.ActionInfo) {
	accent.Println("\n== ACTIONS ==")
	fmt.Printf("%-18s %-20s %6s %6s  %s\n", "ID", "NAME", "CLOUT", "FUNDS", "DESCRIPTION")
	for _, a := range actions {
		fmt.Printf("%-18s %-20s %6d %6d  %s\n", a.ID, truncate(a.Name, 20), a.Cost.Clout, a.Cost.Funds, a.Description)
	}
	fmt.Println()
}

func renderAdvisors(advisors []game.Advisor) {
	accent.Println("Advisory board")
	for _, a := range advisors {
		fmt.Printf("  %s, %s (%s)\n", a.Name, a.Role, a.Ideology)
		if len(a.Quotes) > 0 {
			fmt.Printf("    %s\n", dimStyle.Render(`"`+a.Quotes[0]+`"`))
		}
	}
	fmt.Println()
}

func renderMoods(moods []game.FactionMood) {
	accent.Println("\n== FACTIONS ==")
	for _, m := range moods {
		fmt.Printf("  %s %-16s %5.1f  %-10s %s\n", m.Icon, m.Label, m.Value, m.Level, m.Trend)
	}
	fmt.Println()
}

func renderSeason(season game.SeasonalEvent) {
	left := time.Duration(season.RemainingSeconds) * time.Second
	accent.Printf("%s %s\n", season.Icon, season.Label)
	fmt.Printf("Ends %s (%s left)\n", season.EndsAt.Local().Format("Jan 2"), left.Round(time.Hour))
}

func renderGhosts(ghosts []ghoststore.Summary) {
	accent.Println("\n== GHOSTS ==")
	if len(ghosts) == 0 {
		printInfo("No ghosts published yet.")
		return
	}
	fmt.Printf("%-36s %-16s %6s %8s %5s  %s\n", "ID", "PLAYER", "TURNS", "SUPPORT", "RISK", "RESULT")
	for _, g := range ghosts {
		result := "finished"
		switch {
		case g.Victory:
			result = "victory"
		case g.Banned:
			result = "banned"
		}
		fmt.Printf("%-36s %-16s %6d %8.2f %5d  %s\n", g.ID, truncate(g.Player, 16), g.Turns, g.FinalSupport, g.FinalRisk, result)
	}
	fmt.Println()
}

func renderBattle(cmp ghost.BattleComparison) {
	style := tieStyle
	switch cmp.Verdict {
	case ghost.VerdictWin:
		style = winStyle
	case ghost.VerdictLoss:
		style = lossStyle
	}
	lines := []string{
		titleStyle.Render(strings.ToUpper(string(cmp.Verdict))) + "  " + cmp.Narrative,
		"",
		fmt.Sprintf("You       %6.2f support  %3d risk  turn %d", cmp.PlayerFinal.Support, cmp.PlayerFinal.Risk, cmp.PlayerFinal.Turn),
		fmt.Sprintf("Ghost     %6.2f support  %3d risk  turn %d", cmp.OpponentFinal.Support, cmp.OpponentFinal.Risk, cmp.OpponentFinal.Turn),
		fmt.Sprintf("Margin    %s", signed(cmp.SupportMargin)),
		fmt.Sprintf("Lead      %d you / %d ghost / %d even, %d lead changes",
			cmp.PlayerLeadTurns, cmp.OpponentLeadTurns, cmp.TiedTurns, cmp.LeadChanges),
		"",
		fmt.Sprintf("Score %.0f  %s league", cmp.Score, strings.ToUpper(cmp.Tier.String())),
	}
	fmt.Println(style.Render(strings.Join(lines, "\n")))
}

func colorizeSupport(v float64) string {
	text := fmt.Sprintf("%.2f%%", v)
	switch {
	case v >= game.VictorySupport:
		return success.Sprint(text)
	case v < 40:
		return danger.Sprint(text)
	default:
		return text
	}
}

func colorizeRisk(v int) string {
	text := fmt.Sprintf("%d/%d", v, game.RiskLimit)
	switch {
	case v >= 80:
		return danger.Sprint(text)
	case v >= 50:
		return warn.Sprint(text)
	default:
		return text
	}
}

func signed(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
