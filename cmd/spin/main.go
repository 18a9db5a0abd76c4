package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cl "spindoctor/internal/cli"
	"spindoctor/internal/config"
	"spindoctor/internal/ghost"
	"spindoctor/internal/runfile"

	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.LoadCLIFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "spin",
		Short:        "Spin Doctor campaign client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newNewCmd(&apiBase),
		newStatusCmd(&apiBase),
		newActionsCmd(&apiBase),
		newActCmd(&apiBase),
		newEventCmd(&apiBase),
		newChooseCmd(&apiBase),
		newMoodCmd(&apiBase),
		newAdvisorsCmd(&apiBase),
		newTweetsCmd(&apiBase),
		newSeasonCmd(&apiBase),
		newPublishCmd(&apiBase),
		newGhostsCmd(&apiBase),
		newBattleCmd(&apiBase),
		newExportCmd(&apiBase),
		newCompareCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func runsDir() (string, error) {
	dir, err := cl.BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "runs"), nil
}

func newNewCmd(apiBase *string) *cobra.Command {
	var player string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(player) == "" && interactive() {
				name, err := promptRequired("Candidate name")
				if err != nil {
					return err
				}
				player = name
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			view, err := newClient(apiBase).NewSession(ctx, player)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{SessionID: view.ID, Player: view.Player, APIBase: *apiBase}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Campaign launched for %s.", view.Player))
			renderState(view)
			renderAdvisors(view.State.Advisors)
			return nil
		},
	}
	cmd.Flags().StringVar(&player, "player", "", "candidate name shown on ghost boards")
	return cmd
}

func newStatusCmd(apiBase *string) *cobra.Command {
	var showNews bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			view, err := newClient(apiBase).Session(ctx, s.SessionID)
			if err != nil {
				return err
			}
			renderState(view)
			if showNews {
				renderNews(view.State.NewsLog, 10)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showNews, "news", false, "include the latest headlines")
	return cmd
}

func newActionsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List campaign actions and their costs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			actions, err := newClient(apiBase).Actions(ctx)
			if err != nil {
				return err
			}
			renderActions(actions)
			return nil
		},
	}
}

func newActCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "act <action>",
		Short: "Take one campaign action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			res, err := client.Act(ctx, s.SessionID, strings.TrimSpace(args[0]))
			if err != nil {
				var apiErr *cl.APIError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
					printWarn(apiErr.Message)
					return nil
				}
				return err
			}
			renderTurn(res.Result)
			renderState(res.Session)
			if ev := res.Session.State.PendingEvent; ev != nil && interactive() {
				return chooseInteractively(cmd, client, s.SessionID, ev.Options)
			}
			return nil
		},
	}
}

func newEventCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "event",
		Short: "Draw a random event for the campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			res, err := newClient(apiBase).DrawEvent(ctx, s.SessionID)
			if err != nil {
				return err
			}
			renderEvent(res.Event)
			for _, a := range res.NewAchievements {
				printSuccess("Achievement unlocked: " + a)
			}
			return nil
		},
	}
}

func newChooseCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "choose [option]",
		Short: "Answer the pending event",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cl.LoadSession()
			if err != nil {
				return err
			}
			client := newClient(apiBase)
			if len(args) == 0 {
				ctx, cancel := requestContext(cmd)
				defer cancel()
				view, err := client.Session(ctx, s.SessionID)
				if err != nil {
					return err
				}
				if view.State.PendingEvent == nil {
					printInfo("Nothing awaits a decision.")
					return nil
				}
				if !interactive() {
					renderEvent(*view.State.PendingEvent)
					return fmt.Errorf("pass the option number as an argument")
				}
				renderEvent(*view.State.PendingEvent)
				return chooseInteractively(cmd, client, s.SessionID, view.State.PendingEvent.Options)
			}
			option, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("option must be a number: %w", err)
			}
			return submitChoice(cmd, client, s.SessionID, option-1)
		},
	}
}

func newMoodCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mood",
		Short: "Show how each faction feels about the campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			moods, err := newClient(apiBase).Mood(ctx, s.SessionID)
			if err != nil {
				return err
			}
			renderMoods(moods)
			return nil
		},
	}
}

func newAdvisorsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "advisors",
		Short: "Meet a fresh advisory board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			advisors, err := newClient(apiBase).Advisors(ctx)
			if err != nil {
				return err
			}
			renderAdvisors(advisors)
			return nil
		},
	}
}

func newTweetsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tweets <action>",
		Short: "Preview the timeline's reaction to an action",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			tweets, err := newClient(apiBase).Tweets(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			renderTweets(tweets)
			return nil
		},
	}
}

func newSeasonCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "season",
		Short: "Show the active campaign season",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			season, err := newClient(apiBase).Season(ctx)
			if err != nil {
				return err
			}
			renderSeason(season)
			return nil
		},
	}
}

func newPublishCmd(apiBase *string) *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the finished campaign as a ghost",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			run, err := newClient(apiBase).Publish(ctx, s.SessionID)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Ghost %s published with %d snapshots.", run.ID, len(run.Snapshots)))
			if keep {
				dir, err := runsDir()
				if err != nil {
					return err
				}
				path, err := runfile.Save(dir, run)
				if err != nil {
					return err
				}
				printInfo("Saved a copy to " + path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", true, "also keep a local copy of the run")
	return cmd
}

func newGhostsCmd(apiBase *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ghosts",
		Short: "List published ghost runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			ghosts, err := newClient(apiBase).Ghosts(ctx, limit)
			if err != nil {
				return err
			}
			renderGhosts(ghosts)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum ghosts to list")
	return cmd
}

func newBattleCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "battle <ghost-id>",
		Short: "Battle your campaign against a published ghost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			cmp, err := newClient(apiBase).Battle(ctx, s.SessionID, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			renderBattle(cmp)
			return nil
		},
	}
}

func newExportCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export [path]",
		Short: "Write the campaign's run to a local JSON file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			run, err := newClient(apiBase).Run(ctx, s.SessionID)
			if err != nil {
				return err
			}
			if run.Player == "" {
				run.Player = s.Player
			}
			var path string
			if len(args) == 1 {
				path = args[0]
				err = runfile.Write(path, run)
			} else {
				var dir string
				dir, err = runsDir()
				if err == nil {
					path, err = runfile.Save(dir, run)
				}
			}
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Exported %d snapshots to %s", len(run.Snapshots), path))
			return nil
		},
	}
}

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <player.json> <opponent.json>",
		Short: "Compare two exported runs offline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := runfile.Read(args[0])
			if err != nil {
				return err
			}
			opponent, err := runfile.Read(args[1])
			if err != nil {
				return err
			}
			cmp, err := ghost.CompareRuns(player, opponent)
			if err != nil {
				return err
			}
			renderBattle(cmp)
			return nil
		},
	}
}
