package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"heimdall/api"
	"heimdall/config"
	"heimdall/monitor"
	"heimdall/style"
)

var (
	cfg    *config.Config
	client *api.Client

	teamID   string
	interval time.Duration
	attempts int
	plain    bool
)

var rootCmd = &cobra.Command{
	Use:   "heimdall [project]",
	Short: "Watch a Vercel deployment until it resolves",
	Long: `Heimdall — a deployment watchman for Vercel.

Named after the Norse sentinel who never sleeps: point it at a project and it
keeps watch over the most recent deployment, polling the Vercel API until the
deployment is READY, fails, or the wait budget runs out. Omit the project to
watch the team's latest deployment.

Reads VERCEL_TOKEN (required) and VERCEL_TEAM_ID from the environment or a
.env file. Exit codes: 0 ready, 1 failed, 2 timed out.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if teamID != "" {
			cfg.TeamID = teamID
		}
		if cmd.Flags().Changed("interval") {
			cfg.Interval = interval
		}
		if cmd.Flags().Changed("attempts") {
			cfg.MaxAttempts = attempts
		}
		client = api.New(cfg.APIBase, cfg.Token, cfg.TeamID)
	},
	RunE:         runWatch,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&teamID, "team-id", "", "Vercel team ID (default: VERCEL_TEAM_ID)")
	rootCmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "delay between status checks")
	rootCmd.Flags().IntVar(&attempts, "attempts", 10, "status checks before giving up")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "line-oriented output (default when stdout is not a TTY)")
}

// requireToken runs before anything that talks to the API, so a missing
// credential fails without a single poll.
func requireToken() error {
	if cfg.Token == "" {
		return errors.New("VERCEL_TOKEN is not set")
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireToken(); err != nil {
		return err
	}

	project := ""
	if len(args) == 1 {
		project = args[0]
	}

	if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return watchPlain(project)
	}
	return watchTUI(project)
}

func newMonitor(rep monitor.Reporter) *monitor.Monitor {
	return monitor.New(client,
		monitor.WithInterval(cfg.Interval),
		monitor.WithMaxAttempts(cfg.MaxAttempts),
		monitor.WithReporter(rep),
	)
}

// consoleReporter prints one line per poll, for CI logs.
type consoleReporter struct{}

func (consoleReporter) Found(d *api.Deployment) {
	fmt.Printf("%s%s\n", style.Key.Render("id"), style.DimText.Render(d.DeploymentID()))
	if d.Name != "" {
		fmt.Printf("%s%s\n", style.Key.Render("project"), style.Val.Render(d.Name))
	}
	fmt.Printf("%s%s %s\n", style.Key.Render("state"), style.StateDot(d.Status()), d.Status())
}

func (consoleReporter) Waiting(attempt, max int, interval time.Duration) {
	fmt.Printf("  %s in progress, next check in %s (%d/%d)\n",
		style.DimText.Render("·"), interval, attempt, max)
}

func watchPlain(project string) error {
	title := "watching latest team deployment"
	if project != "" {
		title = "watching " + project
	}
	fmt.Println(style.Title.Render(title))

	d, err := newMonitor(consoleReporter{}).Run(context.Background(), project)
	printOutcome(d, err)
	return err
}

// printOutcome renders the final deployment record and verdict. Shared by
// the plain and interactive paths.
func printOutcome(d *api.Deployment, err error) {
	if d != nil {
		fmt.Println()
		fmt.Printf("%s%s %s\n", style.Key.Render("state"), style.StateDot(d.Status()), style.StateStyle(d.Status()).Render(d.Status()))
		if d.URL != "" {
			fmt.Printf("%s%s\n", style.Key.Render("url"), style.Val.Render("https://"+d.URL))
		}
		fmt.Printf("%s%s\n", style.Key.Render("commit"), style.CommitText.Render(d.CommitInfo()))
		if d.ErrorMessage != "" {
			fmt.Printf("%s%s\n", style.Key.Render("error"), style.Unhealthy.Render(d.ErrorMessage))
		}
	}

	switch {
	case err == nil:
		fmt.Println(style.SuccessBox.Render("✓ deployment ready"))
	case errors.Is(err, monitor.ErrTimeout):
		fmt.Println(style.WarnBox.Render("⧗ " + err.Error()))
	default:
		fmt.Println(style.ErrorBox.Render("✗ " + err.Error()))
	}
}
