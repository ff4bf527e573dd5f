package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/bandwidthscraper/internal/config"
	"github.com/jgoulah/bandwidthscraper/internal/notify"
	"github.com/jgoulah/bandwidthscraper/internal/pipeline"
	"github.com/jgoulah/bandwidthscraper/internal/portal"
	"github.com/jgoulah/bandwidthscraper/internal/publisher"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var runStrictLogin bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch usage, render charts and deliver them",
	Long: `Logs in to the portal once, then runs the hourly and daily branches in order.
Each branch fetches its series, renders a chart and uploads it to every configured target.
A failing branch is reported without stopping the other one.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runStrictLogin, "strict-login", false, "Abort the run when the portal login fails")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("strict-login") {
		cfg.StrictLogin = runStrictLogin
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	session, err := portal.NewSession(cfg.Portal)
	if err != nil {
		return fmt.Errorf("creating portal session: %w", err)
	}

	p := pipeline.New(session, buildNotifiers(cfg)...)
	p.StrictLogin = cfg.StrictLogin

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if db != nil {
		defer db.Close()
		p.Journal = db
	}

	if cfg.MQTT.Enabled {
		pub, err := publisher.New(cfg.MQTT)
		if err != nil {
			logger.Warn().Err(err).Msg("MQTT summary disabled for this run")
		} else {
			defer pub.Close()
			p.Summary = pub
		}
	}

	report := p.Run(ctx)
	printReport(cmd, report)

	if report.Failed() {
		return fmt.Errorf("no chart delivered: %w", report.Err())
	}
	return nil
}

func buildNotifiers(cfg *config.Config) []notify.Notifier {
	var notifiers []notify.Notifier
	if cfg.Telegram.Enabled() {
		notifiers = append(notifiers, notify.NewTelegram(cfg.Telegram))
	}
	if cfg.Slack.Enabled() {
		notifiers = append(notifiers, notify.NewSlack(cfg.Slack))
	}
	return notifiers
}

func printReport(cmd *cobra.Command, report *pipeline.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s)\n", report.RunID, report.Duration.Round(time.Millisecond))
	if report.LoginErr != nil {
		fmt.Fprintf(out, "  login    FAILED  %v\n", report.LoginErr)
	}
	for _, b := range report.Branches {
		switch {
		case b.Err == nil:
			fmt.Fprintf(out, "  %-8s %-7s %s (%s, %d samples)\n", b.Granularity, "OK", b.Chart, humanize.Bytes(uint64(b.Size)), b.Samples)
		default:
			fmt.Fprintf(out, "  %-8s %-7s %v\n", b.Granularity, "FAILED", b.Err)
		}
	}
}
