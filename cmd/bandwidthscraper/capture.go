package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/jgoulah/bandwidthscraper/internal/portal"
	"github.com/jgoulah/bandwidthscraper/pkg/models"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	captureOut     string
	captureTimeout time.Duration
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Log in through a browser and save the portal usage payloads",
	Long: `Opens a browser window at the portal for you to log in manually (for example when
the portal shows a captcha). After you press Enter, the browser cookies are copied into a
portal session and the hourly and daily payloads are saved as JSON for 'render'.`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().StringVar(&captureOut, "out", ".", "Directory to write hourly.json and daily.json to")
	captureCmd.Flags().DurationVar(&captureTimeout, "timeout", 10*time.Minute, "How long to wait for the manual login")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	session, err := portal.NewSession(cfg.Portal)
	if err != nil {
		return fmt.Errorf("creating portal session: %w", err)
	}

	fmt.Println("Opening browser for portal login...")
	fmt.Println("Please log in manually in the browser window, then press Enter here.")

	// Create a visible browser context
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.Portal.UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, captureTimeout)
	defer cancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(cfg.Portal.BaseURL)); err != nil {
		return fmt.Errorf("navigating to portal: %w", err)
	}

	// Wait for user to press Enter
	fmt.Scanln()

	cookies, err := portal.BrowserCookies(browserCtx)
	if err != nil {
		return fmt.Errorf("extracting cookies: %w", err)
	}
	if len(cookies) == 0 {
		return fmt.Errorf("no cookies found - make sure you're logged in")
	}
	session.ImportCookies(cookies)
	logger.Info().Int("cookies", len(session.Cookies())).Msg("Imported browser cookies")

	if err := os.MkdirAll(captureOut, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, branch := range []struct {
		granularity models.Granularity
		path        string
	}{
		{models.Hourly, portal.HourlyPath},
		{models.Daily, portal.DailyPath},
	} {
		payload, err := session.Fetch(ctx, branch.path)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", branch.granularity, err)
		}

		series, err := portal.Normalize(branch.granularity, payload)
		if err != nil {
			logger.Warn().Err(err).Str("branch", string(branch.granularity)).Msg("Payload does not normalize; saving anyway")
		}

		file := filepath.Join(captureOut, string(branch.granularity)+".json")
		if err := os.WriteFile(file, payload, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", file, err)
		}
		fmt.Printf("✓ Saved %s (%d samples)\n", file, series.Len())
	}

	return nil
}
