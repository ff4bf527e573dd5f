package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jgoulah/bandwidthscraper/internal/config"
	"github.com/jgoulah/bandwidthscraper/internal/database"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const defaultDBPath = "data.db"

var (
	cfgFile  string
	dbPath   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "bandwidthscraper",
	Short: "Chart ISP bandwidth usage and send it to a chat",
	Long: `BandwidthScraper logs in to the ISP customer portal, downloads hourly and daily
usage, renders each as a chart and delivers the images to Telegram (and optionally Slack).
Run it from cron or a systemd timer; each invocation is a single pass.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml, .ini for the legacy layout)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath, `run journal database file ("" disables the journal)`)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// setupLogging attaches a console logger to the command context
func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("parsing --log-level: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()

	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// openDB opens the run journal. It returns nil when the journal is disabled.
func openDB() (*database.DB, error) {
	if dbPath == "" {
		return nil, nil
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(dbPath)
}
