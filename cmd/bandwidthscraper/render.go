package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/bandwidthscraper/internal/chart"
	"github.com/jgoulah/bandwidthscraper/internal/portal"
	"github.com/jgoulah/bandwidthscraper/pkg/models"
	"github.com/spf13/cobra"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render [hourly|daily] <file.json>",
	Short: "Render a chart from a saved portal response",
	Long: `Normalizes a portal JSON payload saved by 'capture' (or by hand) and writes the
chart PNG without delivering it.`,
	Args: cobra.ExactArgs(2),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderOut, "out", ".", "Directory to write the chart to")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	granularity, err := parseGranularity(args[0])
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}

	series, err := portal.Normalize(granularity, payload)
	if err != nil {
		return fmt.Errorf("normalizing payload: %w", err)
	}

	img, err := chart.NewRenderer().Render(series)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(renderOut, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path, err := img.WriteFile(renderOut)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%s, %d samples)\n", path, humanize.Bytes(uint64(img.Size())), series.Len())
	return nil
}

func parseGranularity(s string) (models.Granularity, error) {
	switch g := models.Granularity(s); g {
	case models.Hourly, models.Daily:
		return g, nil
	default:
		return "", fmt.Errorf("unknown series: %s (available: hourly, daily)", s)
	}
}
