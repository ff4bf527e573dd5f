package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/bandwidthscraper/pkg/models"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent chart deliveries",
	Long:  `Displays the run journal: one row per branch of each run, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of rows to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if db == nil {
		return fmt.Errorf("the run journal is disabled (--db is empty)")
	}
	defer db.Close()

	deliveries, err := db.ListDeliveries(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("listing deliveries: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(deliveries) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	fmt.Fprintln(out, "----------------------------------------------------------------------------")
	fmt.Fprintf(out, "%-20s  %-8s  %-9s  %-8s  %s\n", "Time", "Branch", "Status", "Size", "Detail")
	fmt.Fprintln(out, "----------------------------------------------------------------------------")
	for _, d := range deliveries {
		size := "-"
		if d.Size > 0 {
			size = humanize.Bytes(uint64(d.Size))
		}
		detail := d.Chart
		if d.Status != models.StatusDelivered {
			detail = d.Error
		}
		fmt.Fprintf(out, "%-20s  %-8s  %-9s  %-8s  %s\n",
			d.CreatedAt.Local().Format("2006-01-02 15:04:05"), d.Branch, d.Status, size, detail)
	}
	fmt.Fprintln(out, "----------------------------------------------------------------------------")

	counts, err := db.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("counting deliveries: %w", err)
	}
	fmt.Fprintf(out, "Total: %d delivered, %d failed, %d skipped (last %s)\n",
		counts[models.StatusDelivered], counts[models.StatusFailed], counts[models.StatusSkipped],
		humanize.Time(deliveries[0].CreatedAt))

	return nil
}
