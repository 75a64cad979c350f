package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "show aggregate statistics and recent analyses",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of recent analyses to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.store.Stats()
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	fmt.Printf("analyses: %d   findings: %d\n", stats.TotalAnalyses, stats.TotalFindings)
	if len(stats.ByPattern) > 0 {
		fmt.Println("\nfindings by pattern:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for pattern, count := range stats.ByPattern {
			fmt.Fprintf(w, "  %s\t%d\n", pattern, count)
		}
		w.Flush()
	}

	recent, err := a.store.List(statusLimit)
	if err != nil {
		return fmt.Errorf("list analyses: %w", err)
	}
	if len(recent) == 0 {
		return nil
	}

	fmt.Println("\nrecent analyses:")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tSTATUS\tSEVERITY\tFINDINGS\tCREATED")
	for _, rec := range recent {
		fmt.Fprintf(w, "  %s\t%s\t%d\t%d\t%s\n",
			rec.ID, rec.Status, rec.OverallSeverity, len(rec.Findings),
			rec.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
