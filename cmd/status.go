package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/corpsearch-cli/internal/record"
	"github.com/sells-group/corpsearch-cli/internal/store"
)

// stalledAfter is how long a run may sit in-progress before status flags it.
const stalledAfter = 6 * time.Hour

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent sync run per record kind",
	Long: `Show data freshness: the latest sync run for each record kind, its
status and counts. A run still marked running past a threshold is flagged
as stalled; search results should not be trusted as current until a fresh
run completes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		now := time.Now().UTC()
		for _, kind := range record.Kinds() {
			run, err := st.LastSyncRun(ctx, kind)
			if err != nil {
				return err
			}
			if run == nil {
				fmt.Printf("%-12s never synced\n", kind)
				continue
			}

			note := ""
			if run.Status == store.RunRunning && now.Sub(run.StartedAt) > stalledAfter {
				note = " (STALLED?)"
			}
			fmt.Printf("%-12s %-9s%s %s processed=%d upserted=%d errors=%d",
				kind, run.Status, note, run.StartedAt.Format(time.RFC3339),
				run.Processed, run.Upserted, run.Errors)
			if run.Error != "" {
				fmt.Printf(" error=%q", run.Error)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
