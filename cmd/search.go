package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/corpsearch-cli/internal/name"
	"github.com/sells-group/corpsearch-cli/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Check whether a business name is available",
	Long: `Check a proposed business name against all three record kinds.

The answer is advisory: a non-empty match list means the name likely
conflicts under the distinguishability rules, but final determination
rests with the filing examiner.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		svc := search.New(st, name.DefaultRules(), searchOptions(), nil)
		res, err := svc.Search(ctx, query)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		if res.NormalizedKey == "" {
			fmt.Println("Name cannot be evaluated (normalizes to empty).")
			return nil
		}
		if res.Available {
			fmt.Printf("AVAILABLE: no conflicts for %q (key %q)\n", query, res.NormalizedKey)
			return nil
		}
		fmt.Printf("NOT AVAILABLE: %d conflict(s) for %q (key %q)\n", len(res.Matches), query, res.NormalizedKey)
		for _, m := range res.Matches {
			date := ""
			if m.FiledDate != nil {
				date = m.FiledDate.Format("2006-01-02")
			}
			fmt.Printf("  %-12s %-12s %-4s %-10s %s\n", m.DocumentNumber, m.Kind, m.Status, date, m.Name)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Bool("json", false, "emit the full result as JSON")
	rootCmd.AddCommand(searchCmd)
}
