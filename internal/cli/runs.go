package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent triage runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			accountID, err := resolveAccountID(ctx, db, cfg)
			if err != nil {
				return err
			}

			runs, err := db.ListRuns(ctx, accountID, limit)
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(toJSONRuns(runs))
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded yet. Run 'gatekeeper process' to triage now.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tDURATION\tSCANNED\tUNSOLICITED\tARCHIVED\tLOOKUPS\tSTATUS")
			for _, r := range runs {
				status := "ok"
				if r.Error != "" {
					status = "failed: " + r.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					r.StartedAt.Local().Format(time.DateTime),
					r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
					r.Scanned, r.Unsolicited, r.Archived, r.Lookups,
					status,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}
