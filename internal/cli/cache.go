package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/gatekeeper/internal/triage"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the contact cache",
	}
	cmd.AddCommand(newCacheListCmd())
	return cmd
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List senders already classified as contacts",
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

			entries, err := triage.NewCache(db, accountID).All(ctx)
			if err != nil {
				return fmt.Errorf("failed to read contact cache: %w", err)
			}
			out := toJSONCache(entries)

			if jsonFlag {
				return printJSON(out)
			}
			if len(out) == 0 {
				fmt.Println("The contact cache is empty.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ADDRESS\tCLASSIFICATION")
			for _, e := range out {
				fmt.Fprintf(w, "%s\t%s\n", e.Address, e.Classification)
			}
			return w.Flush()
		},
	}
}
