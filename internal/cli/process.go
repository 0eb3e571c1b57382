package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProcessCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Triage recent inbox mail now",
		Long: "Scan recent inbox threads, classify their senders, and apply the\n" +
			"account's policy (label, archive, auto-reply) to unsolicited ones.",
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
			logger := newLogger(cfg)
			svc, err := newTriageService(cfg, db, logger)
			if err != nil {
				return err
			}

			var accountIDs []string
			if all {
				accounts, err := db.ListAccounts(ctx)
				if err != nil {
					return fmt.Errorf("failed to list accounts: %w", err)
				}
				for _, a := range accounts {
					accountIDs = append(accountIDs, a.ID)
				}
			} else {
				id, err := resolveAccountID(ctx, db, cfg)
				if err != nil {
					return err
				}
				accountIDs = []string{id}
			}

			var results []jsonResult
			for _, id := range accountIDs {
				res, err := svc.Process(ctx, id)
				if err != nil {
					// The service already logged the underlying error.
					return fmt.Errorf("triage failed for %s", id)
				}
				results = append(results, toJSONResult(id, res))
			}

			if jsonFlag {
				return printJSON(results)
			}
			for _, r := range results {
				printResult(r, len(results) > 1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "process every configured account")
	return cmd
}

func printResult(r jsonResult, withAccount bool) {
	prefix := ""
	if withAccount {
		prefix = r.AccountID + ": "
	}
	switch {
	case r.Archived > 0:
		printSuccess("%sArchived %d unsolicited thread(s).", prefix, r.Archived)
	case r.Unsolicited > 0:
		printSuccess("%sLabeled %d unsolicited thread(s).", prefix, r.Unsolicited)
	default:
		fmt.Println(prefix + "No unsolicited mail found.")
	}
}
