package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/provider/gmail"
	"github.com/lu-zhengda/gatekeeper/internal/store"
	"github.com/lu-zhengda/gatekeeper/internal/store/sqlite"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the Gmail accounts gatekeeper triages",
	}
	cmd.AddCommand(newAccountAddCmd())
	cmd.AddCommand(newAccountListCmd())
	cmd.AddCommand(newAccountRemoveCmd())
	return cmd
}

func newAccountAddCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Authorize a Gmail account",
		Long: "Authorize gatekeeper to read, label, archive and reply to mail and to\n" +
			"search contacts. The OAuth token is kept in the OS keyring.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := resolveGmailCredentials(cfg); err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			addr, err := authorizeGmail(ctx, email, newLogger(cfg))
			if err != nil {
				return err
			}

			account := &domain.Account{
				ID:          addr,
				Email:       addr,
				Provider:    "gmail",
				DisplayName: addr,
				CreatedAt:   time.Now(),
			}
			if err := db.CreateAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to store account: %w", err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "add", Email: addr, AccountID: addr})
			}
			printSuccess("Account added: %s", addr)
			fmt.Println(mutedStyle.Render("Run 'gatekeeper schedule on' to triage it every hour."))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (auto-detected if omitted)")
	return cmd
}

// authorizeGmail runs the OAuth flow and returns the account address. Without
// a known address the token is saved under a temporary ID until the profile
// reveals the real one.
func authorizeGmail(ctx context.Context, email string, logger *log.Logger) (string, error) {
	tokenStore := store.NewKeyringTokenStore()

	accountID := email
	if accountID == "" {
		accountID = fmt.Sprintf("gmail-%d", time.Now().UnixNano())
	}
	p := gmail.New(accountID, tokenStore, logger)

	fmt.Println("Starting Gmail OAuth flow...")
	if err := p.Authenticate(ctx); err != nil {
		return "", fmt.Errorf("failed to authenticate: %w", err)
	}
	if email != "" {
		return email, nil
	}

	addr, err := p.GetProfile(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get profile email: %w", err)
	}
	if err := tokenStore.RenameToken(accountID, addr); err != nil {
		return "", fmt.Errorf("failed to store token for %s: %w", addr, err)
	}
	return addr, nil
}

func newAccountListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			accounts, err := db.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(toJSONAccounts(accounts))
			}
			if len(accounts) == 0 {
				fmt.Println("No accounts configured. Run 'gatekeeper account add' to add one.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tADDED")
			for _, a := range toJSONAccounts(accounts) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", a.ID, a.Email, a.CreatedAt)
			}
			return w.Flush()
		},
	}
}

func newAccountRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id-or-email>",
		Short: "Remove an account with its settings, cache, schedule and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			target, err := findAccount(ctx, db, args[0])
			if err != nil {
				return err
			}
			if err := db.DeleteAccount(ctx, target.ID); err != nil {
				return err
			}
			if err := store.NewKeyringTokenStore().DeleteToken(target.ID); err != nil {
				printWarning("Warning: could not remove token from keyring: %v", err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "remove", Email: target.Email, AccountID: target.ID})
			}
			printSuccess("Account removed: %s", target.Email)
			return nil
		},
	}
}

// findAccount looks an account up by ID, then by email address.
func findAccount(ctx context.Context, db *sqlite.DB, key string) (*domain.Account, error) {
	a, err := db.GetAccount(ctx, key)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	accounts, err := db.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if domain.NormalizeAddress(accounts[i].Email) == domain.NormalizeAddress(key) {
			return &accounts[i], nil
		}
	}
	return nil, fmt.Errorf("account not found: %s", key)
}
