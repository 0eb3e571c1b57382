package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lu-zhengda/gatekeeper/internal/app"
	"github.com/lu-zhengda/gatekeeper/internal/config"
	"github.com/lu-zhengda/gatekeeper/internal/provider"
	"github.com/lu-zhengda/gatekeeper/internal/provider/gmail"
	"github.com/lu-zhengda/gatekeeper/internal/store"
	"github.com/lu-zhengda/gatekeeper/internal/store/sqlite"
)

var (
	// version is set via ldflags at build time.
	version = "dev"
	cfgFile string

	// jsonFlag enables JSON output for all commands.
	jsonFlag bool

	// accountFlag selects the account for account-scoped commands.
	accountFlag string
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gatekeeper",
		Short: "Triage mail from unsolicited senders",
		Long: "gatekeeper finds recent inbox mail from senders you have never written to\n" +
			"and who are not in your contacts, then labels, archives or auto-replies to it.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if shell, _ := cmd.Flags().GetString("generate-completion"); shell != "" {
				switch shell {
				case "bash":
					return cmd.Root().GenBashCompletion(os.Stdout)
				case "zsh":
					return cmd.Root().GenZshCompletion(os.Stdout)
				case "fish":
					return cmd.Root().GenFishCompletion(os.Stdout, true)
				default:
					return fmt.Errorf("unsupported shell: %s (use bash, zsh, or fish)", shell)
				}
			}
			return cmd.Help()
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("gatekeeper %s\n", version))
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().String("generate-completion", "", "Generate shell completion (bash, zsh, fish)")
	root.Flags().MarkHidden("generate-completion")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&accountFlag, "account", "", "account ID to use (defaults to config default or first account)")
	root.AddCommand(newAccountCmd())
	root.AddCommand(newProcessCmd())
	root.AddCommand(newScheduleCmd())
	root.AddCommand(newSettingsCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newRunsCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// openDB creates the data directory and opens the SQLite database.
func openDB() (*sqlite.DB, error) {
	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "gatekeeper.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// loadConfig loads the application configuration from the config file.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "config.toml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger at the configured level. Logs go to
// stderr so stdout stays clean for --json output.
func newLogger(cfg *config.Config) *log.Logger {
	level, _ := cfg.LogLevel()
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}

// resolveAccountID determines which account to use: the --account flag, the
// config default, or the first account in the database.
func resolveAccountID(ctx context.Context, db *sqlite.DB, cfg *config.Config) (string, error) {
	if accountFlag != "" {
		return accountFlag, nil
	}
	if cfg.Accounts.Default != "" {
		return cfg.Accounts.Default, nil
	}

	accounts, err := db.ListAccounts(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("no accounts configured; run 'gatekeeper account add' first")
	}
	return accounts[0].ID, nil
}

// resolveGmailCredentials sets Gmail OAuth credentials using the first
// available source: config file, then environment variables.
func resolveGmailCredentials(cfg *config.Config) error {
	if cfg.Gmail.ClientID != "" && cfg.Gmail.ClientSecret != "" {
		gmail.SetCredentials(cfg.Gmail.ClientID, cfg.Gmail.ClientSecret)
		return nil
	}

	clientID := os.Getenv("GMAIL_CLIENT_ID")
	clientSecret := os.Getenv("GMAIL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		gmail.SetCredentials(clientID, clientSecret)
		return nil
	}

	return gmail.EnsureCredentials()
}

// gmailSources returns an app.Sources backed by Gmail and the People API.
func gmailSources(cfg *config.Config, logger *log.Logger) app.Sources {
	tokenStore := store.NewKeyringTokenStore()
	return func(accountID string) (provider.MailStore, provider.Directory) {
		return gmail.New(accountID, tokenStore, logger),
			gmail.NewDirectory(accountID, tokenStore, cfg.Directory.RequestsPerMinute, logger)
	}
}

// newTriageService wires the triage service for the current config.
func newTriageService(cfg *config.Config, db *sqlite.DB, logger *log.Logger) (*app.TriageService, error) {
	if err := resolveGmailCredentials(cfg); err != nil {
		return nil, err
	}
	timeout, err := cfg.RunTimeout()
	if err != nil {
		return nil, err
	}
	return app.NewTriageService(db, gmailSources(cfg, logger), timeout, logger), nil
}
