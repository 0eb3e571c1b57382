package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/settings"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change an account's triage policy",
	}
	cmd.AddCommand(newSettingsShowCmd())
	cmd.AddCommand(newSettingsSetCmd())
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
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

			s, err := settings.Load(ctx, db, accountID)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONSettings(s, nil))
			}
			return printSettings(s)
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	var (
		minEmails   string
		label       string
		replyText   string
		autoArchive bool
		onlyPrimary bool
		autoReply   bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings; invalid values are reported and not stored",
		Example: "  gatekeeper settings set --label Strangers --auto-archive\n" +
			"  gatekeeper settings set --auto-reply --reply-text 'I only read mail sent to [EMAIL_ADDRESS] by people I know.'",
		RunE: func(cmd *cobra.Command, args []string) error {
			var u settings.Update
			flags := cmd.Flags()
			if flags.Changed("min-emails") {
				u.MinEmails = &minEmails
			}
			if flags.Changed("label") {
				u.Label = &label
			}
			if flags.Changed("reply-text") {
				u.ReplyText = &replyText
			}
			if flags.Changed("auto-archive") {
				u.AutoArchive = &autoArchive
			}
			if flags.Changed("only-primary") {
				u.OnlyPrimary = &onlyPrimary
			}
			if flags.Changed("auto-reply") {
				u.AutoReply = &autoReply
			}

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

			s, rejected, err := settings.Apply(ctx, db, accountID, u)
			if err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONSettings(s, rejected))
			}
			for _, r := range rejected {
				printWarning("%s", r)
			}
			return printSettings(s)
		},
	}

	f := cmd.Flags()
	f.StringVar(&minEmails, "min-emails", "", "minimum email count threshold (integer >= 0)")
	f.StringVar(&label, "label", "", fmt.Sprintf("label applied to unsolicited threads (1-%d characters)", domain.MaxLabelLength-1))
	f.StringVar(&replyText, "reply-text", "", "auto-reply body; "+domain.EmailPlaceholder+" becomes your address, empty resets to the default")
	f.BoolVar(&autoArchive, "auto-archive", false, "archive unsolicited threads")
	f.BoolVar(&onlyPrimary, "only-primary", true, "only scan the Primary inbox category")
	f.BoolVar(&autoReply, "auto-reply", false, "send an automatic reply to unsolicited senders")
	return cmd
}

func printSettings(s domain.Settings) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Label\t%s\n", s.Label)
	fmt.Fprintf(w, "Auto-archive\t%s\n", onOff(s.AutoArchive))
	fmt.Fprintf(w, "Primary only\t%s\n", onOff(s.OnlyPrimary))
	fmt.Fprintf(w, "Auto-reply\t%s\n", onOff(s.AutoReply))
	fmt.Fprintf(w, "Min emails\t%d\n", s.MinEmails)
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(headerStyle.Render("Reply text"))
	fmt.Println(mutedStyle.Render(s.ReplyText))
	return nil
}
