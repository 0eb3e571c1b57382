package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/gatekeeper/internal/schedule"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Turn recurring triage on or off",
		Long: "Install or remove the recurring trigger for an account. Installed\n" +
			"triggers run while 'gatekeeper serve' is running.",
	}
	cmd.AddCommand(newScheduleOnCmd())
	cmd.AddCommand(newScheduleOffCmd())
	cmd.AddCommand(newScheduleStatusCmd())
	return cmd
}

func newScheduleOnCmd() *cobra.Command {
	var spec string

	cmd := &cobra.Command{
		Use:   "on",
		Short: "Install the recurring triage trigger",
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
			if spec == "" {
				spec = cfg.Schedule.Spec
			}

			svc := schedule.NewService(db, newLogger(cfg))
			created, err := svc.Enable(ctx, accountID, schedule.HandlerProcessInbox, spec)
			if err != nil {
				return err
			}
			t, err := svc.Status(ctx, accountID, schedule.HandlerProcessInbox)
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(toJSONSchedule(accountID, schedule.HandlerProcessInbox, t))
			}
			if !created {
				fmt.Printf("Recurring triage is already on for %s (%s).\n", accountID, t.Spec)
				return nil
			}
			printSuccess("Recurring triage is on for %s (%s).", accountID, t.Spec)
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "spec", "", "cron spec (defaults to [schedule] spec in config)")
	return cmd
}

func newScheduleOffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "off",
		Short: "Remove the recurring triage trigger",
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

			svc := schedule.NewService(db, newLogger(cfg))
			removed, err := svc.Disable(ctx, accountID, schedule.HandlerProcessInbox)
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(toJSONSchedule(accountID, schedule.HandlerProcessInbox, nil))
			}
			if removed == 0 {
				fmt.Printf("Recurring triage was already off for %s.\n", accountID)
				return nil
			}
			printSuccess("Recurring triage is off for %s.", accountID)
			return nil
		},
	}
}

func newScheduleStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether recurring triage is on",
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

			svc := schedule.NewService(db, newLogger(cfg))
			t, err := svc.Status(ctx, accountID, schedule.HandlerProcessInbox)
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(toJSONSchedule(accountID, schedule.HandlerProcessInbox, t))
			}
			if t == nil {
				fmt.Printf("Recurring triage: %s\n", onOff(false))
				return nil
			}
			fmt.Printf("Recurring triage: %s (%s, since %s)\n",
				onOff(true), t.Spec, t.CreatedAt.Local().Format(time.DateTime))
			return nil
		},
	}
}
