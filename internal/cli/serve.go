package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/gatekeeper/internal/schedule"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run installed triggers until interrupted",
		Long: "Run every account's installed triggers on their schedules. Runs are\n" +
			"serialized, and triggers turned on or off while serving are picked up\n" +
			"within a minute.",
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

			logger := newLogger(cfg)
			svc, err := newTriageService(cfg, db, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched := schedule.NewService(db, logger).NewScheduler(map[string]schedule.Job{
				schedule.HandlerProcessInbox: func(ctx context.Context, accountID string) error {
					_, err := svc.Process(ctx, accountID)
					return err
				},
			})
			return sched.Serve(ctx)
		},
	}
}
