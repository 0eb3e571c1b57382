package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// ReloadInterval is how often Serve picks up triggers installed or removed
// by other processes.
const ReloadInterval = time.Minute

// Scheduler executes installed triggers on their cron specs.
type Scheduler struct {
	svc      *Service
	handlers map[string]Job
	cron     *cron.Cron
	entries  map[int64]cron.EntryID
}

// NewScheduler returns a Scheduler dispatching triggers to handlers by name.
// Triggers naming an unknown handler are logged and skipped.
func (s *Service) NewScheduler(handlers map[string]Job) *Scheduler {
	cl := cronLogger{s.logger}
	return &Scheduler{
		svc:      s,
		handlers: handlers,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		entries: make(map[int64]cron.EntryID),
	}
}

// Serve runs installed triggers until ctx is cancelled, then waits for
// running jobs to finish.
func (sc *Scheduler) Serve(ctx context.Context) error {
	if err := sc.Reload(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	sc.cron.Start()
	sc.svc.logger.Info("scheduler started", "triggers", len(sc.entries))

	ticker := time.NewTicker(ReloadInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			<-sc.cron.Stop().Done()
			sc.svc.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			if err := sc.Reload(ctx); err != nil {
				sc.svc.logger.Warn("failed to reload triggers", "err", err)
			}
		}
	}
}

// Reload makes the scheduled entries match the trigger store.
func (sc *Scheduler) Reload(ctx context.Context) error {
	triggers, err := sc.svc.triggers.ListTriggers(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list triggers: %w", err)
	}

	current := make(map[int64]bool, len(triggers))
	for _, t := range triggers {
		current[t.ID] = true
		if _, ok := sc.entries[t.ID]; ok {
			continue
		}
		job, ok := sc.handlers[t.Handler]
		if !ok {
			sc.svc.logger.Warn("unknown trigger handler", "handler", t.Handler, "account", t.AccountID)
			continue
		}
		accountID := t.AccountID
		handler := t.Handler
		id, err := sc.cron.AddFunc(t.Spec, func() {
			sc.svc.logger.Info("trigger fired", "account", accountID, "handler", handler)
			if err := job(ctx, accountID); err != nil {
				sc.svc.logger.Error("trigger failed", "account", accountID, "handler", handler, "err", err)
			}
		})
		if err != nil {
			sc.svc.logger.Warn("invalid trigger spec", "id", t.ID, "spec", t.Spec, "err", err)
			continue
		}
		sc.entries[t.ID] = id
	}

	for triggerID, entryID := range sc.entries {
		if !current[triggerID] {
			sc.cron.Remove(entryID)
			delete(sc.entries, triggerID)
		}
	}
	return nil
}

// Scheduled returns the number of triggers currently scheduled.
func (sc *Scheduler) Scheduled() int {
	return len(sc.entries)
}

// cronLogger adapts a charmbracelet logger to cron.Logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "err", err)...)
}
