// Package schedule installs recurring triggers and executes them.
package schedule

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/lu-zhengda/gatekeeper/internal/store"
)

// HandlerProcessInbox is the trigger handler that runs inbox triage.
const HandlerProcessInbox = "processInbox"

// Job is the work a handler performs for one account.
type Job func(ctx context.Context, accountID string) error

// Service manages the triggers of the trigger store.
type Service struct {
	triggers store.TriggerStore
	logger   *log.Logger
	now      func() time.Time
}

// NewService creates a Service. A nil logger discards output.
func NewService(triggers store.TriggerStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{
		triggers: triggers,
		logger:   logger.WithPrefix("schedule"),
		now:      time.Now,
	}
}

// IsInstalled reports whether accountID has a trigger for handler.
func (s *Service) IsInstalled(ctx context.Context, accountID, handler string) (bool, error) {
	t, err := s.find(ctx, accountID, handler)
	if err != nil {
		return false, err
	}
	return t != nil, nil
}

// Status returns the installed trigger for handler, or nil.
func (s *Service) Status(ctx context.Context, accountID, handler string) (*store.Trigger, error) {
	return s.find(ctx, accountID, handler)
}

// Enable installs a trigger for handler on spec. It is a no-op returning
// false when one is already installed.
func (s *Service) Enable(ctx context.Context, accountID, handler, spec string) (bool, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return false, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	installed, err := s.IsInstalled(ctx, accountID, handler)
	if err != nil {
		return false, err
	}
	if installed {
		return false, nil
	}

	t := &store.Trigger{
		AccountID: accountID,
		Handler:   handler,
		Spec:      spec,
		CreatedAt: s.now(),
	}
	if err := s.triggers.InstallTrigger(ctx, t); err != nil {
		return false, fmt.Errorf("failed to install trigger: %w", err)
	}
	s.logger.Info("trigger installed", "account", accountID, "handler", handler, "spec", spec)
	return true, nil
}

// Disable deletes every trigger for handler and returns how many it removed.
func (s *Service) Disable(ctx context.Context, accountID, handler string) (int, error) {
	triggers, err := s.triggers.ListTriggers(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to list triggers: %w", err)
	}
	var removed int
	for _, t := range triggers {
		if t.Handler != handler {
			continue
		}
		if err := s.triggers.DeleteTrigger(ctx, t.ID); err != nil {
			return removed, fmt.Errorf("failed to delete trigger %d: %w", t.ID, err)
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("trigger removed", "account", accountID, "handler", handler)
	}
	return removed, nil
}

func (s *Service) find(ctx context.Context, accountID, handler string) (*store.Trigger, error) {
	triggers, err := s.triggers.ListTriggers(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list triggers: %w", err)
	}
	for i := range triggers {
		if triggers[i].Handler == handler {
			return &triggers[i], nil
		}
	}
	return nil, nil
}
