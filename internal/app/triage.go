package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lu-zhengda/gatekeeper/internal/provider"
	"github.com/lu-zhengda/gatekeeper/internal/settings"
	"github.com/lu-zhengda/gatekeeper/internal/store"
	"github.com/lu-zhengda/gatekeeper/internal/triage"
)

// Sources returns the mailbox and contact directory for an account.
type Sources func(accountID string) (provider.MailStore, provider.Directory)

// TriageService runs triage for an account and records each run in the
// local store. Runs are serialized across all accounts of the process.
type TriageService struct {
	store   store.Store
	sources Sources
	timeout time.Duration
	logger  *log.Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewTriageService creates a TriageService. A zero timeout leaves runs
// bounded only by the caller's context.
func NewTriageService(s store.Store, sources Sources, timeout time.Duration, logger *log.Logger) *TriageService {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &TriageService{
		store:   s,
		sources: sources,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Process loads the account's settings, runs triage once, and records the
// outcome. A failed run is recorded too, with the partial counts it reached.
func (s *TriageService) Process(ctx context.Context, accountID string) (triage.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger := s.logger.WithPrefix("triage")
	started := s.now()

	res, runErr := s.run(ctx, accountID, logger)

	run := &store.Run{
		AccountID:   accountID,
		StartedAt:   started,
		FinishedAt:  s.now(),
		Scanned:     res.Scanned,
		Unsolicited: res.Unsolicited,
		Archived:    res.Archived,
		Lookups:     res.Lookups,
	}
	if runErr != nil {
		run.Error = runErr.Error()
		logger.Error("run failed", "account", accountID, "err", runErr)
	}
	// Record even when the run hit its deadline.
	if err := s.store.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("failed to record run", "account", accountID, "err", err)
	}

	return res, runErr
}

func (s *TriageService) run(ctx context.Context, accountID string, logger *log.Logger) (triage.Result, error) {
	cfg, err := settings.Load(ctx, s.store, accountID)
	if err != nil {
		return triage.Result{}, fmt.Errorf("failed to load settings: %w", err)
	}
	mail, dir := s.sources(accountID)
	return triage.NewRunner(mail, dir, s.store, accountID, logger).RunOnce(ctx, cfg)
}
