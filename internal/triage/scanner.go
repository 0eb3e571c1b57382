package triage

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/provider"
)

// Scan window limits. At most PageSize*MaxAttempts candidates are
// collected per run; older backlog is picked up by later runs.
const (
	PageSize    = 5
	MaxAttempts = 5
)

// Scanner pages through threads matching a query under a fixed attempt budget.
type Scanner struct {
	mail        provider.MailStore
	logger      *log.Logger
	pageSize    int
	maxAttempts int
}

// NewScanner returns a Scanner with the default window.
func NewScanner(mail provider.MailStore, logger *log.Logger) *Scanner {
	return &Scanner{
		mail:        mail,
		logger:      logger,
		pageSize:    PageSize,
		maxAttempts: MaxAttempts,
	}
}

// Collect fetches pages at increasing offsets until a short page is
// returned or the attempt budget is spent, and builds a Candidate from
// the first message of every thread. Threads without messages are dropped.
func (s *Scanner) Collect(ctx context.Context, query string) ([]domain.Candidate, error) {
	var (
		candidates []domain.Candidate
		offset     int
	)
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		page, err := s.mail.SearchThreads(ctx, query, offset, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to search threads at offset %d: %w", offset, err)
		}

		for i := range page {
			msgs, err := s.mail.ThreadMessages(ctx, page[i].ID)
			if err != nil {
				return nil, fmt.Errorf("failed to get thread %s: %w", page[i].ID, err)
			}
			page[i].Messages = msgs
			if c, ok := domain.CandidateFromThread(&page[i]); ok {
				candidates = append(candidates, c)
			}
		}

		s.logger.Debug("fetched page", "attempt", attempt, "offset", offset, "threads", len(page))
		offset += s.pageSize
		if len(page) < s.pageSize {
			break
		}
	}
	return candidates, nil
}
