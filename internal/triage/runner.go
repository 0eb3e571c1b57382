// Package triage finds threads from senders the user has no relationship
// with and applies the account's policy to them.
//
// One run pages through at most PageSize*MaxAttempts recent inbox threads,
// classifies each one, and labels, archives or auto-replies to the
// unsolicited ones. Runs are idempotent: a second run over the same mail
// finds senders in the contact cache or threads already out of the inbox.
package triage

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/provider"
	"github.com/lu-zhengda/gatekeeper/internal/store"
)

// Result summarizes one run.
type Result struct {
	Scanned     int
	Unsolicited int
	Archived    int
	Lookups     int
}

// Runner orchestrates one triage run for an account.
type Runner struct {
	mail      provider.MailStore
	dir       provider.Directory
	props     store.PropertyStore
	accountID string
	logger    *log.Logger
}

// NewRunner returns a Runner. A nil logger discards output.
func NewRunner(mail provider.MailStore, dir provider.Directory, props store.PropertyStore, accountID string, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		mail:      mail,
		dir:       dir,
		props:     props,
		accountID: accountID,
		logger:    logger.With("account", accountID),
	}
}

// RunOnce scans recent inbox mail and applies s to every unsolicited thread.
// An error aborts the run; actions already taken on earlier threads stay.
func (r *Runner) RunOnce(ctx context.Context, s domain.Settings) (Result, error) {
	var res Result

	addrs, err := r.mail.OwnAddresses(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to get own addresses: %w", err)
	}
	own := NewOwnAddresses(addrs)

	cache := NewCache(r.props, r.accountID)
	resolver := NewResolver(cache, r.dir, r.logger)
	scanner := NewScanner(r.mail, r.logger)
	classifier := NewClassifier(cache, resolver, r.mail, r.logger)
	policy := NewPolicy(r.mail, r.logger)

	candidates, err := scanner.Collect(ctx, CandidateQuery(s.OnlyPrimary))
	if err != nil {
		return res, err
	}
	res.Scanned = len(candidates)

	for _, cand := range candidates {
		d, err := classifier.Classify(ctx, cand, own)
		res.Lookups = resolver.Lookups()
		if err != nil {
			return res, fmt.Errorf("failed to classify thread %s: %w", cand.ThreadID, err)
		}
		if !d.Unsolicited {
			continue
		}
		res.Unsolicited++

		archived, err := policy.Apply(ctx, d, s)
		res.Archived += archived
		if err != nil {
			return res, err
		}
	}

	r.logger.Info("run complete", "scanned", res.Scanned, "unsolicited", res.Unsolicited,
		"archived", res.Archived, "lookups", res.Lookups)
	return res, nil
}
