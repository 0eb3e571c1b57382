package triage

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/provider"
)

// Skip reasons.
const (
	ReasonNoAddress    = "no-address"
	ReasonShape        = "not-single-recipient-to-me"
	ReasonSelf         = "from-self"
	ReasonKnownContact = "known-contact"
	ReasonRepliedTo    = "replied-to"
)

// replyHistoryLimit caps the reply-history search; only zero versus
// non-zero matters.
const replyHistoryLimit = 5

var addressPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// ExtractAddress returns the first address found in a raw header value,
// lower-cased, or "" if there is none.
func ExtractAddress(header string) string {
	return strings.ToLower(addressPattern.FindString(header))
}

// OwnAddresses holds the user's primary address and aliases for one run.
type OwnAddresses []string

// NewOwnAddresses normalizes addrs and drops empties and duplicates.
func NewOwnAddresses(addrs []string) OwnAddresses {
	seen := make(map[string]bool, len(addrs))
	own := make(OwnAddresses, 0, len(addrs))
	for _, a := range addrs {
		a = domain.NormalizeAddress(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		own = append(own, a)
	}
	return own
}

// Matches reports whether addr contains any of the user's addresses,
// ignoring case.
func (o OwnAddresses) Matches(addr string) bool {
	addr = strings.ToLower(addr)
	for _, own := range o {
		if strings.Contains(addr, own) {
			return true
		}
	}
	return false
}

// Is reports whether addr is exactly one of the user's addresses.
func (o OwnAddresses) Is(addr string) bool {
	addr = domain.NormalizeAddress(addr)
	for _, own := range o {
		if addr == own {
			return true
		}
	}
	return false
}

// Decision is the classifier's verdict for one thread.
type Decision struct {
	Unsolicited bool
	Reason      string
	Sender      string
	Recipient   string
	ThreadID    string
	Subject     string
	Labels      []string
}

// Classifier applies the unsolicited-sender rules to a candidate. Its only
// side effects are cache writes.
type Classifier struct {
	cache    *Cache
	resolver *Resolver
	mail     provider.MailStore
	logger   *log.Logger
}

// NewClassifier returns a Classifier.
func NewClassifier(cache *Cache, resolver *Resolver, mail provider.MailStore, logger *log.Logger) *Classifier {
	return &Classifier{cache: cache, resolver: resolver, mail: mail, logger: logger}
}

// Classify runs the checks cheapest first: header shape, cache, directory,
// then reply history. A sender found in reply history is cached as
// RepliedTo so later runs stop at the cache check.
func (c *Classifier) Classify(ctx context.Context, cand domain.Candidate, own OwnAddresses) (Decision, error) {
	d := Decision{
		Sender:    ExtractAddress(cand.FromHeader),
		Recipient: ExtractAddress(cand.ToHeader),
		ThreadID:  cand.ThreadID,
		Subject:   cand.Subject,
		Labels:    cand.Labels,
	}
	skip := func(reason string) (Decision, error) {
		d.Reason = reason
		c.logger.Debug("skip", "thread", d.ThreadID, "sender", d.Sender, "reason", reason)
		return d, nil
	}

	if d.Sender == "" || d.Recipient == "" {
		return skip(ReasonNoAddress)
	}
	if cand.RecipientCount != 1 || !own.Matches(d.Recipient) {
		return skip(ReasonShape)
	}
	if own.Is(d.Sender) {
		return skip(ReasonSelf)
	}

	cached, err := c.cache.Contains(ctx, d.Sender)
	if err != nil {
		return Decision{}, err
	}
	if cached {
		return skip(ReasonKnownContact)
	}
	known, err := c.resolver.IsKnownContact(ctx, d.Sender)
	if err != nil {
		return Decision{}, err
	}
	if known {
		return skip(ReasonKnownContact)
	}

	sent, err := c.mail.SearchThreads(ctx, ReplyHistoryQuery(d.Sender), 0, replyHistoryLimit)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to search reply history for %s: %w", d.Sender, err)
	}
	if len(sent) > 0 {
		if err := c.cache.Put(ctx, d.Sender, domain.RepliedTo); err != nil {
			return Decision{}, err
		}
		return skip(ReasonRepliedTo)
	}

	d.Unsolicited = true
	return d, nil
}
