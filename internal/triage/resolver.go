package triage

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/provider"
)

// Resolver decides whether an address belongs to a known contact, asking
// the directory only when the cache has no entry.
type Resolver struct {
	cache   *Cache
	dir     provider.Directory
	logger  *log.Logger
	lookups int
}

// NewResolver returns a Resolver backed by cache and dir.
func NewResolver(cache *Cache, dir provider.Directory, logger *log.Logger) *Resolver {
	return &Resolver{cache: cache, dir: dir, logger: logger}
}

// IsKnownContact reports whether addr is a known contact. A positive
// directory match is cached as KnownContact; a negative result is not
// cached and will be looked up again on the next run.
func (r *Resolver) IsKnownContact(ctx context.Context, addr string) (bool, error) {
	addr = domain.NormalizeAddress(addr)
	if addr == "" {
		return false, nil
	}

	cached, err := r.cache.Contains(ctx, addr)
	if err != nil {
		return false, err
	}
	if cached {
		return true, nil
	}

	r.lookups++
	matches, err := r.dir.SearchContacts(ctx, addr)
	if err != nil {
		return false, fmt.Errorf("failed to look up contact %s: %w", addr, err)
	}
	if len(matches) == 0 {
		r.logger.Debug("not in directory", "address", addr)
		return false, nil
	}

	if err := r.cache.Put(ctx, addr, domain.KnownContact); err != nil {
		return false, err
	}
	r.logger.Debug("cached directory contact", "address", addr)
	return true, nil
}

// Lookups returns how many directory queries this resolver has issued.
func (r *Resolver) Lookups() int {
	return r.lookups
}
