package gmail

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	people "google.golang.org/api/people/v1"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/provider"
	"github.com/lu-zhengda/gatekeeper/internal/store"
)

const (
	contactReadMask = "emailAddresses,names"
	contactPageSize = 10
)

type searchFunc func(ctx context.Context, query string) (*people.SearchResponse, error)

// Directory implements provider.Directory over the People API contact
// search. Every request, warmup included, waits on a shared limiter.
type Directory struct {
	tokenStore *store.KeyringTokenStore
	accountID  string
	limiter    *rate.Limiter
	logger     *log.Logger

	search searchFunc
	warmed bool
}

// NewDirectory returns a directory for accountID that issues at most
// requestsPerMinute searches per minute.
func NewDirectory(accountID string, tokenStore *store.KeyringTokenStore, requestsPerMinute int, logger *log.Logger) *Directory {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Directory{
		tokenStore: tokenStore,
		accountID:  accountID,
		limiter:    newLimiter(requestsPerMinute),
		logger:     logger.WithPrefix("directory"),
	}
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}

func (d *Directory) ensureService(ctx context.Context) error {
	if d.search != nil {
		return nil
	}
	ts, err := tokenSource(ctx, d.tokenStore, d.accountID)
	if err != nil {
		return err
	}
	srv, err := people.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return fmt.Errorf("failed to create people service: %w", err)
	}
	d.search = func(ctx context.Context, query string) (*people.SearchResponse, error) {
		return srv.People.SearchContacts().
			Query(query).
			ReadMask(contactReadMask).
			PageSize(contactPageSize).
			Context(ctx).Do()
	}
	return nil
}

// SearchContacts returns the contacts whose names or addresses match query.
// The People API serves stale results until its cache is warmed with an
// empty query, so the first call of a Directory sends one first.
func (d *Directory) SearchContacts(ctx context.Context, query string) ([]domain.Contact, error) {
	if err := d.ensureService(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure people service: %w", err)
	}

	if !d.warmed {
		if _, err := d.do(ctx, ""); err != nil {
			return nil, fmt.Errorf("failed to warm contact search: %w", err)
		}
		d.warmed = true
	}

	resp, err := d.do(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}

	contacts := make([]domain.Contact, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Person == nil {
			continue
		}
		contacts = append(contacts, mapPerson(r.Person))
	}
	d.logger.Debug("contact search", "account", d.accountID, "query", query, "matches", len(contacts))
	return contacts, nil
}

func (d *Directory) do(ctx context.Context, query string) (*people.SearchResponse, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return d.search(ctx, query)
}

func mapPerson(p *people.Person) domain.Contact {
	c := domain.Contact{ResourceName: p.ResourceName}
	for _, n := range p.Names {
		if n.DisplayName != "" {
			c.DisplayName = n.DisplayName
			break
		}
	}
	for _, e := range p.EmailAddresses {
		if e.Value != "" {
			c.Emails = append(c.Emails, e.Value)
		}
	}
	return c
}

var _ provider.Directory = (*Directory)(nil)
