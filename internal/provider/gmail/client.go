package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/provider"
	"github.com/lu-zhengda/gatekeeper/internal/store"
)

const (
	userID = "me"

	// maxListResults is the largest page Gmail accepts for threads.list.
	maxListResults = 500
)

// cursorKey identifies the page token that starts a given offset of a
// search. Gmail only pages by token, so offsets are mapped onto tokens.
type cursorKey struct {
	query  string
	offset int
}

// Provider implements provider.MailStore for Gmail.
type Provider struct {
	tokenStore *store.KeyringTokenStore
	accountID  string
	service    *gmailapi.Service
	logger     *log.Logger
	now        func() time.Time

	mu      sync.Mutex
	cursors map[cursorKey]string
}

// New creates a new Gmail provider for the given account.
func New(accountID string, tokenStore *store.KeyringTokenStore, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Provider{
		accountID:  accountID,
		tokenStore: tokenStore,
		logger:     logger.WithPrefix("gmail"),
		now:        time.Now,
		cursors:    make(map[cursorKey]string),
	}
}

// Authenticate runs the OAuth2 flow, saves the token, and initializes the Gmail service.
func (p *Provider) Authenticate(ctx context.Context) error {
	token, err := authenticate(ctx)
	if err != nil {
		return fmt.Errorf("failed to authenticate gmail: %w", err)
	}

	if err := p.tokenStore.SaveToken(p.accountID, token); err != nil {
		return fmt.Errorf("failed to save gmail token: %w", err)
	}

	srv, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return fmt.Errorf("failed to create gmail service: %w", err)
	}
	p.service = srv
	return nil
}

// ensureService lazily initializes the Gmail service if not already done.
func (p *Provider) ensureService(ctx context.Context) error {
	if p.service != nil {
		return nil
	}
	ts, err := tokenSource(ctx, p.tokenStore, p.accountID)
	if err != nil {
		return err
	}
	srv, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return fmt.Errorf("failed to create gmail service: %w", err)
	}
	p.service = srv
	return nil
}

// SearchThreads returns up to limit threads matching query starting at offset.
// Page tokens seen on earlier calls are reused so that consecutive pages do
// not re-list from the start of the result set.
func (p *Provider) SearchThreads(ctx context.Context, query string, offset, limit int) ([]domain.Thread, error) {
	if err := p.ensureService(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure gmail service: %w", err)
	}
	if limit <= 0 {
		return nil, nil
	}

	token, ok, err := p.cursorAt(ctx, query, offset)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	resp, err := p.listThreads(ctx, query, token, limit)
	if err != nil {
		return nil, err
	}
	if resp.NextPageToken != "" {
		p.storeCursor(query, offset+len(resp.Threads), resp.NextPageToken)
	}

	threads := make([]domain.Thread, 0, len(resp.Threads))
	for _, t := range resp.Threads {
		threads = append(threads, domain.Thread{ID: t.Id, Snippet: t.Snippet})
	}
	return threads, nil
}

// cursorAt returns the page token that begins at offset. ok is false when
// the result set ends before offset.
func (p *Provider) cursorAt(ctx context.Context, query string, offset int) (token string, ok bool, err error) {
	if offset <= 0 {
		// A fresh scan invalidates tokens from earlier scans of the query.
		p.mu.Lock()
		for k := range p.cursors {
			if k.query == query {
				delete(p.cursors, k)
			}
		}
		p.mu.Unlock()
		return "", true, nil
	}
	p.mu.Lock()
	token, found := p.cursors[cursorKey{query: query, offset: offset}]
	p.mu.Unlock()
	if found {
		return token, true, nil
	}

	p.logger.Debug("walking to offset", "query", query, "offset", offset)
	skipped := 0
	for skipped < offset {
		n := min(offset-skipped, maxListResults)
		resp, err := p.listThreads(ctx, query, token, n)
		if err != nil {
			return "", false, err
		}
		skipped += len(resp.Threads)
		if resp.NextPageToken == "" {
			return "", false, nil
		}
		token = resp.NextPageToken
		p.storeCursor(query, skipped, token)
	}
	return token, true, nil
}

func (p *Provider) storeCursor(query string, offset int, token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursors[cursorKey{query: query, offset: offset}] = token
}

func (p *Provider) listThreads(ctx context.Context, query, pageToken string, n int) (*gmailapi.ListThreadsResponse, error) {
	call := p.service.Users.Threads.List(userID).Q(query).MaxResults(int64(n))
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list gmail threads: %w", err)
	}
	return resp, nil
}

// ThreadMessages returns the messages of a thread with metadata headers only.
func (p *Provider) ThreadMessages(ctx context.Context, threadID string) ([]domain.Email, error) {
	if err := p.ensureService(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	t, err := p.service.Users.Threads.Get(userID, threadID).
		Format("metadata").MetadataHeaders(metadataHeaders...).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get gmail thread %s: %w", threadID, err)
	}

	messages := make([]domain.Email, 0, len(t.Messages))
	for _, m := range t.Messages {
		messages = append(messages, *mapMessage(m))
	}
	return messages, nil
}

// GetOrCreateLabel returns the user label with the given name, creating it
// when missing. Label names compare case-insensitively, as Gmail does.
func (p *Provider) GetOrCreateLabel(ctx context.Context, name string) (*domain.Label, error) {
	if err := p.ensureService(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	label, err := p.findLabel(ctx, name)
	if err != nil {
		return nil, err
	}
	if label != nil {
		return label, nil
	}

	created, err := p.service.Users.Labels.Create(userID, &gmailapi.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		// Another client created it between list and create.
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			label, ferr := p.findLabel(ctx, name)
			if ferr == nil && label != nil {
				return label, nil
			}
		}
		return nil, fmt.Errorf("failed to create gmail label %q: %w", name, err)
	}
	p.logger.Info("created label", "account", p.accountID, "label", name)
	return mapLabel(created), nil
}

func (p *Provider) findLabel(ctx context.Context, name string) (*domain.Label, error) {
	resp, err := p.service.Users.Labels.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list gmail labels: %w", err)
	}
	for _, l := range resp.Labels {
		if strings.EqualFold(l.Name, name) {
			return mapLabel(l), nil
		}
	}
	return nil, nil
}

// AddLabel applies a label to every message in a thread.
func (p *Provider) AddLabel(ctx context.Context, threadID, labelID string) error {
	return p.modifyThread(ctx, threadID, []string{labelID}, nil)
}

// ArchiveThread removes a thread from the inbox.
func (p *Provider) ArchiveThread(ctx context.Context, threadID string) error {
	return p.modifyThread(ctx, threadID, nil, []string{domain.LabelInbox})
}

func (p *Provider) modifyThread(ctx context.Context, threadID string, add, remove []string) error {
	if err := p.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	req := &gmailapi.ModifyThreadRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}
	if _, err := p.service.Users.Threads.Modify(userID, threadID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to modify labels on thread %s: %w", threadID, err)
	}
	return nil
}

// SendMessage composes and sends an email via the Gmail API.
func (p *Provider) SendMessage(ctx context.Context, email *domain.Email) error {
	if err := p.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	raw, err := composeMessage(email, p.now())
	if err != nil {
		return err
	}

	msg := &gmailapi.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := p.service.Users.Messages.Send(userID, msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send gmail message: %w", err)
	}
	return nil
}

// GetProfile returns the authenticated user's email address.
func (p *Provider) GetProfile(ctx context.Context) (string, error) {
	if err := p.ensureService(ctx); err != nil {
		return "", fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	profile, err := p.service.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get gmail profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// OwnAddresses returns the profile address followed by every send-as alias.
func (p *Provider) OwnAddresses(ctx context.Context) ([]string, error) {
	primary, err := p.GetProfile(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := p.service.Users.Settings.SendAs.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list gmail send-as aliases: %w", err)
	}

	aliases := make([]string, 0, len(resp.SendAs))
	for _, s := range resp.SendAs {
		aliases = append(aliases, s.SendAsEmail)
	}
	return mergeAddresses(primary, aliases), nil
}

// mergeAddresses puts primary first and drops blank or repeated aliases.
func mergeAddresses(primary string, aliases []string) []string {
	seen := make(map[string]bool, len(aliases)+1)
	var out []string
	for _, a := range append([]string{primary}, aliases...) {
		n := domain.NormalizeAddress(a)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Compile-time interface compliance check.
var _ provider.MailStore = (*Provider)(nil)
