package triage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/store"
)

var discard = log.New(io.Discard)

// fakeMail is an in-memory MailStore. searches maps an exact query string
// to the thread IDs it matches; threads holds each thread's messages.
type fakeMail struct {
	own      []string
	searches map[string][]string
	threads  map[string][]domain.Email

	labels     map[string]string // name -> ID
	labeled    map[string][]string
	archived   []string
	sent       []*domain.Email
	queries    []string
	labelCalls int

	searchErr error
}

func newFakeMail(own ...string) *fakeMail {
	return &fakeMail{
		own:      own,
		searches: make(map[string][]string),
		threads:  make(map[string][]domain.Email),
		labels:   make(map[string]string),
		labeled:  make(map[string][]string),
	}
}

// addInbox registers a single-message thread under the candidate query.
func (f *fakeMail) addInbox(query, id, from, to string) {
	f.searches[query] = append(f.searches[query], id)
	f.threads[id] = []domain.Email{{
		ID:         id + "-m1",
		ThreadID:   id,
		FromHeader: from,
		ToHeader:   to,
		To:         splitRecipients(to),
		Subject:    "Hello from " + id,
	}}
}

func splitRecipients(to string) []domain.Address {
	var out []domain.Address
	for _, part := range strings.Split(to, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, domain.Address{Email: part})
		}
	}
	return out
}

func (f *fakeMail) SearchThreads(_ context.Context, query string, offset, limit int) ([]domain.Thread, error) {
	f.queries = append(f.queries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	ids := f.searches[query]
	if offset >= len(ids) {
		return nil, nil
	}
	end := min(offset+limit, len(ids))
	out := make([]domain.Thread, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, domain.Thread{ID: id})
	}
	return out, nil
}

func (f *fakeMail) ThreadMessages(_ context.Context, threadID string) ([]domain.Email, error) {
	msgs, ok := f.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", threadID, store.ErrNotFound)
	}
	return msgs, nil
}

func (f *fakeMail) GetOrCreateLabel(_ context.Context, name string) (*domain.Label, error) {
	f.labelCalls++
	id, ok := f.labels[name]
	if !ok {
		id = fmt.Sprintf("Label_%d", len(f.labels)+1)
		f.labels[name] = id
	}
	return &domain.Label{ID: id, Name: name, Type: domain.LabelTypeUser}, nil
}

// AddLabel records the label and, like Gmail, stamps it on every message
// of the thread so later ThreadMessages calls see it.
func (f *fakeMail) AddLabel(_ context.Context, threadID, labelID string) error {
	if !slices.Contains(f.labeled[threadID], labelID) {
		f.labeled[threadID] = append(f.labeled[threadID], labelID)
	}
	msgs := f.threads[threadID]
	for i := range msgs {
		if !slices.Contains(msgs[i].Labels, labelID) {
			msgs[i].Labels = append(msgs[i].Labels, labelID)
		}
	}
	return nil
}

// ArchiveThread removes the thread from every search result, as leaving
// the inbox does for an in:inbox query.
func (f *fakeMail) ArchiveThread(_ context.Context, threadID string) error {
	f.archived = append(f.archived, threadID)
	for q, ids := range f.searches {
		f.searches[q] = slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == threadID })
	}
	return nil
}

func (f *fakeMail) SendMessage(_ context.Context, email *domain.Email) error {
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeMail) OwnAddresses(context.Context) ([]string, error) {
	return f.own, nil
}

// fakeDirectory answers SearchContacts from a fixed set of known addresses.
type fakeDirectory struct {
	known map[string]bool
	calls []string
	err   error
	// failAfter makes every call after the first failAfter return errDirectoryDown.
	failAfter int
}

func newFakeDirectory(known ...string) *fakeDirectory {
	d := &fakeDirectory{known: make(map[string]bool)}
	for _, k := range known {
		d.known[k] = true
	}
	return d
}

func (d *fakeDirectory) SearchContacts(_ context.Context, query string) ([]domain.Contact, error) {
	d.calls = append(d.calls, query)
	if d.err != nil {
		return nil, d.err
	}
	if d.failAfter > 0 && len(d.calls) > d.failAfter {
		return nil, errDirectoryDown
	}
	if d.known[query] {
		return []domain.Contact{{ResourceName: "people/c1", Emails: []string{query}}}, nil
	}
	return nil, nil
}

// memProps is an in-memory PropertyStore.
type memProps struct {
	data   map[string]map[string]string
	writes int
}

func newMemProps() *memProps {
	return &memProps{data: make(map[string]map[string]string)}
}

func (m *memProps) GetProperty(_ context.Context, accountID, key string) (string, error) {
	v, ok := m.data[accountID][key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (m *memProps) GetProperties(_ context.Context, accountID string) (map[string]string, error) {
	out := make(map[string]string)
	for k, v := range m.data[accountID] {
		out[k] = v
	}
	return out, nil
}

func (m *memProps) SetProperties(_ context.Context, accountID string, props map[string]string) error {
	m.writes++
	if m.data[accountID] == nil {
		m.data[accountID] = make(map[string]string)
	}
	for k, v := range props {
		m.data[accountID][k] = v
	}
	return nil
}

var errDirectoryDown = errors.New("directory quota exceeded")
