package provider

import (
	"context"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
)

// MailStore is the subset of a mailbox that triage needs.
type MailStore interface {
	// SearchThreads returns up to limit threads matching query, skipping the
	// first offset matches. Returned threads carry IDs only.
	SearchThreads(ctx context.Context, query string, offset, limit int) ([]domain.Thread, error)
	// ThreadMessages returns the thread's messages in order.
	ThreadMessages(ctx context.Context, threadID string) ([]domain.Email, error)

	GetOrCreateLabel(ctx context.Context, name string) (*domain.Label, error)
	AddLabel(ctx context.Context, threadID, labelID string) error
	ArchiveThread(ctx context.Context, threadID string) error
	SendMessage(ctx context.Context, email *domain.Email) error

	// OwnAddresses returns the primary address followed by any aliases.
	OwnAddresses(ctx context.Context) ([]string, error)
}

// Directory looks up contacts. Each call consumes rate-limited quota.
type Directory interface {
	SearchContacts(ctx context.Context, query string) ([]domain.Contact, error)
}
