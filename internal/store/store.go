package store

import (
	"context"
	"errors"
	"time"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for the application.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	PropertyStore
	TriggerStore

	// Run history
	RecordRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, accountID string, limit int) ([]Run, error)

	// Lifecycle
	Close() error
}

// PropertyStore is a per-account key/value store for user settings and
// the serialized contact cache.
type PropertyStore interface {
	// GetProperty returns ErrNotFound when key has never been set.
	GetProperty(ctx context.Context, accountID, key string) (string, error)
	GetProperties(ctx context.Context, accountID string) (map[string]string, error)
	// SetProperties writes all given keys in one transaction.
	SetProperties(ctx context.Context, accountID string, props map[string]string) error
}

// TriggerStore persists installed recurring triggers.
type TriggerStore interface {
	ListTriggers(ctx context.Context, accountID string) ([]Trigger, error)
	InstallTrigger(ctx context.Context, trigger *Trigger) error
	DeleteTrigger(ctx context.Context, id int64) error
}

// Trigger is an installed recurring invocation of a named handler.
type Trigger struct {
	ID        int64
	AccountID string
	Handler   string
	Spec      string
	CreatedAt time.Time
}

// Run is one recorded triage invocation.
type Run struct {
	ID          int64
	AccountID   string
	StartedAt   time.Time
	FinishedAt  time.Time
	Scanned     int
	Unsolicited int
	Archived    int
	Lookups     int
	Error       string
}
