package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/store"
)

const accountColumns = `id, email, provider, display_name, created_at`

// CreateAccount inserts an account. A zero CreatedAt is stamped with the current time.
func (s *DB) CreateAccount(ctx context.Context, acct *domain.Account) error {
	created := acct.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, provider, display_name, created_at) VALUES (?, ?, ?, ?, ?)`,
		acct.ID, acct.Email, acct.Provider, acct.DisplayName, created.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccount returns store.ErrNotFound when no account has the given ID.
func (s *DB) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return a, nil
}

func (s *DB) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// DeleteAccount removes an account along with its settings, contact cache,
// triggers and run history.
func (s *DB) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("account %s: %w", id, store.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (*domain.Account, error) {
	var (
		a           domain.Account
		displayName sql.NullString
	)
	if err := r.Scan(&a.ID, &a.Email, &a.Provider, &displayName, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.DisplayName = displayName.String
	return &a, nil
}
