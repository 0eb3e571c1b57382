package sqlite

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/gatekeeper/internal/store"
)

// ListTriggers returns installed triggers. An empty accountID lists all accounts.
func (s *DB) ListTriggers(ctx context.Context, accountID string) ([]store.Trigger, error) {
	query := `SELECT id, account_id, handler, spec, created_at FROM triggers`
	var args []any
	if accountID != "" {
		query += ` WHERE account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list triggers: %w", err)
	}
	defer rows.Close()

	var triggers []store.Trigger
	for rows.Next() {
		var t store.Trigger
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Handler, &t.Spec, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trigger: %w", err)
		}
		triggers = append(triggers, t)
	}
	return triggers, rows.Err()
}

// InstallTrigger inserts a trigger and sets its ID.
func (s *DB) InstallTrigger(ctx context.Context, t *store.Trigger) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO triggers (account_id, handler, spec) VALUES (?, ?, ?)`,
		t.AccountID, t.Handler, t.Spec,
	)
	if err != nil {
		return fmt.Errorf("failed to install trigger: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read trigger id: %w", err)
	}
	t.ID = id
	return nil
}

// DeleteTrigger removes a trigger by ID.
func (s *DB) DeleteTrigger(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM triggers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trigger %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to delete trigger %d: %w", id, store.ErrNotFound)
	}
	return nil
}
