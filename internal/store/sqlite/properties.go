package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lu-zhengda/gatekeeper/internal/store"
)

// GetProperty returns a single property value for an account.
func (s *DB) GetProperty(ctx context.Context, accountID, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM properties WHERE account_id = ? AND key = ?`,
		accountID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get property %s: %w", key, err)
	}
	return value, nil
}

// GetProperties returns every property stored for an account.
func (s *DB) GetProperties(ctx context.Context, accountID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM properties WHERE account_id = ?`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	props := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		props[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate properties: %w", err)
	}
	return props, nil
}

// SetProperties upserts all given properties in a single transaction.
func (s *DB) SetProperties(ctx context.Context, accountID string, props map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for k, v := range props {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO properties (account_id, key, value, updated_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(account_id, key) DO UPDATE SET
				value      = excluded.value,
				updated_at = excluded.updated_at`,
			accountID, k, v,
		)
		if err != nil {
			return fmt.Errorf("failed to set property %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit properties: %w", err)
	}
	return nil
}
