package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lu-zhengda/gatekeeper/internal/store"
)

// RecordRun stores a finished triage run and sets its ID.
func (s *DB) RecordRun(ctx context.Context, run *store.Run) error {
	var errText sql.NullString
	if run.Error != "" {
		errText = sql.NullString{String: run.Error, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (account_id, started_at, finished_at, scanned, unsolicited, archived, lookups, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.AccountID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Scanned, run.Unsolicited, run.Archived, run.Lookups, errText,
	)
	if err != nil {
		return fmt.Errorf("failed to record run for %s: %w", run.AccountID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read run id: %w", err)
	}
	run.ID = id
	return nil
}

// ListRuns returns the most recent runs for an account, newest first.
func (s *DB) ListRuns(ctx context.Context, accountID string, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, started_at, finished_at, scanned, unsolicited, archived, lookups, error
		FROM runs WHERE account_id = ?
		ORDER BY started_at DESC, id DESC LIMIT ?`,
		accountID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var r store.Run
		var errText sql.NullString
		if err := rows.Scan(&r.ID, &r.AccountID, &r.StartedAt, &r.FinishedAt,
			&r.Scanned, &r.Unsolicited, &r.Archived, &r.Lookups, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Error = errText.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}
