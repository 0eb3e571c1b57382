package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lu-zhengda/gatekeeper/internal/store"
)

const memoryDSN = ":memory:"

// DB is the SQLite-backed store for accounts, per-account properties,
// triggers and run history.
type DB struct {
	db *sql.DB
}

// New opens the database at dsn and applies the schema. Use ":memory:" for
// a throwaway database.
func New(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite3", connString(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: gets its own empty database.
	if dsn == memoryDSN {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &DB{db: db}, nil
}

// connString enables foreign keys everywhere; account deletion relies on
// ON DELETE CASCADE. File databases also get WAL so that `serve` and a
// manual command can share the file.
func connString(dsn string) string {
	if dsn == memoryDSN {
		return dsn + "?_foreign_keys=on"
	}
	return dsn + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
}

// Close closes the underlying database connection.
func (s *DB) Close() error {
	return s.db.Close()
}

var _ store.Store = (*DB)(nil)
