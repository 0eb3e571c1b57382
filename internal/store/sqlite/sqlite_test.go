package sqlite

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestNew_CreatesTables(t *testing.T) {
	db := newTestDB(t)

	rows, err := db.db.QueryContext(context.Background(),
		"SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		t.Fatalf("query sqlite_master error: %v", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan error: %v", err)
		}
		tables = append(tables, name)
	}

	for _, want := range []string{"accounts", "properties", "runs", "triggers"} {
		if !slices.Contains(tables, want) {
			t.Errorf("table %q not found in %v", want, tables)
		}
	}
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	db := newTestDB(t)

	var on int
	if err := db.db.QueryRow("PRAGMA foreign_keys").Scan(&on); err != nil {
		t.Fatalf("PRAGMA foreign_keys error: %v", err)
	}
	if on != 1 {
		t.Errorf("foreign_keys = %d, want 1", on)
	}

	// A property for an unknown account violates the foreign key.
	err := db.SetProperties(context.Background(), "ghost", map[string]string{"LABEL": "x"})
	if err == nil {
		t.Error("SetProperties() for an unknown account should fail")
	}
}

func TestConnString(t *testing.T) {
	if got := connString(":memory:"); got != ":memory:?_foreign_keys=on" {
		t.Errorf("connString(:memory:) = %q", got)
	}
	got := connString("/tmp/g.db")
	for _, opt := range []string{"_journal_mode=WAL", "_foreign_keys=on", "_busy_timeout=5000"} {
		if !strings.Contains(got, opt) {
			t.Errorf("connString(file) = %q, missing %s", got, opt)
		}
	}
}

func TestNew_FileDatabaseReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatekeeper.db")
	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	seedAccount(t, db)
	db.Close()

	db, err = New(path)
	if err != nil {
		t.Fatalf("New() reopen error: %v", err)
	}
	defer db.Close()

	accounts, err := db.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("ListAccounts() error: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("got %d accounts after reopen, want 1", len(accounts))
	}
}
