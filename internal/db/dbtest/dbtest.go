// Package dbtest provides a migrated SQLite database for package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"sukesh_education/internal/config"
	"sukesh_education/internal/db"

	"github.com/jmoiron/sqlx"
)

// NewSQLite returns a fresh, migrated database in the test's temp dir.
// The test is skipped when the sqlite3 driver is not usable (CGO disabled).
func NewSQLite(t testing.TB) *sqlx.DB {
	t.Helper()

	cfg := &config.DBConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}

	database, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		t.Skipf("sqlite3 not available: %v", err)
	}
	if err := database.Ping(); err != nil {
		_ = database.Close()
		t.Skipf("sqlite3 not available: %v", err)
	}
	database.SetMaxOpenConns(1)

	if err := db.Migrate(context.Background(), database); err != nil {
		_ = database.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}
