// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/isdelr/blogstack/internal/config"
	"github.com/isdelr/blogstack/internal/database"
)

// Open returns a migrated database stored in the test's temp dir.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	dsn := config.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "blog.db"),
	}.DSN()

	db, err := database.New(database.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
