package test_utils

import (
	"database/sql"
	"testing"

	"github.com/munitrack/munitrack/internal/database"
)

// SetupTestDB creates a new in-memory SQLite database with all migrations applied.
// Each database is completely isolated from others.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if err := database.MigrateSQLite(db); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	return db
}

// SetupTestQuerier is SetupTestDB wrapped as the Querier used by repositories.
func SetupTestQuerier(t *testing.T) (*sql.DB, database.Querier) {
	t.Helper()
	db := SetupTestDB(t)
	return db, database.NewSQLQuerier(db)
}
