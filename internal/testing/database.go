// Package testing holds shared test fixtures.
package testing

import (
	"database/sql"
	"testing"

	"github.com/teranos/slideinspo/db"
)

// CreateTestDB creates a migrated in-memory SQLite database.
// Cleanup is registered with t.Cleanup.
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenAndMigrate(db.MemoryPath, nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
	})
	return conn
}
