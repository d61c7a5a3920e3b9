// Package testutil provides shared helpers for package tests.
package testutil

import (
	"database/sql"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/database"
)

// TestDB is a migrated in-memory database with a quiet logger.
type TestDB struct {
	DB     *database.DB
	Conn   *sql.DB
	Logger zerolog.Logger
}

// NewTestDB opens and migrates a fresh in-memory database.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := database.New(database.MemoryPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return &TestDB{
		DB:     db,
		Conn:   db.Conn(),
		Logger: zerolog.New(io.Discard),
	}
}

// Close closes the database.
func (tdb *TestDB) Close() {
	tdb.DB.Close()
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}
