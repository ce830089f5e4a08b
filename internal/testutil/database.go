package testutil

import (
	"path/filepath"
	"testing"

	"github.com/nishad/sradb/internal/database"
)

// Snapshot writes the fixture records to a fresh SRAmetadb file and returns
// its path.
func Snapshot(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "SRAmetadb.sqlite")
	db, err := database.Create(path)
	if err != nil {
		t.Fatalf("failed to create test snapshot: %v", err)
	}
	defer db.Close()

	if err := db.Insert(Records()...); err != nil {
		t.Fatalf("failed to insert fixtures: %v", err)
	}
	if err := db.SetMetaInfo("schema version", "1.0"); err != nil {
		t.Fatalf("failed to write metaInfo: %v", err)
	}
	return path
}

// OpenSnapshot returns the fixture snapshot opened read-only. It is closed
// when the test ends.
func OpenSnapshot(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(Snapshot(t))
	if err != nil {
		t.Fatalf("failed to open test snapshot: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
