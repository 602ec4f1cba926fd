package testutil

import (
	"path/filepath"
	"testing"

	"workos-go/internal/database"
)

// NewTestStore creates a file-backed SQLite record store in a temp
// directory with the schema applied. The store is closed when the test
// completes.
func NewTestStore(t *testing.T) *database.SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "workos.db")
	store, err := database.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
