// Package testutil provides shared test helpers for setting up data
// directories, databases and services.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/taskmark/internal/index"
	"github.com/starford/taskmark/internal/projectservice"
	"github.com/starford/taskmark/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "taskmark-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary data directory with a storage provider.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dataDir := t.TempDir()
	store, err := storage.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	return dataDir, store
}

// TestProjects wires a project service over a fresh store and database.
func TestProjects(t *testing.T) (*projectservice.Service, *storage.FS, *index.DB) {
	t.Helper()
	_, store := TestStore(t)
	db := TestDB(t)
	return projectservice.NewService(store, db), store, db
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
