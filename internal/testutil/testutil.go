// Package testutil provides shared test helpers for temporary libraries,
// catalogues and services.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/libraryservice"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
)

// TestDB creates a temporary SQLite catalogue that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "folio-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestLibrary creates a temporary library root with a storage.Provider.
func TestLibrary(t *testing.T) (string, storage.Provider) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}

// WriteFile creates rel below root with content, making parent directories.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return abs
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// Events collects service mutation events.
type Events struct {
	Changes []sse.Change
}

// Hook returns an EventHook that appends to e.
func (e *Events) Hook() libraryservice.EventHook {
	return func(c sse.Change) { e.Changes = append(e.Changes, c) }
}

// Types returns the event type names in order.
func (e *Events) Types() []string {
	out := make([]string, len(e.Changes))
	for i, c := range e.Changes {
		out[i] = c.Type()
	}
	return out
}

// TestService wires a service over a fresh library and catalogue.
func TestService(t *testing.T, opts ...libraryservice.Option) (string, *libraryservice.Service, *index.DB) {
	t.Helper()
	root, store := TestLibrary(t)
	db := TestDB(t)
	opts = append([]libraryservice.Option{libraryservice.WithLogger(Logger())}, opts...)
	return root, libraryservice.NewService(store, db, opts...), db
}
