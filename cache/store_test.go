package cache

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestHasBeforeCommit(t *testing.T) {
	store := newTestStore(t)

	if store.Has("dQw4w9WgXcQ") {
		t.Fatal("Has() = true for an id that was never written")
	}

	handle, err := store.BeginWrite("dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("BeginWrite() error = %v", err)
	}

	// Simulate an in-progress download: payload written, not committed.
	if err := os.WriteFile(handle.PayloadPath(), []byte("partial"), 0644); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	if store.Has("dQw4w9WgXcQ") {
		t.Fatal("Has() = true before Commit")
	}
}

func TestCommitPublishesAtomically(t *testing.T) {
	store := newTestStore(t)

	handle, err := store.BeginWrite("dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("BeginWrite() error = %v", err)
	}

	content := []byte("opus audio payload")
	if err := os.WriteFile(handle.PayloadPath(), content, 0644); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	if err := handle.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if !store.Has("dQw4w9WgXcQ") {
		t.Fatal("Has() = false after Commit")
	}

	f, err := store.Open("dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read committed file: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("committed content = %q, want %q", got, content)
	}
}

func TestCommitWithoutPayload(t *testing.T) {
	store := newTestStore(t)

	handle, err := store.BeginWrite("dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("BeginWrite() error = %v", err)
	}

	if err := handle.Commit(); err == nil {
		t.Fatal("Commit() succeeded with no payload written")
	}
	if store.Has("dQw4w9WgXcQ") {
		t.Fatal("Has() = true after failed Commit")
	}
}

func TestCommitRejectsEmptyPayload(t *testing.T) {
	store := newTestStore(t)

	handle, err := store.BeginWrite("dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("BeginWrite() error = %v", err)
	}

	if err := os.WriteFile(handle.PayloadPath(), nil, 0644); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	if err := handle.Commit(); err == nil {
		t.Fatal("Commit() accepted an empty payload")
	}
}

func TestAbortRemovesAllTemporaries(t *testing.T) {
	store := newTestStore(t)

	handle, err := store.BeginWrite("dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("BeginWrite() error = %v", err)
	}

	// The external tool leaves both intermediate and payload files.
	if err := os.WriteFile(handle.OutputTemplate()+".webm", []byte("raw"), 0644); err != nil {
		t.Fatalf("write intermediate: %v", err)
	}
	if err := os.WriteFile(handle.PayloadPath(), []byte("partial"), 0644); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	handle.Abort()

	leftovers, err := filepath.Glob(filepath.Join(store.Dir(), "*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("cache directory not empty after Abort: %v", leftovers)
	}
	if store.Has("dQw4w9WgXcQ") {
		t.Error("Has() = true after Abort")
	}
}

func TestOpenMissingEntry(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Open("missing"); err == nil {
		t.Fatal("Open() succeeded for a missing entry")
	}
}

func TestConcurrentWritersDistinctTemporaries(t *testing.T) {
	store := newTestStore(t)

	h1, err := store.BeginWrite("dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("BeginWrite() error = %v", err)
	}
	h2, err := store.BeginWrite("dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("BeginWrite() error = %v", err)
	}

	if h1.PayloadPath() == h2.PayloadPath() {
		t.Fatal("two write handles share a temporary path")
	}
}
