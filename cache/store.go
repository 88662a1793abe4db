package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/cpressland/playlist/errors"
)

// Audio files are published with a fixed extension; filenames are derived
// solely from the video id.
const audioExt = ".opus"

var tmpSeq atomic.Uint64

// Store is a filesystem content store keyed by video id. All mutation goes
// through BeginWrite/Commit/Abort; a file only becomes visible under its
// final name via an atomic rename, so readers never observe partial
// content.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	const op = "cache.NewStore"

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Internal(op, err, "Failed to create cache directory")
	}

	return &Store{dir: dir}, nil
}

// Path returns the final path for a video id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+audioExt)
}

// Has reports whether a committed entry exists for id. Existence of the
// final path implies a completed commit; in-progress writes live under
// temporary names.
func (s *Store) Has(id string) bool {
	info, err := os.Stat(s.Path(id))
	return err == nil && info.Mode().IsRegular()
}

// Open returns a read handle for a committed entry.
func (s *Store) Open(id string) (*os.File, error) {
	const op = "cache.Store.Open"

	f, err := os.Open(s.Path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(op, err, "Audio file not cached")
		}
		return nil, errors.Internal(op, err, "Failed to open audio file")
	}
	return f, nil
}

// Dir returns the cache directory path.
func (s *Store) Dir() string {
	return s.dir
}

// WriteHandle is an uncommitted cache entry. The external tool writes the
// payload at OutputTemplate()+ext; Commit renames it into place, Abort
// discards everything written under the temporary name.
type WriteHandle struct {
	store *Store
	id    string
	base  string
	done  bool
}

// BeginWrite opens a write handle for id. The temporary name is unique per
// handle, so two writers for the same id never clobber each other's
// partials; last commit wins the rename.
func (s *Store) BeginWrite(id string) (*WriteHandle, error) {
	const op = "cache.Store.BeginWrite"

	base := filepath.Join(s.dir, fmt.Sprintf(".tmp-%s-%d", id, tmpSeq.Add(1)))

	// yt-dlp post-processing derives the final filename from the output
	// template, so reserve the name rather than the file itself.
	if _, err := os.Stat(base + audioExt); err == nil {
		return nil, errors.Internal(op, nil, "Temporary file already exists")
	}

	return &WriteHandle{store: s, id: id, base: base}, nil
}

// OutputTemplate returns the extension-less path the external tool should
// write to. The transcoded payload is expected at PayloadPath.
func (h *WriteHandle) OutputTemplate() string {
	return h.base
}

// PayloadPath returns the temporary path of the finished payload.
func (h *WriteHandle) PayloadPath() string {
	return h.base + audioExt
}

// Commit atomically publishes the payload under the final name. Rename is
// atomic on the target filesystem, so Has(id) flips to true only once the
// complete file is in place.
func (h *WriteHandle) Commit() error {
	const op = "cache.WriteHandle.Commit"

	if h.done {
		return errors.Internal(op, nil, "Write handle already closed")
	}

	info, err := os.Stat(h.PayloadPath())
	if err != nil {
		return errors.Internal(op, err, "No payload to commit")
	}
	if info.Size() == 0 {
		return errors.Internal(op, nil, "Refusing to commit empty payload")
	}

	if err := os.Rename(h.PayloadPath(), h.store.Path(h.id)); err != nil {
		return errors.Internal(op, err, "Failed to publish audio file")
	}

	h.done = true
	return nil
}

// Abort discards the payload and any intermediate files the external tool
// left under the temporary name. Safe to call after a failed Commit.
func (h *WriteHandle) Abort() {
	if h.done {
		return
	}
	h.done = true

	matches, err := filepath.Glob(h.base + "*")
	if err != nil {
		return
	}
	for _, m := range matches {
		os.Remove(m)
	}
}
