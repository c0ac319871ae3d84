package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Workspace is a run-scoped scratch directory. All intermediate files of
// one pipeline run live under its root; nothing outside the owning run
// may touch it, which the flock on the marker file enforces.
type Workspace struct {
	root string
	lock *flock.Flock
}

// Create makes a uniquely named scratch directory under parent and takes
// an exclusive lock on it. An empty parent falls back to the system
// temporary directory.
func Create(parent string) (*Workspace, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("ensure workspace parent: %w", err)
	}
	root := filepath.Join(parent, "run-"+uuid.NewString())
	if err := os.Mkdir(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	lock := flock.New(filepath.Join(root, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		_ = os.RemoveAll(root)
		return nil, fmt.Errorf("lock workspace: %w", err)
	}
	if !locked {
		_ = os.RemoveAll(root)
		return nil, fmt.Errorf("workspace %s already locked", root)
	}
	return &Workspace{root: root, lock: lock}, nil
}

// Root returns the scratch directory path.
func (w *Workspace) Root() string {
	return w.root
}

// NewFile returns a fresh uuid-named path inside the workspace with the
// given extension. The file itself is not created.
func (w *Workspace) NewFile(ext string) string {
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	return filepath.Join(w.root, uuid.NewString()+ext)
}

// Close releases the lock and deletes the scratch directory with
// everything in it. Safe to call more than once.
func (w *Workspace) Close() error {
	if w == nil || w.root == "" {
		return nil
	}
	if w.lock != nil {
		_ = w.lock.Unlock()
		w.lock = nil
	}
	root := w.root
	w.root = ""
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	return nil
}
