package audio

import (
	"os"
	"path/filepath"
	"sync"

	"take-my-dictation/internal/app/errors"
)

// Workspace is a per-request scratch directory for transcoder input and output.
// Release removes it and is safe to call more than once.
type Workspace struct {
	dir      string
	mu       sync.Mutex
	released bool
}

// NewWorkspace creates a scratch directory under root (os.TempDir() when empty).
func NewWorkspace(root string) (*Workspace, error) {
	dir, err := os.MkdirTemp(root, "dictation-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create audio workspace")
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the absolute path of name inside the workspace
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

// WriteFile stores data under name and returns its path
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	path := w.Path(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", errors.Wrapf(errors.ErrFileWriteFailed, "%s: %v", path, err)
	}
	return path, nil
}

// ReadFile loads a file produced inside the workspace
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(w.Path(name))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFileReadFailed, "%s: %v", name, err)
	}
	return data, nil
}

// Release deletes the workspace and everything in it
func (w *Workspace) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return nil
	}
	w.released = true
	if err := os.RemoveAll(w.dir); err != nil {
		return errors.Wrapf(errors.ErrWorkspaceRelease, "%s: %v", w.dir, err)
	}
	return nil
}

// Released reports whether Release has run
func (w *Workspace) Released() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.released
}
