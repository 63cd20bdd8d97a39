// Package worklock enforces single-run ownership of a workspace directory.
// Two productions sharing one work_dir would race on temporary namespaces
// and delivered outputs, so a run holds a file lock for its whole lifetime.
package worklock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ErrBusy indicates another production already holds the workspace.
var ErrBusy = errors.New("workspace is locked by another production run")

// Lock guards one workspace directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the workspace lock, creating the directory when needed.
// It does not block: a held lock returns ErrBusy immediately.
func Acquire(workDir string) (*Lock, error) {
	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return nil, errors.New("worklock: work directory required")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("worklock: create work dir: %w", err)
	}

	path := filepath.Join(workDir, "backlot.lock")
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("worklock: acquire %s: %w", path, err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. Safe to call on a nil lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
