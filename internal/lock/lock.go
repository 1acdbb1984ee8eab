// Package lock enforces the single-writer-per-project invariant via an
// advisory file lock, leaving readers free to run concurrently with each
// other as long as no writer holds the lock.
package lock

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/codesearch-dev/codesearch/internal/indexerr"
)

// WriteLockName is the lock file placed inside a project's index directory.
const WriteLockName = ".write.lock"

// WriteLock guards exclusive access to a project's index during indexing.
type WriteLock struct {
	flock *flock.Flock
}

// New returns a WriteLock for the index directory indexDir.
func New(indexDir string) *WriteLock {
	return &WriteLock{flock: flock.New(filepath.Join(indexDir, WriteLockName))}
}

// TryLock attempts to acquire the write lock without blocking. It returns
// false, nil if another process already holds it.
func (w *WriteLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(w.flock.Path()), 0o755); err != nil {
		return false, indexerr.IO("LOCK_MKDIR", "failed to create index directory for lock", err)
	}
	ok, err := w.flock.TryLock()
	if err != nil {
		return false, indexerr.IO("LOCK_TRYLOCK", "failed to acquire write lock", err)
	}
	return ok, nil
}

// LockContext blocks until the lock is acquired or ctx is canceled,
// polling at the given interval.
func (w *WriteLock) LockContext(ctx context.Context, pollInterval time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(w.flock.Path()), 0o755); err != nil {
		return indexerr.IO("LOCK_MKDIR", "failed to create index directory for lock", err)
	}
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	ok, err := w.flock.TryLockContext(ctx, pollInterval)
	if err != nil {
		return indexerr.IO("LOCK_ACQUIRE", "failed to acquire write lock", err)
	}
	if !ok {
		return indexerr.Storage("LOCK_BUSY", "project is locked by another writer", nil)
	}
	return nil
}

// Unlock releases the write lock.
func (w *WriteLock) Unlock() error {
	if err := w.flock.Unlock(); err != nil {
		return indexerr.IO("LOCK_RELEASE", "failed to release write lock", err)
	}
	return nil
}

// Locked reports whether this process currently holds the lock.
func (w *WriteLock) Locked() bool {
	return w.flock.Locked()
}
