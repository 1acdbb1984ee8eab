package embedding

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/codesearch-dev/codesearch/internal/indexerr"
)

// DownloadLock is a cross-process exclusive lock for serializing
// first-time model setup (e.g. pulling an Ollama model) across
// processes sharing a model cache. No code path in this module
// acquires it.
type DownloadLock struct {
	flock *flock.Flock
}

// NewDownloadLock creates a lock file at <dir>/.download.lock.
func NewDownloadLock(dir string) *DownloadLock {
	path := filepath.Join(dir, ".download.lock")
	return &DownloadLock{flock: flock.New(path)}
}

// Lock blocks until the exclusive lock is acquired, creating dir if
// necessary.
func (l *DownloadLock) Lock() error {
	dir := filepath.Dir(l.flock.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return indexerr.IO("EMBED_LOCK_MKDIR", "failed to create download lock directory", err)
	}
	if err := l.flock.Lock(); err != nil {
		return indexerr.IO("EMBED_LOCK_ACQUIRE", "failed to acquire download lock", err)
	}
	return nil
}

// Unlock releases the lock.
func (l *DownloadLock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return indexerr.IO("EMBED_LOCK_RELEASE", "failed to release download lock", err)
	}
	return nil
}
