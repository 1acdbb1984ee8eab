// Package watcher observes a project directory for filesystem changes and
// emits debounced, coalesced events suitable for driving an incremental
// index pass.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codesearch-dev/codesearch/internal/indexerr"
)

// EventKind classifies a coalesced filesystem change.
type EventKind int

const (
	EventCreated EventKind = iota
	EventModified
	EventDeleted
)

// Event is a debounced, deduplicated change to a single path.
type Event struct {
	Path string
	Kind EventKind
}

// Watcher wraps fsnotify with recursive directory registration and a
// debounce window that coalesces bursts of events (e.g. an editor's
// write-then-rename save sequence) into a single event per path.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]EventKind
	timer   *time.Timer

	out chan Event
}

// New creates a Watcher rooted at root, recursively registering every
// subdirectory that isn't in excludeDirs. debounce is the quiet period
// required before a batch of pending changes is flushed.
func New(root string, excludeDirs map[string]bool, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, indexerr.IO("WATCH_INIT", "failed to create filesystem watcher", err)
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		pending:  make(map[string]EventKind),
		out:      make(chan Event, 256),
	}

	if err := w.addRecursive(root, excludeDirs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string, excludeDirs map[string]bool) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if excludeDirs[filepath.Base(path)] {
			return filepath.SkipDir
		}
		if werr := w.fsw.Add(path); werr != nil {
			return indexerr.IO("WATCH_ADD_DIR", "failed to watch directory "+path, werr)
		}
		return nil
	})
}

// Events returns the channel of debounced events. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.out
}

// Run processes raw fsnotify events until ctx is canceled, flushing
// debounced events to the Events channel.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.out)
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return indexerr.IO("WATCH_ERROR", "filesystem watcher reported an error", err)
			}
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.record(ev)
		}
	}
}

func (w *Watcher) record(ev fsnotify.Event) {
	var kind EventKind
	switch {
	case ev.Has(fsnotify.Create):
		kind = EventCreated
		_ = w.fsw.Add(ev.Name) // harmless if not a directory
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		kind = EventDeleted
	case ev.Has(fsnotify.Write):
		kind = EventModified
	default:
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[ev.Name] = kind
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]EventKind)
	w.mu.Unlock()

	for path, kind := range batch {
		w.out <- Event{Path: path, Kind: kind}
	}
}
