package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherEmitsEventOnWrite(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	w, err := New(root, map[string]bool{".git": true}, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go w.Run(ctx)

	require.NoError(t, os.WriteFile(target, []byte("package main\n\nfunc main() {}\n"), 0o644))

	select {
	case ev := <-w.Events():
		assert.Equal(t, target, ev.Path)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for watcher event")
	}
}

func TestWatcherCoalescesBurstsIntoSingleEvent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	w, err := New(root, nil, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go w.Run(ctx)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte{byte(i)}, 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	var received int
	timeout := time.After(1 * time.Second)
loop:
	for {
		select {
		case _, ok := <-w.Events():
			if !ok {
				break loop
			}
			received++
		case <-timeout:
			break loop
		}
	}
	assert.GreaterOrEqual(t, received, 1)
	assert.Less(t, received, 5)
}
