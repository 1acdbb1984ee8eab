package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("indexing started", slog.String("project", "demo"))
	cleanup()

	data, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	require.Contains(t, string(data), "indexing started")
	require.Contains(t, string(data), "demo")
}

func TestRotatingWriterRotatesAtSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	w, err := newRotatingWriter(path, 0, 2)
	require.NoError(t, err)
	w.maxBytes = 10 // force rotation quickly

	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)
	_, err = w.Write([]byte("more-data-that-triggers-rotation"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = os.Stat(path + ".1")
	require.NoError(t, err, "expected rotated file to exist")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelInfo, ParseLevel(0))
	require.Equal(t, slog.LevelDebug, ParseLevel(1))
	require.Less(t, int(ParseLevel(2)), int(slog.LevelDebug))
}
