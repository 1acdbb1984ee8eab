// Package logging configures structured logging for the indexer, search
// engine, and CLI, built on the standard library's log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Config controls where and how log records are written.
type Config struct {
	// Level is the minimum level that gets logged.
	Level slog.Level
	// FilePath is the rotating log file's path. Empty disables file
	// logging.
	FilePath string
	// MaxSizeMB is the size at which the active log file is rotated.
	MaxSizeMB int
	// MaxFiles is the number of rotated files kept on disk.
	MaxFiles int
	// WriteToStderr tees log output to stderr in addition to the file.
	WriteToStderr bool
}

// DefaultConfig returns the configuration used when none is supplied:
// info level, rotating file under <indexDir>/logs/codesearch.log, no
// stderr mirroring.
func DefaultConfig(indexDir string) Config {
	return Config{
		Level:     slog.LevelInfo,
		FilePath:  filepath.Join(indexDir, "logs", "codesearch.log"),
		MaxSizeMB: 10,
		MaxFiles:  5,
	}
}

// DebugConfig returns a verbose configuration that also mirrors to
// stderr, used when the CLI's -v/-vv flags are set.
func DebugConfig(indexDir string) Config {
	cfg := DefaultConfig(indexDir)
	cfg.Level = slog.LevelDebug
	cfg.WriteToStderr = true
	return cfg
}

// Setup builds a logger from cfg and returns a cleanup function that
// must be called (typically via defer) to flush and close the
// underlying file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	var writers []io.Writer
	cleanup := func() {}

	if cfg.FilePath != "" {
		rw, err := newRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, rw)
		cleanup = func() { _ = rw.Close() }
	}

	if cfg.WriteToStderr || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	var out io.Writer
	if len(writers) == 1 {
		out = writers[0]
	} else {
		out = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	logger := slog.New(handler)
	return logger, cleanup, nil
}

// ParseLevel maps a CLI verbosity flag count (0, 1, 2+) onto a slog
// level.
func ParseLevel(verbosity int) slog.Level {
	switch {
	case verbosity >= 2:
		return slog.LevelDebug - 4 // trace
	case verbosity == 1:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// LevelFromString parses a textual level name, defaulting to Info for
// unrecognized input.
func LevelFromString(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
