// Package ui renders live progress for an indexing run: a bubbletea
// progress bar when stdout is an interactive terminal, and a plain
// line-oriented fallback everywhere else (pipes, CI, --quiet/--json).
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/codesearch-dev/codesearch/internal/indexmgr"
)

// Renderer displays the progress of an indexing run.
type Renderer interface {
	// Start prepares the renderer for display.
	Start() error
	// Update reports the latest progress snapshot.
	Update(p indexmgr.Progress)
	// Stop finalizes the display, printing a summary line.
	Stop(p indexmgr.Progress) error
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectCI reports whether the process appears to be running in a CI
// environment, where the TUI should stay off even on a TTY.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, ok := os.LookupEnv(v); ok {
			return true
		}
	}
	return false
}

// NewRenderer picks a TUI or plain renderer based on w, forcePlain, and
// the environment. forcePlain corresponds to the CLI's --quiet/--json/--no-tui
// flags, any of which should bypass the interactive display.
func NewRenderer(w io.Writer, forcePlain bool) Renderer {
	if forcePlain || !IsTTY(w) || DetectCI() {
		return NewPlainRenderer(w)
	}
	tui, err := NewTUIRenderer(w)
	if err != nil {
		return NewPlainRenderer(w)
	}
	return tui
}
