package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/codesearch-dev/codesearch/internal/indexmgr"
)

// PlainRenderer prints one line per progress update, suitable for
// pipes, CI logs, and --quiet/--json runs.
type PlainRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainRenderer creates a line-oriented renderer writing to out.
func NewPlainRenderer(out io.Writer) *PlainRenderer {
	return &PlainRenderer{out: out}
}

func (r *PlainRenderer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintln(r.out, "indexing...")
	return err
}

func (r *PlainRenderer) Update(p indexmgr.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "  %d/%d processed", p.ProcessedFiles, p.TotalFiles)
	if len(p.Errors) > 0 {
		fmt.Fprintf(r.out, " (%d errors)", len(p.Errors))
	}
	fmt.Fprintln(r.out)
}

func (r *PlainRenderer) Stop(p indexmgr.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintf(r.out, "done: %d/%d files, %d error(s)\n", p.ProcessedFiles, p.TotalFiles, len(p.Errors))
	for _, e := range p.Errors {
		fmt.Fprintf(r.out, "  error: %s: %v\n", e.Path, e.Err)
	}
	return err
}
