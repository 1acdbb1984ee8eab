package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codesearch-dev/codesearch/internal/indexerr"
	"github.com/codesearch-dev/codesearch/internal/indexmgr"
)

// TUIRenderer drives a bubbletea progress bar for an indexing run.
type TUIRenderer struct {
	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer writing to w. It fails if w is
// not backed by an *os.File, since bubbletea needs a real terminal.
func NewTUIRenderer(w io.Writer) (*TUIRenderer, error) {
	f, ok := w.(*os.File)
	if !ok {
		return nil, indexerr.Config("UI_NOT_A_TTY", "TUI renderer requires a terminal output", nil)
	}
	model := newProgressModel()
	program := tea.NewProgram(model, tea.WithOutput(f))
	return &TUIRenderer{program: program, done: make(chan struct{})}, nil
}

func (r *TUIRenderer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

func (r *TUIRenderer) Update(p indexmgr.Progress) {
	r.program.Send(progressMsg(p))
}

func (r *TUIRenderer) Stop(p indexmgr.Progress) error {
	r.program.Send(progressMsg(p))
	r.program.Quit()
	<-r.done
	return nil
}

type progressMsg indexmgr.Progress

type progressModel struct {
	bar        progress.Model
	total      int
	processed  int
	errorCount int
}

func newProgressModel() progressModel {
	return progressModel{bar: progress.New(progress.WithDefaultGradient())}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.total = msg.TotalFiles
		m.processed = msg.ProcessedFiles
		m.errorCount = len(msg.Errors)
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 4
	}
	return m, nil
}

func (m progressModel) View() string {
	pct := 0.0
	if m.total > 0 {
		pct = float64(m.processed) / float64(m.total)
	}
	bar := m.bar.ViewAs(pct)
	status := fmt.Sprintf("%d/%d files", m.processed, m.total)
	if m.errorCount > 0 {
		status += lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(fmt.Sprintf(" (%d errors)", m.errorCount))
	}
	return bar + "  " + status + "\n"
}
