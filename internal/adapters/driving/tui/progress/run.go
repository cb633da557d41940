package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driving"
)

// Work is the job whose progress is shown. It reports through report.
type Work func(ctx context.Context, report driving.ProgressFunc) error

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run executes work, drawing progress on out. A terminal gets the animated
// view; any other writer gets one line per step.
func Run(ctx context.Context, out io.Writer, work Work) error {
	if !IsTerminal(out) {
		lines := NewLineReporter(out)
		return work(ctx, lines.Report)
	}
	return runProgram(ctx, out, work)
}

func runProgram(ctx context.Context, out io.Writer, work Work) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(nil),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)

	result := make(chan error, 1)
	go func() {
		err := work(ctx, func(pr domain.Progress) {
			p.Send(updateMsg(pr))
		})
		result <- err
		p.Send(finishedMsg{err: err})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-result
		return fmt.Errorf("progress view: %w", err)
	}
	// The program may stop before the work does when ctx is cancelled.
	cancel()
	return <-result
}

// LineReporter writes progress as plain lines. Stage changes are always
// written; per-file steps are written as they arrive.
type LineReporter struct {
	mu    sync.Mutex
	out   io.Writer
	stage domain.ProgressStage
}

// NewLineReporter creates a reporter writing to out.
func NewLineReporter(out io.Writer) *LineReporter {
	return &LineReporter{out: out}
}

// Report writes one progress snapshot.
func (r *LineReporter) Report(p domain.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Stage != r.stage {
		r.stage = p.Stage
		if p.Stage != domain.StageDependencies && p.Stage != domain.StageDescriptions {
			fmt.Fprintf(r.out, "%s\n", StageLabel(p.Stage))
			return
		}
	}

	switch p.Stage {
	case domain.StageDependencies, domain.StageDescriptions:
		status := ""
		if p.Err != nil {
			status = " (failed)"
		}
		fmt.Fprintf(r.out, "[%d/%d] %s%s\n", p.Current, p.Total, p.Path, status)
	}
}
