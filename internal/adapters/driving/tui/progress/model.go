// Package progress shows the advance of an analysis run in the terminal.
//
// On a terminal a bubbletea program draws a spinner, the current stage and a
// progress bar. Otherwise each step is written as a plain line.
package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/archer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/archer/internal/core/domain"
)

const (
	defaultBarWidth = 40
	maxBarWidth     = 80
)

// updateMsg carries a progress snapshot into the program.
type updateMsg domain.Progress

// finishedMsg ends the program once the work returns.
type finishedMsg struct {
	err error
}

// Model is the bubbletea model of the progress view.
type Model struct {
	spinner spinner.Model
	bar     progress.Model
	styles  *styles.Styles

	current domain.Progress
	failed  int
	done    bool
	err     error
}

// NewModel creates a progress view.
func NewModel(s *styles.Styles) Model {
	if s == nil {
		s = styles.DefaultStyles()
	}
	theme := s.Theme()
	return Model{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(s.Spinner),
		),
		bar: progress.New(
			progress.WithGradient(theme.BarStart, theme.BarEnd),
			progress.WithWidth(defaultBarWidth),
		),
		styles:  s,
		current: domain.Progress{Stage: domain.StageHierarchy},
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress snapshots, resizes and spinner ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		p := domain.Progress(msg)
		if p.Err != nil {
			m.failed++
		}
		m.current = p
		return m, nil

	case finishedMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), maxBarWidth)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the current stage.
func (m Model) View() string {
	if m.done {
		if m.err != nil {
			return m.styles.Error.Render("✗ "+m.err.Error()) + "\n"
		}
		return m.styles.Success.Render("✓ "+summary(m.current, m.failed)) + "\n"
	}

	var sb strings.Builder
	sb.WriteString(m.spinner.View())
	sb.WriteString(" ")
	sb.WriteString(m.styles.Title.Render(StageLabel(m.current.Stage)))
	if m.current.Total > 0 {
		sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %d/%d", m.current.Current, m.current.Total)))
	}
	if m.failed > 0 {
		sb.WriteString(m.styles.Warning.Render(fmt.Sprintf("  %d failed", m.failed)))
	}
	sb.WriteString("\n")
	sb.WriteString(m.bar.ViewAs(m.current.Fraction()))
	sb.WriteString("\n")
	if m.current.Path != "" {
		sb.WriteString(m.styles.Muted.Render("  " + m.current.Path))
		sb.WriteString("\n")
	}
	return sb.String()
}

// StageLabel describes a stage for display.
func StageLabel(stage domain.ProgressStage) string {
	switch stage {
	case domain.StageHierarchy:
		return "Walking repository"
	case domain.StageServices:
		return "Inferring services"
	case domain.StageDependencies:
		return "Inferring dependencies"
	case domain.StageDescriptions:
		return "Describing services"
	case domain.StageDone:
		return "Done"
	default:
		return string(stage)
	}
}

func summary(p domain.Progress, failed int) string {
	s := fmt.Sprintf("Analysed %d files", p.Total)
	if failed > 0 {
		s += fmt.Sprintf(", %d failed", failed)
	}
	return s
}
