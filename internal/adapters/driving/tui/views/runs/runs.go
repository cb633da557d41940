// Package runs provides the run list view of the TUI.
package runs

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/archer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/archer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driving"
)

const timeLayout = "2006-01-02 15:04"

// View lists stored runs, newest first.
type View struct {
	ctx        context.Context
	styles     *styles.Styles
	runService driving.RunService

	runs     []domain.AnalysisRun
	selected int
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new run list view.
func NewView(ctx context.Context, s *styles.Styles, runService driving.RunService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:        ctx,
		styles:     s,
		runService: runService,
		width:      80,
	}
}

// Init loads the runs.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadRuns()
}

func (v *View) loadRuns() tea.Cmd {
	return func() tea.Msg {
		if v.runService == nil {
			return messages.RunsLoaded{Err: fmt.Errorf("run service not available")}
		}
		runs, err := v.runService.List(v.ctx)
		return messages.RunsLoaded{Runs: runs, Err: err}
	}
}

// Update handles messages for the run list.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RunsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.runs = msg.Runs
		v.err = nil
		if v.selected >= len(v.runs) {
			v.selected = max(len(v.runs)-1, 0)
		}
		return v, nil

	case messages.RunDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.loading = true
		return v, v.loadRuns()
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.runs)-1 {
			v.selected++
		}
	case "enter":
		if run := v.SelectedRun(); run != nil {
			id := run.ID
			return v, func() tea.Msg {
				return messages.RunSelected{ID: id}
			}
		}
	case "d", "delete":
		if run := v.SelectedRun(); run != nil {
			return v, v.deleteRun(run.ID)
		}
	case "r":
		v.loading = true
		return v, v.loadRuns()
	}

	return v, nil
}

func (v *View) deleteRun(id string) tea.Cmd {
	return func() tea.Msg {
		if v.runService == nil {
			return messages.RunDeleted{ID: id, Err: fmt.Errorf("run service not available")}
		}
		return messages.RunDeleted{ID: id, Err: v.runService.Delete(v.ctx, id)}
	}
}

// View renders the run list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Runs"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading runs..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.runs) == 0:
		b.WriteString(v.styles.Muted.Render("No runs yet. Run 'archer analyze' first."))
	default:
		for i := range v.runs {
			b.WriteString(v.renderRun(i, &v.runs[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

// renderRun renders one line: > started  repo  files  model.
func (v *View) renderRun(index int, run *domain.AnalysisRun) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	started := run.StartedAt.Local().Format(timeLayout)
	files := fmt.Sprintf("%d files", run.FilesAnalysed)
	if run.FilesFailed > 0 {
		files += fmt.Sprintf(" (%d failed)", run.FilesFailed)
	}

	repo := run.RepoRoot
	maxRepo := v.width - len(started) - len(files) - len(run.Model) - 10
	if maxRepo < 10 {
		maxRepo = 10
	}
	if len(repo) > maxRepo {
		repo = "..." + repo[len(repo)-maxRepo+3:]
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%s  %-*s  %s  %s", indicator, started, maxRepo, repo, files, run.Model))
	}
	return v.styles.Normal.Render(indicator) +
		v.styles.Subtitle.Render(started+"  ") +
		v.styles.Normal.Render(fmt.Sprintf("%-*s  ", maxRepo, repo)) +
		v.styles.Muted.Render(files+"  "+run.Model)
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[enter] services  [d] delete  [r] reload  [?] help  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Runs returns the listed runs.
func (v *View) Runs() []domain.AnalysisRun {
	return v.runs
}

// SelectedIndex returns the highlighted run index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedRun returns the highlighted run, or nil when there are none.
func (v *View) SelectedRun() *domain.AnalysisRun {
	if v.selected < 0 || v.selected >= len(v.runs) {
		return nil
	}
	return &v.runs[v.selected]
}

// Loading reports whether runs are being fetched.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
