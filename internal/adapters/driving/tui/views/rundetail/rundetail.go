// Package rundetail provides the view of one run's services.
package rundetail

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/archer/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/archer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/archer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driving"
)

// View shows a run's metadata and browses its services.
type View struct {
	ctx        context.Context
	styles     *styles.Styles
	runService driving.RunService
	services   *list.ServiceList

	runID   string
	run     *domain.AnalysisRun
	width   int
	height  int
	err     error
	loading bool
}

// NewView creates a new run detail view.
func NewView(ctx context.Context, s *styles.Styles, runService driving.RunService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:        ctx,
		styles:     s,
		runService: runService,
		services:   list.NewServiceList(s),
		width:      80,
	}
}

// SetRunID selects the run to show. Init loads it.
func (v *View) SetRunID(id string) {
	v.runID = id
	v.run = nil
	v.err = nil
	v.services.SetGraph(nil)
}

// Init loads the selected run.
func (v *View) Init() tea.Cmd {
	v.loading = true
	id := v.runID
	return func() tea.Msg {
		if v.runService == nil {
			return messages.RunLoaded{Err: fmt.Errorf("run service not available")}
		}
		run, err := v.runService.Get(v.ctx, id)
		return messages.RunLoaded{Run: run, Err: err}
	}
}

// Update handles messages for the run detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.RunLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.run = msg.Run
		v.services.SetGraph(msg.Run.Graph)
		return v, nil

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewRuns}
			}
		}
		var cmd tea.Cmd
		v.services, cmd = v.services.Update(msg)
		return v, cmd
	}

	return v, nil
}

// View renders the run detail view.
func (v *View) View() string {
	var b strings.Builder

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading run..."))
		return b.String()
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	case v.run == nil:
		return v.styles.Muted.Render("No run selected")
	}

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Run: %s", v.run.RepoRoot)))
	b.WriteString("\n\n")

	field := func(label, value string) {
		b.WriteString(v.styles.Subtitle.Render(label))
		b.WriteString(v.styles.Normal.Render(value))
		b.WriteString("\n")
	}
	field("ID: ", v.run.ID)
	field("Model: ", v.run.Model)
	field("Files: ", fmt.Sprintf("%d analysed, %d failed", v.run.FilesAnalysed, v.run.FilesFailed))
	if v.run.Graph != nil {
		field("Graph: ", fmt.Sprintf("%d services, %d dependencies", v.run.Graph.Len(), v.run.Graph.EdgeCount()))
	}
	b.WriteString("\n")

	b.WriteString(strings.Repeat("─", min(40, max(v.width-4, 1))))
	b.WriteString("\n\n")

	b.WriteString(v.services.View())
	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [esc] back  [q] quit")
}

// SetDimensions sets the view dimensions. The service list gets what is
// left below the run header.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.services.SetDimensions(width, height-10)
}

// Run returns the loaded run.
func (v *View) Run() *domain.AnalysisRun {
	return v.run
}

// Services returns the service list component.
func (v *View) Services() *list.ServiceList {
	return v.services
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
