package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/archer/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/archer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/archer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/archer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/archer/internal/adapters/driving/tui/views/rundetail"
	"github.com/custodia-labs/archer/internal/adapters/driving/tui/views/runs"
)

// App is the run browser following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	runsView      *runs.View
	runDetailView *rundetail.View
	statusBar     *status.Bar

	// currentView tracks which view is active.
	currentView messages.ViewType

	// previousView is restored when help is closed.
	previousView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new run browser with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s, km)
	bar.SetBindings(km.RunsHelp())

	app := &App{
		ports:       ports,
		styles:      s,
		keymap:      km,
		statusBar:   bar,
		currentView: messages.ViewRuns,
	}
	return app.WithContext(context.Background()), nil
}

// WithContext sets the context used for service calls.
// Views are rebuilt so their commands observe ctx.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.runsView = runs.NewView(ctx, a.styles, a.ports.Runs)
	a.runDetailView = rundetail.NewView(ctx, a.styles, a.ports.Runs)
	if a.ready {
		a.SetDimensions(a.width, a.height)
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	a.statusBar.SetState(status.StateLoading)
	return tea.Batch(
		tea.SetWindowTitle("archer - runs"),
		a.runsView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		a.switchTo(msg.View)
		if msg.View == messages.ViewRuns {
			a.statusBar.SetState(status.StateLoading)
			return a, a.runsView.Init()
		}
		return a, nil

	case messages.RunsLoaded:
		a.runsView, cmd = a.runsView.Update(msg)
		a.reportResult(msg.Err)
		a.statusBar.SetCount(len(a.runsView.Runs()), "runs")
		return a, cmd

	case messages.RunSelected:
		a.runDetailView.SetRunID(msg.ID)
		a.switchTo(messages.ViewRunDetail)
		a.statusBar.SetState(status.StateLoading)
		return a, a.runDetailView.Init()

	case messages.RunLoaded:
		a.runDetailView, cmd = a.runDetailView.Update(msg)
		a.reportResult(msg.Err)
		a.statusBar.SetCount(a.runDetailView.Services().Count(), "services")
		return a, cmd

	case messages.RunDeleted:
		a.runsView, cmd = a.runsView.Update(msg)
		a.reportResult(msg.Err)
		if msg.Err == nil {
			a.statusBar.SetMessage("Deleted run " + shortID(msg.ID))
		}
		return a, cmd

	case messages.ErrorOccurred:
		a.reportResult(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if keymap.Matches(key, a.keymap.Quit) {
		return a, tea.Quit
	}

	if a.currentView == messages.ViewHelp {
		if keymap.Matches(key, a.keymap.Back) || keymap.Matches(key, a.keymap.Help) {
			a.switchTo(a.previousView)
		}
		return a, nil
	}
	if keymap.Matches(key, a.keymap.Help) {
		a.previousView = a.currentView
		a.switchTo(messages.ViewHelp)
		return a, nil
	}

	// A new key press replaces any transient status message.
	a.statusBar.SetMessage("")

	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewRuns:
		if keymap.Matches(key, a.keymap.Reload) {
			a.statusBar.SetState(status.StateLoading)
		}
		a.runsView, cmd = a.runsView.Update(msg)
	case messages.ViewRunDetail:
		a.runDetailView, cmd = a.runDetailView.Update(msg)
	case messages.ViewHelp:
	}
	return a, cmd
}

// switchTo activates a view and updates the status bar hints.
func (a *App) switchTo(view messages.ViewType) {
	a.currentView = view
	switch view {
	case messages.ViewRuns:
		a.statusBar.SetBindings(a.keymap.RunsHelp())
		a.statusBar.SetState(status.StateReady)
		a.statusBar.SetCount(len(a.runsView.Runs()), "runs")
	case messages.ViewRunDetail:
		a.statusBar.SetBindings(a.keymap.DetailHelp())
		a.statusBar.SetState(status.StateReady)
	case messages.ViewHelp:
		a.statusBar.SetBindings(a.keymap.ShortHelp())
		a.statusBar.SetState(status.StateHelp)
	}
}

func (a *App) reportResult(err error) {
	if err != nil {
		a.err = err
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(err.Error())
		return
	}
	a.statusBar.SetState(status.StateReady)
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewRunDetail:
		body = a.runDetailView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.runsView.View()
	}
	return body + "\n" + a.statusBar.View()
}

// viewHelp renders the full keybinding list.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI on the alternate screen.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	// Leave room for the status bar.
	a.runsView.SetDimensions(width, height-2)
	a.runDetailView.SetDimensions(width, height-2)
	a.statusBar.SetWidth(width)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
