// Package messages defines Bubbletea message types for the run browser.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/archer/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewRuns lists stored analysis runs.
	ViewRuns ViewType = iota
	// ViewRunDetail shows the services of one run.
	ViewRunDetail
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewRuns:
		return "runs"
	case ViewRunDetail:
		return "run_detail"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// RunsLoaded carries the stored runs, newest first, without graphs.
type RunsLoaded struct {
	Runs []domain.AnalysisRun
	Err  error
}

// RunSelected signals a run was chosen in the list.
type RunSelected struct {
	ID string
}

// RunLoaded carries a run together with its graph.
type RunLoaded struct {
	Run *domain.AnalysisRun
	Err error
}

// RunDeleted signals a run was removed.
type RunDeleted struct {
	ID  string
	Err error
}
