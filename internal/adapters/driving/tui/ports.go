// Package tui provides the interactive run browser for archer.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/archer/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Runs lists, loads and deletes stored analysis runs.
	Runs driving.RunService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Runs == nil {
		return ErrMissingRunService
	}
	return nil
}
