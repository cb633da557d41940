package mcp

import (
	"github.com/custodia-labs/archer/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Runs lists stored runs and renders their graphs.
	Runs driving.RunService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Runs == nil {
		return ErrMissingRunService
	}
	return nil
}
