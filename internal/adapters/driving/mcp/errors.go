// Package mcp provides an MCP (Model Context Protocol) server adapter for archer.
// It lets AI assistants read stored analysis runs, their services and their diagrams.
package mcp

import "errors"

// ErrMissingRunService is returned when the run service is not provided.
var ErrMissingRunService = errors.New("mcp: run service is required")
