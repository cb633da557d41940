package tui

import "errors"

// ErrMissingRunService is returned when the run service is not provided.
var ErrMissingRunService = errors.New("tui: run service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
