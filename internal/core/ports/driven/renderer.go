package driven

import "github.com/custodia-labs/archer/internal/core/domain"

// RenderOptions configures a renderer.
type RenderOptions struct {
	// Direction is the Mermaid flowchart direction (TD, LR, BT, RL).
	Direction string

	// Title is an optional diagram title.
	Title string
}

// Renderer turns a service graph into a textual artefact.
type Renderer interface {
	// Format returns the output format this renderer produces.
	Format() domain.OutputFormat

	// Render returns the rendered graph.
	Render(graph *domain.ServiceGraph, opts RenderOptions) ([]byte, error)
}

// RendererRegistry selects a renderer by output format.
type RendererRegistry interface {
	// Get returns the renderer for a format, or domain.ErrUnsupportedType.
	Get(format domain.OutputFormat) (Renderer, error)

	// Formats lists the registered formats.
	Formats() []domain.OutputFormat
}
