// Package render selects a graph renderer by output format.
package render

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/archer/internal/adapters/driven/render/export"
	"github.com/custodia-labs/archer/internal/adapters/driven/render/mermaid"
	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.RendererRegistry = (*Registry)(nil)

// Registry maps output formats to renderers.
type Registry struct {
	renderers map[domain.OutputFormat]driven.Renderer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[domain.OutputFormat]driven.Renderer),
	}
}

// DefaultRegistry returns a registry with the Mermaid, YAML and JSON renderers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(mermaid.New())
	r.Register(export.NewYAML())
	r.Register(export.NewJSON())
	return r
}

// Register adds a renderer under its own format, replacing any previous one.
func (r *Registry) Register(renderer driven.Renderer) {
	r.renderers[renderer.Format()] = renderer
}

// Get returns the renderer for a format.
func (r *Registry) Get(format domain.OutputFormat) (driven.Renderer, error) {
	renderer, ok := r.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: output format %q", domain.ErrUnsupportedType, format)
	}
	return renderer, nil
}

// Formats returns the registered formats, sorted.
func (r *Registry) Formats() []domain.OutputFormat {
	formats := make([]domain.OutputFormat, 0, len(r.renderers))
	for f := range r.renderers {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
