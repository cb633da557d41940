// Package export renders a service graph as YAML or JSON documents.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

// Ensure the renderers implement the interface.
var (
	_ driven.Renderer = (*YAMLRenderer)(nil)
	_ driven.Renderer = (*JSONRenderer)(nil)
)

// Document is the exported form of a graph.
type Document struct {
	Title    string           `json:"title,omitempty" yaml:"title,omitempty"`
	Services []domain.Service `json:"services" yaml:"services"`
	Edges    []domain.Edge    `json:"edges" yaml:"edges"`
}

// NewDocument flattens a graph into sorted services and edges.
func NewDocument(graph *domain.ServiceGraph, title string) (*Document, error) {
	if graph == nil {
		return nil, fmt.Errorf("%w: nil graph", domain.ErrInvalidInput)
	}
	edges := graph.Edges()
	if edges == nil {
		edges = []domain.Edge{}
	}
	return &Document{
		Title:    title,
		Services: graph.SortedServices(),
		Edges:    edges,
	}, nil
}

// Graph rebuilds a service graph from the document.
func (d *Document) Graph() *domain.ServiceGraph {
	g := domain.NewServiceGraph()
	for _, s := range d.Services {
		g.AddService(s)
	}
	for _, e := range d.Edges {
		from, ok := g.Get(e.From)
		if !ok {
			from = domain.Service{ID: e.From, Name: e.From}
		}
		to, ok := g.Get(e.To)
		if !ok {
			to = domain.Service{ID: e.To, Name: e.To}
		}
		g.AddDependency(from, to)
	}
	return g
}

// YAMLRenderer writes graphs with gopkg.in/yaml.v3.
type YAMLRenderer struct{}

// NewYAML creates a YAML renderer.
func NewYAML() *YAMLRenderer {
	return &YAMLRenderer{}
}

// Format returns domain.OutputFormatYAML.
func (r *YAMLRenderer) Format() domain.OutputFormat {
	return domain.OutputFormatYAML
}

// Render encodes the graph with two-space indentation.
func (r *YAMLRenderer) Render(graph *domain.ServiceGraph, opts driven.RenderOptions) ([]byte, error) {
	doc, err := NewDocument(graph, opts.Title)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// JSONRenderer writes indented JSON.
type JSONRenderer struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSONRenderer {
	return &JSONRenderer{}
}

// Format returns domain.OutputFormatJSON.
func (r *JSONRenderer) Format() domain.OutputFormat {
	return domain.OutputFormatJSON
}

// Render encodes the graph.
func (r *JSONRenderer) Render(graph *domain.ServiceGraph, opts driven.RenderOptions) ([]byte, error) {
	doc, err := NewDocument(graph, opts.Title)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a YAML or JSON document produced by the renderers.
// JSON is a subset of YAML, so one decoder reads both.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode graph: %v", domain.ErrInvalidInput, err)
	}
	return &doc, nil
}
