// Package mermaid renders a service graph as a Mermaid flowchart.
//
// Services hosted in the repository are drawn as rectangles and external
// dependencies as stadiums styled with the "external" class:
//
//	graph LR
//	    api["API"]
//	    stripe(["Stripe"])
//	    api --> stripe
//	    classDef external fill:#eef,stroke:#669,stroke-dasharray:4 3
//	    class stripe external
package mermaid

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

// Ensure Renderer implements the interface.
var _ driven.Renderer = (*Renderer)(nil)

// DefaultDirection is used when RenderOptions leaves it empty.
const DefaultDirection = "LR"

const (
	indent        = "    "
	externalClass = "external"
	externalStyle = "fill:#eef,stroke:#669,stroke-dasharray:4 3"
)

// reserved are words Mermaid treats as syntax when used as node IDs.
var reserved = map[string]bool{
	"end": true, "graph": true, "flowchart": true, "subgraph": true,
	"class": true, "classdef": true, "style": true, "click": true, "linkstyle": true,
	"direction": true, "default": true,
}

// Renderer writes Mermaid flowcharts.
type Renderer struct{}

// New creates a Mermaid renderer.
func New() *Renderer {
	return &Renderer{}
}

// Format returns domain.OutputFormatMermaid.
func (r *Renderer) Format() domain.OutputFormat {
	return domain.OutputFormatMermaid
}

// Render writes the graph. Output is deterministic: nodes and edges are sorted by ID.
func (r *Renderer) Render(graph *domain.ServiceGraph, opts driven.RenderOptions) ([]byte, error) {
	if graph == nil {
		return nil, fmt.Errorf("%w: nil graph", domain.ErrInvalidInput)
	}
	direction := strings.ToUpper(strings.TrimSpace(opts.Direction))
	if direction == "" {
		direction = DefaultDirection
	}
	if !domain.IsValidDirection(direction) {
		return nil, fmt.Errorf("%w: diagram direction %q", domain.ErrInvalidInput, opts.Direction)
	}

	var buf bytes.Buffer
	if opts.Title != "" {
		fmt.Fprintf(&buf, "---\ntitle: %s\n---\n", escapeTitle(opts.Title))
	}
	fmt.Fprintf(&buf, "graph %s\n", direction)

	services := graph.SortedServices()
	seen := make(map[string]bool, len(services))
	var external []string
	for _, s := range services {
		seen[s.ID] = true
		buf.WriteString(indent)
		buf.WriteString(node(s))
		buf.WriteByte('\n')
		if s.IsExternal() {
			external = append(external, NodeID(s.ID))
		}
	}

	for _, e := range graph.Edges() {
		// Edges to services missing from the map still get a node.
		for _, id := range []string{e.From, e.To} {
			if !seen[id] {
				seen[id] = true
				fmt.Fprintf(&buf, "%s%s([\"%s\"])\n", indent, NodeID(id), EscapeLabel(id))
				external = append(external, NodeID(id))
			}
		}
		fmt.Fprintf(&buf, "%s%s --> %s\n", indent, NodeID(e.From), NodeID(e.To))
	}

	if len(external) > 0 {
		fmt.Fprintf(&buf, "%sclassDef %s %s\n", indent, externalClass, externalStyle)
		fmt.Fprintf(&buf, "%sclass %s %s\n", indent, strings.Join(external, ","), externalClass)
	}
	return buf.Bytes(), nil
}

// node renders a single service declaration.
func node(s domain.Service) string {
	label := EscapeLabel(s.Label())
	if s.IsExternal() {
		return fmt.Sprintf(`%s(["%s"])`, NodeID(s.ID), label)
	}
	return fmt.Sprintf(`%s["%s"]`, NodeID(s.ID), label)
}

// NodeID makes a service ID safe to use as a Mermaid node identifier.
// IDs that are empty, reserved words or start with a digit get a leading
// underscore. Sanitized service IDs never start with one, so the escaped
// form cannot collide with another service.
func NodeID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	out := sb.String()
	if out == "" || reserved[strings.ToLower(out)] || (out[0] >= '0' && out[0] <= '9') {
		out = "_" + out
	}
	return out
}

// EscapeLabel escapes text placed inside a quoted node label.
func EscapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, `"`, "#quot;")
	return s
}

func escapeTitle(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
}
