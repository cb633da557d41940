package domain

import "sort"

// Edge is a directed dependency between two services.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// ServiceGraph maps service ids to services and records which services
// depend on which. It is the input to every renderer.
type ServiceGraph struct {
	// Services holds every known service keyed by ID.
	Services map[string]Service

	// Dependencies maps a service ID to the services it depends on, keyed by dependency ID.
	Dependencies map[string]map[string]Service
}

// NewServiceGraph creates an empty graph.
func NewServiceGraph() *ServiceGraph {
	return &ServiceGraph{
		Services:     make(map[string]Service),
		Dependencies: make(map[string]map[string]Service),
	}
}

// AddService stores s unless a service with the same ID already exists.
// It returns the stored service. Services without an ID are ignored.
func (g *ServiceGraph) AddService(s Service) Service {
	if s.ID == "" {
		return s
	}
	if existing, ok := g.Services[s.ID]; ok {
		return existing
	}
	g.Services[s.ID] = s
	return s
}

// AddDependency records that from depends on to.
// Both ends are added to the graph if absent. Self edges are dropped.
func (g *ServiceGraph) AddDependency(from, to Service) {
	if from.ID == "" || to.ID == "" {
		return
	}
	from = g.AddService(from)
	to = g.AddService(to)
	if from.ID == to.ID {
		return
	}

	deps, ok := g.Dependencies[from.ID]
	if !ok {
		deps = make(map[string]Service)
		g.Dependencies[from.ID] = deps
	}
	if _, exists := deps[to.ID]; !exists {
		deps[to.ID] = to
	}
}

// Get returns the service with the given ID.
func (g *ServiceGraph) Get(id string) (Service, bool) {
	s, ok := g.Services[id]
	return s, ok
}

// DependenciesOf returns the services id depends on, sorted by ID.
func (g *ServiceGraph) DependenciesOf(id string) []Service {
	deps := g.Dependencies[id]
	result := make([]Service, 0, len(deps))
	for _, s := range deps {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// SortedServices returns every service sorted by ID.
func (g *ServiceGraph) SortedServices() []Service {
	result := make([]Service, 0, len(g.Services))
	for _, s := range g.Services {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Edges returns every dependency edge sorted by (From, To).
func (g *ServiceGraph) Edges() []Edge {
	var edges []Edge
	for from, deps := range g.Dependencies {
		for to := range deps {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// Len returns the number of services.
func (g *ServiceGraph) Len() int {
	return len(g.Services)
}

// EdgeCount returns the number of dependency edges.
func (g *ServiceGraph) EdgeCount() int {
	n := 0
	for _, deps := range g.Dependencies {
		n += len(deps)
	}
	return n
}

// Merge copies every service and edge of other into g, keeping existing entries.
func (g *ServiceGraph) Merge(other *ServiceGraph) {
	if other == nil {
		return
	}
	for _, s := range other.SortedServices() {
		g.AddService(s)
	}
	for _, e := range other.Edges() {
		g.AddDependency(other.Services[e.From], other.Services[e.To])
	}
}

// Clone returns a deep copy of g.
func (g *ServiceGraph) Clone() *ServiceGraph {
	c := NewServiceGraph()
	c.Merge(g)
	return c
}
