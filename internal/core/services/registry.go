package services

import (
	"sort"
	"sync"

	"github.com/custodia-labs/archer/internal/core/domain"
)

// ServiceRegistry de-duplicates services by sanitized name.
// The first registration of an ID wins; later registrations only fill
// fields that are still empty.
type ServiceRegistry struct {
	mu       sync.RWMutex
	services map[string]domain.Service
}

// NewServiceRegistry creates an empty registry.
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]domain.Service),
	}
}

// NewServiceRegistryFromGraph seeds a registry with every service of g.
func NewServiceRegistryFromGraph(g *domain.ServiceGraph) *ServiceRegistry {
	r := NewServiceRegistry()
	if g == nil {
		return r
	}
	for _, s := range g.SortedServices() {
		r.Add(s)
	}
	return r
}

// Register inserts a service built from name, description and rootPath
// unless one with the same sanitized name exists, and returns the stored value.
func (r *ServiceRegistry) Register(name, description, rootPath string) domain.Service {
	return r.Add(domain.NewService(name, description, rootPath))
}

// Add inserts s unless its ID is already registered and returns the stored value.
// A service with an empty ID is returned unchanged and not stored.
func (r *ServiceRegistry) Add(s domain.Service) domain.Service {
	if s.ID == "" {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.services[s.ID]
	if !ok {
		r.services[s.ID] = s
		return s
	}

	if existing.Description == "" && s.Description != "" {
		existing.Description = s.Description
	}
	if existing.RootPath == "" && s.RootPath != "" {
		existing.RootPath = s.RootPath
	}
	r.services[s.ID] = existing
	return existing
}

// Describe sets the description of id if it has none.
func (r *ServiceRegistry) Describe(id, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.services[id]
	if !ok || s.Description != "" {
		return
	}
	s.Description = description
	r.services[id] = s
}

// Get returns the service with the given ID.
func (r *ServiceRegistry) Get(id string) (domain.Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.services[id]
	return s, ok
}

// Lookup returns the service whose sanitized name matches name.
func (r *ServiceRegistry) Lookup(name string) (domain.Service, bool) {
	return r.Get(domain.SanitizeServiceID(name))
}

// OwnerOf returns the internal service whose RootPath is the longest
// directory prefix of path. A service rooted at "." owns every path.
func (r *ServiceRegistry) OwnerOf(path string) (domain.Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best domain.Service
	bestLen := -1
	for _, s := range r.services {
		if !owns(s.RootPath, path) {
			continue
		}
		n := len(s.RootPath)
		if s.RootPath == "." {
			n = 0
		}
		if n > bestLen || (n == bestLen && s.ID < best.ID) {
			best = s
			bestLen = n
		}
	}
	return best, bestLen >= 0
}

// List returns every service sorted by ID.
func (r *ServiceRegistry) List() []domain.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Service, 0, len(r.services))
	for _, s := range r.services {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Len returns the number of registered services.
func (r *ServiceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}

// Sync replaces every service in g with the registry's current value,
// so descriptions and root paths filled after insertion reach the graph.
func (r *ServiceRegistry) Sync(g *domain.ServiceGraph) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id := range g.Services {
		if s, ok := r.services[id]; ok {
			g.Services[id] = s
		}
	}
	for _, deps := range g.Dependencies {
		for id := range deps {
			if s, ok := r.services[id]; ok {
				deps[id] = s
			}
		}
	}
}

func owns(root, path string) bool {
	switch root {
	case "":
		return false
	case ".":
		return true
	}
	return path == root || hasDirPrefix(path, root)
}

func hasDirPrefix(path, dir string) bool {
	return len(path) > len(dir) && path[:len(dir)] == dir && path[len(dir)] == '/'
}
