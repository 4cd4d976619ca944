package metadata

import (
	"sort"
	"sync"
)

type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// GetSchema returns the schema for the given resource name, or nil.
func (r *Registry) GetSchema(name string) *Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[name]
}

// AllSchemas returns all registered schemas ordered by name.
func (r *Registry) AllSchemas() []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schemas := make([]*Schema, 0, len(r.schemas))
	for _, s := range r.schemas {
		schemas = append(schemas, s)
	}
	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas
}

// Register adds or replaces a schema.
func (r *Registry) Register(s *Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[s.Name] = s
}

// Load replaces all schemas in the registry.
func (r *Registry) Load(schemas []*Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.schemas = make(map[string]*Schema, len(schemas))
	for _, s := range schemas {
		r.schemas[s.Name] = s
	}
}
