// Package registry provides entity registration and name resolution.
// It maps entity names referenced by directives (copy, copyValue, host
// directives) to the declared entities, in registration order.
package registry

import (
	"fmt"
	"sync"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// EntityRegistry maps entity names to declared entities.
type EntityRegistry struct {
	mu sync.RWMutex

	// ordered holds entities in registration order
	ordered []*core.Entity

	// byName maps names to every entity declared under them.
	// More than one entry means the name is ambiguous.
	byName map[string][]*core.Entity
}

// NewEntityRegistry creates a new empty registry.
func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{byName: make(map[string][]*core.Entity)}
}

// Register adds an entity to the registry.
func (r *EntityRegistry) Register(e *core.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ordered = append(r.ordered, e)
	r.byName[e.Name] = append(r.byName[e.Name], e)
}

// RegisterAll adds entities in order.
func (r *EntityRegistry) RegisterAll(entities []*core.Entity) {
	for _, e := range entities {
		r.Register(e)
	}
}

// Resolve returns the single entity declared under name.
// A missing or ambiguous name yields core.ErrSourceEntity.
func (r *EntityRegistry) Resolve(name string) (*core.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.byName[name]
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, fmt.Errorf("%w: no entity named %q", core.ErrSourceEntity, name)
	default:
		return nil, fmt.Errorf("%w: %d entities named %q", core.ErrSourceEntity, len(matches), name)
	}
}

// Has reports whether at least one entity is declared under name.
func (r *EntityRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName[name]) > 0
}

// All returns all registered entities in registration order.
func (r *EntityRegistry) All() []*core.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*core.Entity(nil), r.ordered...)
}

// Count returns the number of registered entities.
func (r *EntityRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// Duplicates returns names declared more than once, in registration order.
func (r *EntityRegistry) Duplicates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	seen := make(map[string]struct{})
	for _, e := range r.ordered {
		if _, ok := seen[e.Name]; ok {
			continue
		}
		seen[e.Name] = struct{}{}
		if len(r.byName[e.Name]) > 1 {
			names = append(names, e.Name)
		}
	}
	return names
}

// ResolveDependencies resolves entity names into entities and unknown names.
// Both results are deduplicated and keep input order.
func (r *EntityRegistry) ResolveDependencies(names []string) (dependencies []*core.Entity, unknown []string) {
	seenDeps := make(map[*core.Entity]struct{})
	seenUnknown := make(map[string]struct{})

	for _, name := range names {
		e, err := r.Resolve(name)
		if err != nil {
			if _, ok := seenUnknown[name]; !ok {
				seenUnknown[name] = struct{}{}
				unknown = append(unknown, name)
			}
			continue
		}
		if _, ok := seenDeps[e]; !ok {
			seenDeps[e] = struct{}{}
			dependencies = append(dependencies, e)
		}
	}
	return dependencies, unknown
}
