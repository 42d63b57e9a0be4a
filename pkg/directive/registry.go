// Package directive provides the name-keyed directive registry and the
// built-in generators (source, id, start, end, copy, copyValue, required,
// documentPath, default).
//
// Hosts extend the directive set by registering additional factories; the
// engine only ever sees core.Generator values.
package directive

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// Factory constructs a generator instance from its name and argument tokens.
type Factory func(name string, args []string) (core.Generator, error)

// OriginBuiltin marks definitions shipped with leapmodel.
const OriginBuiltin = "builtin"

// Definition describes a registered directive.
type Definition struct {
	Name    string
	Usage   string
	Summary string
	// Origin is OriginBuiltin or the file the directive was loaded from.
	Origin string
	New    Factory
}

// Registry maps directive names to their definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Default returns a registry holding the built-in directives.
func Default() *Registry {
	r := NewRegistry()
	for _, def := range builtins() {
		def.Origin = OriginBuiltin
		r.MustRegister(def)
	}
	return r
}

// Normalize strips the leading @ from a directive name.
func Normalize(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "@")
}

// Register adds a definition. Registering a name twice is an error.
func (r *Registry) Register(def Definition) error {
	name := Normalize(def.Name)
	if name == "" {
		return fmt.Errorf("directive name is required")
	}
	if def.New == nil {
		return fmt.Errorf("directive %q has no factory", name)
	}
	def.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.defs[name]; ok {
		return fmt.Errorf("directive %q already registered (%s)", name, existing.Origin)
	}
	r.defs[name] = def
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Has reports whether a directive is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[Normalize(name)]
	return ok
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[Normalize(name)]
	return def, ok
}

// New constructs a generator. An unknown name yields core.ErrUnknownDirective.
func (r *Registry) New(name string, args []string) (core.Generator, error) {
	name = Normalize(name)
	def, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: no generator factory found by name - %s", core.ErrUnknownDirective, name)
	}
	return def.New(name, append([]string(nil), args...))
}

// Names returns all registered names (sorted).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns all definitions sorted by name.
func (r *Registry) Definitions() []Definition {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.defs[name])
	}
	return defs
}
