package core

import (
	"context"
	"log/slog"
)

// Generator is a named, parametrized unit of graph mutation.
//
// The engine only ever calls Deps and Execute. Execute receives either a
// property or an op, never both. A generator must eventually report
// Resolved() == true, and must never go back to unresolved.
type Generator interface {
	// Name is the registry name the generator was constructed under.
	Name() string
	// Args returns positional arguments, with key=value tokens removed.
	Args() []string
	// RawArgs returns the argument tokens as written, used to clone the generator.
	RawArgs() []string
	// Arg returns the named argument if present, else the positional argument
	// at index (or "" when out of range). Pass index < 0 to only consult name.
	Arg(index int, name string) string
	// Resolved reports whether the generator has completed its work.
	Resolved() bool
	// Deps returns the entities that must be resolved before Execute may run.
	Deps(rc Context) ([]*Entity, error)
	// Execute performs the mutation.
	Execute(ctx context.Context, rc Context, prop *Prop, op *Op) error
}

// ScopeOpener is implemented by generators that move the rest of their op onto
// the scope stack. Op execution stops after such a generator.
type ScopeOpener interface {
	OpensScope() bool
}

// OpensScope reports whether g implements ScopeOpener and opens a scope.
func OpensScope(g Generator) bool {
	so, ok := g.(ScopeOpener)
	return ok && so.OpensScope()
}

// Context is the processing state visible to generators.
// It is owned by the engine; generators mutate only the entities and
// properties handed to them and the scope via Push/PopMatching.
type Context interface {
	// Entities returns all entities in registration order.
	Entities() []*Entity
	// Entity returns the single entity with the given name.
	// Zero or multiple matches yield an ErrSourceEntity error.
	Entity(name string) (*Entity, error)
	// CurrentEntity is the entity being processed.
	CurrentEntity() *Entity
	// CurrentProp is the property being processed, nil during op application.
	CurrentProp() *Prop
	// Scope is the open scope stack.
	Scope() *Scope
	// AddProp appends a property to an entity through the shared primitive.
	AddProp(e *Entity, p *Prop) error
	// NewGenerator constructs a generator through the directive registry.
	NewGenerator(name string, rawArgs []string) (Generator, error)
	// Logger returns the run logger.
	Logger() *slog.Logger
	// Pass returns the current pass index.
	Pass() int
}

// GeneratorInfo is the serializable view of a generator used in state dumps.
type GeneratorInfo struct {
	Name     string   `json:"name"`
	Args     []string `json:"args,omitempty"`
	Resolved bool     `json:"resolved"`
}

// DescribeGenerators converts generators to their serializable view.
func DescribeGenerators(gens []Generator) []GeneratorInfo {
	if len(gens) == 0 {
		return nil
	}
	out := make([]GeneratorInfo, len(gens))
	for i, g := range gens {
		out[i] = GeneratorInfo{Name: g.Name(), Args: g.RawArgs(), Resolved: g.Resolved()}
	}
	return out
}
