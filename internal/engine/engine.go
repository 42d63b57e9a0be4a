// Package engine provides the directive resolution engine.
// It applies entity ops, runs pending generators pass after pass until every
// entity is resolved, then normalizes ids and value-type classification.
package engine

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/leapstack-labs/leapmodel/internal/dag"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/directive"
)

// DefaultMaxPasses is the pass ceiling used when Config.MaxPasses is zero.
const DefaultMaxPasses = 10000

// Dumper receives the full processing state when a run fails on the pass
// ceiling. Its error is logged, never returned.
type Dumper func(ctx context.Context, snap *Snapshot) error

// Engine resolves entity graphs.
type Engine struct {
	registry  *directive.Registry
	maxPasses int
	ids       IDHeuristic
	dumper    Dumper

	// Structured logger
	logger *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// MaxPasses bounds the number of sweeps (default 10000)
	MaxPasses int
	// IDHeuristic drives id inference after resolution
	IDHeuristic IDHeuristic
	// Dumper is called with a snapshot when MaxPasses is exceeded (optional)
	Dumper Dumper
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Result is a resolved entity graph.
type Result struct {
	// Entities sorted by name. Emitters must treat them as read-only.
	Entities []*core.Entity
	Passes   int
	Duration time.Duration
}

// New creates an engine. A nil registry uses the built-in directives.
func New(cfg Config, registry *directive.Registry) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if registry == nil {
		registry = directive.Default()
	}
	maxPasses := cfg.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	ids := cfg.IDHeuristic
	if ids.IsZero() {
		ids = DefaultIDHeuristic()
	}
	return &Engine{
		registry:  registry,
		maxPasses: maxPasses,
		ids:       ids,
		dumper:    cfg.Dumper,
		logger:    logger,
	}
}

// Registry returns the directive registry used to clone scoped generators.
func (e *Engine) Registry() *directive.Registry {
	return e.registry
}

// Resolve runs passes over entities until all of them are resolved.
// Entities are mutated in place. No result is returned on failure.
func (e *Engine) Resolve(ctx context.Context, entities []*core.Entity) (*Result, error) {
	started := time.Now()
	st := e.newState(entities)
	if dups := st.entities.Duplicates(); len(dups) > 0 {
		e.logger.Warn("duplicate entity names, copies from them will fail", slog.Any("names", dups))
	}

	e.logger.Debug("resolving entities", slog.Int("count", len(entities)), slog.Int("max_passes", e.maxPasses))

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, ent := range entities {
			if err := st.resolveEntity(ctx, ent); err != nil {
				e.logger.Debug("resolve failed", slog.Int("pass", st.pass), slog.String("error", err.Error()))
				return nil, err
			}
		}
		st.pass++

		pending := unresolved(entities)
		e.logger.Debug("pass complete", slog.Int("pass", st.pass), slog.Int("unresolved", len(pending)))
		if len(pending) == 0 {
			break
		}
		if st.pass > e.maxPasses {
			return nil, e.maxPassesError(ctx, st, pending)
		}
	}

	inferIDs(entities, e.ids)
	propagateValueTypes(st.entities)

	sorted := slices.Clone(entities)
	slices.SortStableFunc(sorted, func(a, b *core.Entity) int {
		return cmp.Compare(a.Name, b.Name)
	})

	res := &Result{Entities: sorted, Passes: st.pass, Duration: time.Since(started)}
	e.logger.Info("entities resolved",
		slog.Int("entities", len(sorted)),
		slog.Int("passes", res.Passes),
		slog.Duration("duration", res.Duration))
	return res, nil
}

func (e *Engine) maxPassesError(ctx context.Context, st *state, pending []string) error {
	merr := &core.MaxPassesError{MaxPasses: e.maxPasses, Unresolved: pending}

	if g, err := e.Graph(st.entities.All()); err == nil {
		if hasCycle, path := g.HasCycle(); hasCycle {
			merr.Cycle = path
		}
	}

	e.logger.Error("max resolve passes reached",
		slog.Int("max_passes", e.maxPasses),
		slog.Any("unresolved", pending),
		slog.Any("cycle", merr.Cycle))

	if e.dumper != nil {
		snap := NewSnapshot(st.entities.All(), st.pass, merr)
		if err := e.dumper(ctx, snap); err != nil {
			e.logger.Warn("failed to dump state", slog.String("error", err.Error()))
		}
	}
	return merr
}

// Graph builds the static entity dependency graph from every generator's
// deps. Names that do not match exactly one entity are a *core.ResolveError.
func (e *Engine) Graph(entities []*core.Entity) (*dag.Graph, error) {
	st := e.newState(entities)
	g := dag.NewGraph()
	for _, ent := range entities {
		g.AddNode(ent.Name, ent)
	}

	for _, ent := range entities {
		st.current = ent
		for _, gen := range generatorsOf(ent) {
			deps, err := gen.Deps(st)
			if err != nil {
				return nil, &core.ResolveError{Entity: ent.Name, Location: ent.Location(), Directive: gen.Name(), Err: err}
			}
			for _, dep := range deps {
				if err := g.AddEdge(dep.Name, ent.Name); err != nil {
					return nil, fmt.Errorf("entity %s: %w", ent.Name, err)
				}
			}
		}
	}
	return g, nil
}

// generatorsOf returns every generator declared by ent's ops and props.
func generatorsOf(ent *core.Entity) []core.Generator {
	var gens []core.Generator
	for _, op := range ent.Ops {
		gens = append(gens, op.Generators...)
		if op.Prop != nil {
			gens = append(gens, op.Prop.Generators...)
		}
	}
	for _, p := range ent.Props {
		gens = append(gens, p.Generators...)
	}
	return gens
}

func unresolved(entities []*core.Entity) []string {
	var names []string
	for _, ent := range entities {
		if !ent.Resolved {
			names = append(names, ent.Name)
		}
	}
	return names
}
