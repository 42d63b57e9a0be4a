package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapmodel/internal/registry"
	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// state is the processing context of one Resolve call. It is the only
// implementation of core.Context handed to generators.
type state struct {
	engine   *Engine
	entities *registry.EntityRegistry
	scope    *core.Scope
	current  *core.Entity
	prop     *core.Prop
	pass     int
}

var _ core.Context = (*state)(nil)

func (e *Engine) newState(entities []*core.Entity) *state {
	reg := registry.NewEntityRegistry()
	reg.RegisterAll(entities)
	return &state{engine: e, entities: reg, scope: core.NewScope()}
}

func (s *state) Entities() []*core.Entity                 { return s.entities.All() }
func (s *state) Entity(name string) (*core.Entity, error) { return s.entities.Resolve(name) }
func (s *state) CurrentEntity() *core.Entity              { return s.current }
func (s *state) CurrentProp() *core.Prop                  { return s.prop }
func (s *state) Scope() *core.Scope                       { return s.scope }
func (s *state) Logger() *slog.Logger                     { return s.engine.logger }
func (s *state) Pass() int                                { return s.pass }

func (s *state) NewGenerator(name string, rawArgs []string) (core.Generator, error) {
	return s.engine.registry.New(name, rawArgs)
}

// AddProp is the shared add-property primitive. Every generator open on the
// scope is cloned onto the new property.
func (s *state) AddProp(e *core.Entity, p *core.Prop) error {
	if _, exists := e.Prop(p.Name); exists {
		return fmt.Errorf("%w: %s.%s", core.ErrDuplicateProp, e.Name, p.Name)
	}
	for _, g := range s.scope.Generators() {
		clone, err := s.engine.registry.New(g.Name(), g.RawArgs())
		if err != nil {
			return err
		}
		p.Generators = append(p.Generators, clone)
	}
	p.Resolved = false
	e.Props = append(e.Props, p)
	return nil
}

// depsReady reports whether every entity g depends on is resolved.
func (s *state) depsReady(g core.Generator) (bool, error) {
	deps, err := g.Deps(s)
	if err != nil {
		return false, err
	}
	for _, d := range deps {
		if !d.Resolved {
			return false, nil
		}
	}
	return true, nil
}

// resolveEntity runs one pass step for ent.
func (s *state) resolveEntity(ctx context.Context, ent *core.Entity) error {
	if ent.Resolved {
		return nil
	}
	if len(ent.Ops) == 0 {
		ent.Resolved = true
		return nil
	}

	s.current = ent
	s.prop = nil
	defer func() {
		s.current = nil
		s.prop = nil
	}()

	if !ent.OpDepsResolved {
		ready, err := s.applyOps(ctx, ent)
		if err != nil || !ready {
			return err
		}
	}

	resolved := true
	// props may grow while generators run
	for i := 0; i < len(ent.Props); i++ {
		p := ent.Props[i]
		if p.Resolved {
			continue
		}
		s.prop = p
		for _, g := range p.Generators {
			if g.Resolved() {
				continue
			}
			ready, err := s.depsReady(g)
			if err != nil {
				return s.fail(ent, p, g, err)
			}
			if !ready {
				continue
			}
			if err := g.Execute(ctx, s, p, nil); err != nil {
				return s.fail(ent, p, g, err)
			}
		}
		p.Resolved = p.AllResolved()
		resolved = resolved && p.Resolved
	}
	s.prop = nil

	if !resolved {
		return nil
	}
	ent.Resolved = true
	for _, p := range ent.Props {
		p.Materialize()
	}
	s.engine.logger.Debug("entity resolved", slog.String("entity", ent.Name), slog.Int("pass", s.pass))
	return nil
}

// applyOps applies ent's ops once every op generator's deps are resolved.
// It reports false when the entity must wait for a later pass.
func (s *state) applyOps(ctx context.Context, ent *core.Entity) (bool, error) {
	for _, op := range ent.Ops {
		for _, g := range op.Generators {
			ready, err := s.depsReady(g)
			if err != nil {
				return false, s.fail(ent, nil, g, err)
			}
			if !ready {
				return false, nil
			}
		}
	}

	for _, op := range ent.Ops {
		if op.IsProp() {
			if err := s.AddProp(ent, op.Prop); err != nil {
				return false, s.fail(ent, op.Prop, nil, err)
			}
			continue
		}
		for _, g := range op.Generators {
			if err := g.Execute(ctx, s, nil, op); err != nil {
				return false, s.fail(ent, nil, g, err)
			}
			if core.OpensScope(g) {
				break
			}
		}
	}

	ent.OpDepsResolved = true
	s.scope.Clear()
	return true, nil
}

func (s *state) fail(ent *core.Entity, p *core.Prop, g core.Generator, err error) error {
	rerr := &core.ResolveError{Entity: ent.Name, Location: ent.Location(), Err: err}
	if p != nil {
		rerr.Prop = p.Name
	}
	if g != nil {
		rerr.Directive = g.Name()
	}
	return rerr
}
