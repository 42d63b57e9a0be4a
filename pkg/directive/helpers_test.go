package directive_test

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/directive"
)

// fakeContext is a minimal core.Context for exercising generators in isolation.
type fakeContext struct {
	entities []*core.Entity
	current  *core.Entity
	prop     *core.Prop
	scope    *core.Scope
	reg      *directive.Registry
}

func newFakeContext(entities ...*core.Entity) *fakeContext {
	rc := &fakeContext{entities: entities, scope: core.NewScope(), reg: directive.Default()}
	if len(entities) > 0 {
		rc.current = entities[0]
	}
	return rc
}

func (f *fakeContext) Entities() []*core.Entity { return f.entities }

func (f *fakeContext) Entity(name string) (*core.Entity, error) {
	var found []*core.Entity
	for _, e := range f.entities {
		if e.Name == name {
			found = append(found, e)
		}
	}
	if len(found) != 1 {
		return nil, fmt.Errorf("%w: %s matched %d", core.ErrSourceEntity, name, len(found))
	}
	return found[0], nil
}

func (f *fakeContext) CurrentEntity() *core.Entity { return f.current }
func (f *fakeContext) CurrentProp() *core.Prop     { return f.prop }
func (f *fakeContext) Scope() *core.Scope          { return f.scope }
func (f *fakeContext) Logger() *slog.Logger        { return slog.New(slog.DiscardHandler) }
func (f *fakeContext) Pass() int                   { return 1 }

func (f *fakeContext) AddProp(e *core.Entity, p *core.Prop) error {
	if _, ok := e.Prop(p.Name); ok {
		return fmt.Errorf("%w: %s", core.ErrDuplicateProp, p.Name)
	}
	for _, g := range f.scope.Generators() {
		clone, err := f.reg.New(g.Name(), g.RawArgs())
		if err != nil {
			return err
		}
		p.Generators = append(p.Generators, clone)
	}
	e.Props = append(e.Props, p)
	return nil
}

func (f *fakeContext) NewGenerator(name string, rawArgs []string) (core.Generator, error) {
	return f.reg.New(name, rawArgs)
}

func mustNew(reg *directive.Registry, name string, args ...string) core.Generator {
	g, err := reg.New(name, args)
	if err != nil {
		panic(err)
	}
	return g
}

func entity(name string, props ...*core.Prop) *core.Entity {
	e := core.NewEntity(name, core.KindInterface)
	e.Props = props
	return e
}

func prop(name, typeName string, sources ...string) *core.Prop {
	return &core.Prop{Name: name, TypeName: typeName, Type: core.ClassifyType(typeName), Sources: sources}
}
