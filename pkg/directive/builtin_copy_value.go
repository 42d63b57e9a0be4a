package directive

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

type copyValueGenerator struct{ Base }

func newCopyValue(name string, args []string) (core.Generator, error) {
	return &copyValueGenerator{Base: NewBase(name, args)}, nil
}

func (g *copyValueGenerator) Deps(rc core.Context) ([]*core.Entity, error) {
	typeName, err := g.RequireArg(0, "type")
	if err != nil {
		return nil, err
	}
	src, err := rc.Entity(typeName)
	if err != nil {
		return nil, err
	}
	return []*core.Entity{src}, nil
}

func (g *copyValueGenerator) Execute(_ context.Context, rc core.Context, prop *core.Prop, _ *core.Op) error {
	if prop == nil {
		g.MarkResolved()
		return nil
	}
	typeName, err := g.RequireArg(0, "type")
	if err != nil {
		return err
	}
	src, err := rc.Entity(typeName)
	if err != nil {
		return err
	}
	optional, err := g.BoolArg(2, "optional")
	if err != nil {
		return err
	}
	name := g.Arg(1, "prop")
	if name == "" {
		name = prop.Name
	}
	if _, ok := src.Prop(name); !ok {
		return fmt.Errorf("%w: @%s %s has no property %q", core.ErrMalformedArg, g.Name(), src.Name, name)
	}
	if err := prop.SetCopySource(core.CopySource{Entity: src.Name, Prop: name, Optional: optional}); err != nil {
		return err
	}
	if optional {
		prop.Nullable = true
	}
	g.MarkResolved()
	return nil
}
