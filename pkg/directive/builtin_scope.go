package directive

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

type startGenerator struct{ Base }

func newStart(name string, args []string) (core.Generator, error) {
	return &startGenerator{Base: NewBase(name, args)}, nil
}

// OpensScope stops op execution after start.
func (g *startGenerator) OpensScope() bool { return true }

func (g *startGenerator) Execute(_ context.Context, rc core.Context, _ *core.Prop, op *core.Op) error {
	if op == nil {
		return fmt.Errorf("%w: @%s", core.ErrScopeOutsideOp, g.Name())
	}
	self := -1
	for i, other := range op.Generators {
		if other == core.Generator(g) {
			self = i
			break
		}
	}
	if self >= 0 {
		for _, listener := range op.Generators[self+1:] {
			if r, ok := listener.(resolver); ok {
				r.MarkResolved()
			}
			rc.Scope().Push(listener)
		}
	}
	g.MarkResolved()
	return nil
}

type endGenerator struct{ Base }

func newEnd(name string, args []string) (core.Generator, error) {
	return &endGenerator{Base: NewBase(name, args)}, nil
}

func (g *endGenerator) Execute(_ context.Context, rc core.Context, _ *core.Prop, op *core.Op) error {
	if op == nil {
		return fmt.Errorf("%w: @%s", core.ErrScopeOutsideOp, g.Name())
	}
	args := g.Args()
	if len(args) == 0 {
		return fmt.Errorf("%w: @%s requires the name of the directive to close", core.ErrMissingArg, g.Name())
	}
	name := Normalize(args[0])
	if !rc.Scope().PopMatching(name, args[1:]) {
		return fmt.Errorf("%w: @%s %s", core.ErrUnmatchedEnd, name, joinArgs(args[1:]))
	}
	g.MarkResolved()
	return nil
}
