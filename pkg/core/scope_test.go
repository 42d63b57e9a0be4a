package core_test

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/stretchr/testify/assert"
)

// stubGen is a minimal Generator for scope tests.
type stubGen struct {
	name string
	args []string
}

func (g *stubGen) Name() string                              { return g.name }
func (g *stubGen) Args() []string                            { return g.args }
func (g *stubGen) RawArgs() []string                         { return g.args }
func (g *stubGen) Arg(int, string) string                    { return "" }
func (g *stubGen) Resolved() bool                            { return true }
func (g *stubGen) Deps(core.Context) ([]*core.Entity, error) { return nil, nil }
func (g *stubGen) Execute(context.Context, core.Context, *core.Prop, *core.Op) error {
	return nil
}

func TestScope_PopMatchingRemovesMostRecent(t *testing.T) {
	s := core.NewScope()
	first := &stubGen{name: "source", args: []string{"pub"}}
	other := &stubGen{name: "source", args: []string{"internal"}}
	second := &stubGen{name: "source", args: []string{"pub"}}
	s.Push(first)
	s.Push(other)
	s.Push(second)

	assert.True(t, s.PopMatching("source", []string{"pub"}))
	assert.Equal(t, []core.Generator{first, other}, s.Generators())

	assert.False(t, s.PopMatching("source", []string{"missing"}))
	assert.False(t, s.PopMatching("source", nil), "argument lists must match in full")
	assert.Equal(t, 2, s.Len())
}

func TestScope_Clear(t *testing.T) {
	s := core.NewScope()
	s.Push(&stubGen{name: "required"})
	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Generators())
}
