package directive

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// Built-in directive names.
const (
	NameSource       = "source"
	NameID           = "id"
	NameStart        = "start"
	NameEnd          = "end"
	NameCopy         = "copy"
	NameCopyValue    = "copyValue"
	NameRequired     = "required"
	NameDocumentPath = "documentPath"
	NameDefault      = "default"
)

func builtins() []Definition {
	return []Definition{
		{
			Name:    NameSource,
			Usage:   "@source {group...}",
			Summary: "Adds the property to one or more source groups",
			New:     newSource,
		},
		{
			Name:    NameID,
			Usage:   "@id",
			Summary: "Marks the property as the entity id",
			New:     newID,
		},
		{
			Name:    NameStart,
			Usage:   "@start @directive...",
			Summary: "Applies the following directives to every property added until the matching @end",
			New:     newStart,
		},
		{
			Name:    NameEnd,
			Usage:   "@end {directive} {args...}",
			Summary: "Closes the most recent matching @start",
			New:     newEnd,
		},
		{
			Name:    NameCopy,
			Usage:   "@copy {type} {source} [forward] [prefix] [optional] [prefixId=bool] [template=bool]",
			Summary: "Copies the properties of a source group from another entity",
			New:     newCopy,
		},
		{
			Name:    NameCopyValue,
			Usage:   "@copyValue {type} [prop] [optional]",
			Summary: "Records that the property holds the value of another entity's property",
			New:     newCopyValue,
		},
		{
			Name:    NameRequired,
			Usage:   "@required",
			Summary: "Marks the property as required",
			New:     newRequired,
		},
		{
			Name:    NameDocumentPath,
			Usage:   "@documentPath {path}",
			Summary: "Sets the storage document path of the entity",
			New:     newDocumentPath,
		},
		{
			Name:    NameDefault,
			Usage:   "@default {value}",
			Summary: "Sets the default value of the property",
			New:     newDefault,
		},
	}
}

// --- source ---

type sourceGenerator struct{ Base }

func newSource(name string, args []string) (core.Generator, error) {
	return &sourceGenerator{Base: NewBase(name, args)}, nil
}

func (g *sourceGenerator) Execute(_ context.Context, _ core.Context, prop *core.Prop, _ *core.Op) error {
	if prop != nil {
		for _, s := range g.Args() {
			prop.AddSource(s)
		}
	}
	g.MarkResolved()
	return nil
}

// --- id ---

type idGenerator struct{ Base }

func newID(name string, args []string) (core.Generator, error) {
	return &idGenerator{Base: NewBase(name, args)}, nil
}

func (g *idGenerator) Execute(_ context.Context, rc core.Context, prop *core.Prop, _ *core.Op) error {
	entity := rc.CurrentEntity()
	if entity != nil && prop != nil {
		for _, other := range entity.Props {
			other.IsID = false
		}
		prop.IsID = true
	}
	g.MarkResolved()
	return nil
}

// --- required ---

type requiredGenerator struct{ Base }

func newRequired(name string, args []string) (core.Generator, error) {
	return &requiredGenerator{Base: NewBase(name, args)}, nil
}

func (g *requiredGenerator) Execute(_ context.Context, _ core.Context, prop *core.Prop, _ *core.Op) error {
	if prop != nil {
		prop.Required = true
	}
	g.MarkResolved()
	return nil
}

// --- default ---

type defaultGenerator struct{ Base }

func newDefault(name string, args []string) (core.Generator, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: @%s requires a value", core.ErrMissingArg, name)
	}
	return &defaultGenerator{Base: NewBase(name, args)}, nil
}

func (g *defaultGenerator) Execute(_ context.Context, _ core.Context, prop *core.Prop, _ *core.Op) error {
	if prop != nil {
		prop.DefaultValue = strings.Join(g.RawArgs(), " ")
	}
	g.MarkResolved()
	return nil
}

// --- documentPath ---

type documentPathGenerator struct{ Base }

func newDocumentPath(name string, args []string) (core.Generator, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: @%s requires a path", core.ErrMissingArg, name)
	}
	return &documentPathGenerator{Base: NewBase(name, args)}, nil
}

func (g *documentPathGenerator) Execute(_ context.Context, rc core.Context, _ *core.Prop, _ *core.Op) error {
	if entity := rc.CurrentEntity(); entity != nil {
		entity.DocumentPath = strings.Join(g.RawArgs(), " ")
	}
	g.MarkResolved()
	return nil
}
