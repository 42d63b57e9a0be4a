package directive

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// AttrCopyFrom is appended to every copied property.
const AttrCopyFrom = "copyFrom"

// AllSources selects every property of the source entity.
const AllSources = "*"

type copyGenerator struct{ Base }

func newCopy(name string, args []string) (core.Generator, error) {
	return &copyGenerator{Base: NewBase(name, args)}, nil
}

func (g *copyGenerator) typeName() (string, error) {
	return g.RequireArg(0, "type")
}

func (g *copyGenerator) Deps(rc core.Context) ([]*core.Entity, error) {
	typeName, err := g.typeName()
	if err != nil {
		return nil, err
	}
	src, err := rc.Entity(typeName)
	if err != nil {
		return nil, err
	}
	return []*core.Entity{src}, nil
}

func (g *copyGenerator) Execute(_ context.Context, rc core.Context, _ *core.Prop, op *core.Op) error {
	if op == nil {
		return fmt.Errorf("%w: @%s must be applied to the entity", core.ErrScopeOutsideOp, g.Name())
	}
	typeName, err := g.typeName()
	if err != nil {
		return err
	}
	src, err := rc.Entity(typeName)
	if err != nil {
		return err
	}
	optional, err := g.BoolArg(4, "optional")
	if err != nil {
		return err
	}
	prefixID, err := g.BoolArg(-1, "prefixId")
	if err != nil {
		return err
	}
	forceTemplate, err := g.BoolArg(-1, "template")
	if err != nil {
		return err
	}
	source := g.Arg(1, "source")
	forward := g.Arg(2, "forward")
	prefix := g.Arg(3, "prefix")

	target := rc.CurrentEntity()
	for _, p := range src.Props {
		if source != "" && source != AllSources && !p.HasSource(source) {
			continue
		}
		name := p.Name
		if prefix != "" && (!p.IsID || prefixID) {
			name = prefix + UpperFirst(name)
		}
		if _, exists := target.Prop(name); exists {
			rc.Logger().Debug("copy skipped, property exists",
				slog.String("entity", target.Name),
				slog.String("prop", name),
				slog.String("from", src.Name))
			continue
		}

		clone := p.Clone()
		clone.Name = name
		clone.IsID = false
		clone.Sources = nil
		clone.CopySource = nil
		if forward != "" {
			clone.AddSource(forward)
		}
		if !src.IsTemplate && !forceTemplate {
			clone.CopySource = &core.CopySource{Entity: src.Name, Prop: p.Name, Optional: optional}
		}
		if optional {
			clone.Nullable = true
		}
		clone.AddAttr(AttrCopyFrom, map[string]string{"entity": src.Name, "prop": p.Name})

		if err := rc.AddProp(target, clone); err != nil {
			return err
		}
	}
	g.MarkResolved()
	return nil
}

// UpperFirst title-cases the first rune of s and keeps the rest as written.
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	// a Caser holds state, so each call gets its own
	return cases.Title(language.Und, cases.NoLower).String(s[:size]) + s[size:]
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
