package starlark

import (
	"context"
	"fmt"
	"log/slog"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/directive"
)

// noDep marks a function without an entity dependency.
const noDep = -1

// CallError is returned when a directive function fails.
type CallError struct {
	File      string
	Directive string
	Err       error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: @%s: %v", e.File, e.Directive, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// hostGenerator runs a Starlark function as a generator.
type hostGenerator struct {
	directive.Base
	fn     starlark.Callable
	file   string
	depArg int
	pool   *ThreadPool
}

func (g *hostGenerator) Deps(rc core.Context) ([]*core.Entity, error) {
	if g.depArg == noDep {
		return nil, nil
	}
	name := g.Arg(g.depArg, "")
	if name == "" {
		return nil, fmt.Errorf("%w: @%s expects an entity name at position %d", core.ErrMissingArg, g.Name(), g.depArg)
	}
	e, err := rc.Entity(name)
	if err != nil {
		return nil, err
	}
	return []*core.Entity{e}, nil
}

func (g *hostGenerator) Execute(ctx context.Context, rc core.Context, prop *core.Prop, _ *core.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	thread := g.pool.Get(g.Name())
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	res, err := starlark.Call(thread, g.fn, starlark.Tuple{g.callContext(rc, prop)}, nil)
	if stop() {
		g.pool.Put(thread)
	}
	if err != nil {
		return &CallError{File: g.file, Directive: g.Name(), Err: err}
	}

	switch v := res.(type) {
	case starlark.NoneType:
	case *starlark.Dict:
		if prop == nil {
			return fmt.Errorf("%w: @%s returned attributes outside a property", core.ErrMalformedArg, g.Name())
		}
		for _, item := range v.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return fmt.Errorf("%w: @%s attribute names must be strings, got %s", core.ErrMalformedArg, g.Name(), item[0].Type())
			}
			value, err := ToGo(item[1])
			if err != nil {
				return &CallError{File: g.file, Directive: g.Name(), Err: err}
			}
			prop.AddAttr(string(key), value)
		}
	default:
		return fmt.Errorf("%w: @%s must return None or a dict, got %s", core.ErrMalformedArg, g.Name(), res.Type())
	}

	g.MarkResolved()
	return nil
}

// callContext builds the ctx argument: entity, prop, args, kwargs and pass.
func (g *hostGenerator) callContext(rc core.Context, prop *core.Prop) starlark.Value {
	kwargs := starlark.NewDict(0)
	for k, v := range g.NamedArgs() {
		_ = kwargs.SetKey(starlark.String(k), starlark.String(v))
	}
	return starlarkstruct.FromStringDict(starlark.String("ctx"), starlark.StringDict{
		"entity": EntityToStarlark(rc.CurrentEntity()),
		"prop":   PropToStarlark(prop),
		"args":   stringList(g.Args()),
		"kwargs": kwargs,
		"pass":   starlark.MakeInt(rc.Pass()),
	})
}

// Register adds every function of modules to reg. A name already registered,
// built-in or from another file, is an error.
func Register(reg *directive.Registry, modules []*Module, pool *ThreadPool) error {
	for _, m := range modules {
		for _, name := range m.FunctionNames() {
			fn := m.Functions[name]
			depArg, ok := m.Deps[name]
			if !ok {
				depArg = noDep
			}
			file := m.Path

			summary := ""
			if f, ok := fn.(*starlark.Function); ok {
				summary = f.Doc()
			}

			err := reg.Register(directive.Definition{
				Name:    name,
				Usage:   "@" + name + " {args...}",
				Summary: summary,
				Origin:  file,
				New: func(name string, args []string) (core.Generator, error) {
					return &hostGenerator{
						Base:   directive.NewBase(name, args),
						fn:     fn,
						file:   file,
						depArg: depArg,
						pool:   pool,
					}, nil
				},
			})
			if err != nil {
				return &LoadError{File: file, Message: err.Error()}
			}
		}
	}
	return nil
}

// LoadAndRegister loads every directive file in dir into reg.
func LoadAndRegister(dir string, reg *directive.Registry, logger *slog.Logger) ([]*Module, error) {
	if dir == "" {
		return nil, nil
	}
	modules, err := NewLoader(dir).Load()
	if err != nil {
		return nil, err
	}
	if err := Register(reg, modules, NewThreadPool(0, logger)); err != nil {
		return nil, err
	}
	if logger != nil && len(modules) > 0 {
		logger.Debug("loaded host directives", slog.String("dir", dir), slog.Int("files", len(modules)))
	}
	return modules, nil
}
