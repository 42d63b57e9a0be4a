package starlark

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmodel/internal/engine"
	"github.com/leapstack-labs/leapmodel/internal/parser"
	"github.com/leapstack-labs/leapmodel/internal/testutil"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/directive"
)

const auditStar = `
DEPS = {"ref": 0}

def audit(ctx):
    """Records where the property was declared."""
    print("auditing", ctx.prop.name)
    return {
        "audit": ctx.entity.name + "." + ctx.prop.name,
        "level": ctx.kwargs.get("level", "low"),
        "value": is_value_type(ctx.prop.type_name),
    }

def ref(ctx):
    return {"ref": upper_first(ctx.args[0])}

def noop(ctx):
    return None

def bad(ctx):
    return 42

def _private(ctx):
    return None
`

func writeStar(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func setupRegistry(t *testing.T) *directive.Registry {
	t.Helper()
	dir := t.TempDir()
	writeStar(t, dir, "audit.star", auditStar)

	reg := directive.Default()
	modules, err := LoadAndRegister(dir, reg, testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.Len(t, modules, 1)
	return reg
}

func resolve(t *testing.T, reg *directive.Registry, decls ...[]string) (*engine.Result, error) {
	t.Helper()
	p := parser.New(reg, nil)
	var entities []*core.Entity
	for i, d := range decls {
		e, err := p.ParseEntity(d[0], d[1:], "test", i+1)
		require.NoError(t, err)
		entities = append(entities, e)
	}
	return engine.New(engine.Config{Logger: testutil.NewTestLogger(t)}, reg).Resolve(context.Background(), entities)
}

func TestRegister_Definitions(t *testing.T) {
	reg := setupRegistry(t)

	for _, name := range []string{"audit", "ref", "noop", "bad"} {
		assert.True(t, reg.Has(name), name)
	}
	assert.False(t, reg.Has("_private"))
	assert.False(t, reg.Has("DEPS"))

	def, ok := reg.Get("audit")
	require.True(t, ok)
	assert.Equal(t, "Records where the property was declared.", def.Summary)
	assert.Equal(t, "audit.star", filepath.Base(def.Origin))
}

func TestHostDirective_Attributes(t *testing.T) {
	reg := setupRegistry(t)

	res, err := resolve(t, reg, []string{"User", "name:string @audit level=high", "age:int @audit"})
	require.NoError(t, err)

	props := res.Entities[0].Props
	assert.Equal(t, map[string]any{"audit": "User.name", "level": "high", "value": true}, props[0].Atts)
	assert.Equal(t, "low", props[1].Atts["level"])
}

func TestHostDirective_ScopedAndDeps(t *testing.T) {
	reg := setupRegistry(t)

	res, err := resolve(t, reg,
		[]string{"Post", "@start @ref author", "authorId:string", "@end ref author"},
		[]string{"author", "id:string"},
	)
	require.NoError(t, err)

	var post *core.Entity
	for _, e := range res.Entities {
		if e.Name == "Post" {
			post = e
		}
	}
	require.NotNil(t, post)
	assert.Equal(t, "Author", post.Props[0].Atts["ref"])
}

func TestHostDirective_MissingDepArg(t *testing.T) {
	reg := setupRegistry(t)

	_, err := resolve(t, reg, []string{"Post", "x:string @ref"})
	assert.ErrorIs(t, err, core.ErrMissingArg)
}

func TestHostDirective_BadReturn(t *testing.T) {
	reg := setupRegistry(t)

	_, err := resolve(t, reg, []string{"Post", "x:string @bad"})
	assert.ErrorIs(t, err, core.ErrMalformedArg)
}

func TestHostDirective_EntityLevel(t *testing.T) {
	reg := setupRegistry(t)

	_, err := resolve(t, reg, []string{"Post", "@noop", "x:string"})
	require.NoError(t, err)

	_, err = resolve(t, reg, []string{"Post", "@audit"})
	require.Error(t, err)
	var callErr *CallError
	assert.True(t, errors.As(err, &callErr), "ctx.prop is None at entity level")
}

func TestHostDirective_Canceled(t *testing.T) {
	reg := setupRegistry(t)
	g, err := reg.New("noop", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Execute(ctx, nil, nil, nil), context.Canceled)
}

func TestRegister_ConflictWithBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeStar(t, dir, "clash.star", "def copy(ctx):\n    return None\n")

	_, err := LoadAndRegister(dir, directive.Default(), nil)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "clash.star")
	assert.Contains(t, err.Error(), "already registered")
}
