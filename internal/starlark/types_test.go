package starlark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

func TestGoToStarlark_RoundTrip(t *testing.T) {
	in := map[string]any{
		"s":    "x",
		"i":    int64(3),
		"f":    1.5,
		"b":    true,
		"list": []any{"a", int64(1)},
		"nil":  nil,
	}
	sv, err := GoToStarlark(in)
	require.NoError(t, err)

	out, err := ToGo(sv)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestGoToStarlark_Unsupported(t *testing.T) {
	_, err := GoToStarlark(struct{}{})
	assert.Error(t, err)

	_, err = GoToStarlark(map[string]any{"k": []int{1}})
	assert.ErrorContains(t, err, `dict key "k"`)
}

func TestToGo_Tuple(t *testing.T) {
	out, err := ToGo(starlark.Tuple{starlark.String("a"), starlark.MakeInt(2)})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", int64(2)}, out)
}

func TestToGo_NonStringKey(t *testing.T) {
	d := starlark.NewDict(1)
	require.NoError(t, d.SetKey(starlark.MakeInt(1), starlark.None))
	_, err := ToGo(d)
	assert.Error(t, err)
}

func TestEntityAndPropToStarlark(t *testing.T) {
	e := core.NewEntity("User", core.KindInterface)
	e.DocumentPath = "/users/{userId}"
	p := &core.Prop{Name: "tags", Type: core.TypeString, TypeName: "string", Collection: true, Sources: []string{"pub"}}
	e.Props = []*core.Prop{p}

	ev, ok := EntityToStarlark(e).(*starlarkstruct.Struct)
	require.True(t, ok)
	name, err := ev.Attr("name")
	require.NoError(t, err)
	assert.Equal(t, starlark.String("User"), name)
	path, err := ev.Attr("document_path")
	require.NoError(t, err)
	assert.Equal(t, starlark.String("/users/{userId}"), path)

	pv, ok := PropToStarlark(p).(*starlarkstruct.Struct)
	require.True(t, ok)
	coll, err := pv.Attr("collection")
	require.NoError(t, err)
	assert.Equal(t, starlark.True, coll)
	sources, err := pv.Attr("sources")
	require.NoError(t, err)
	assert.Equal(t, `["pub"]`, sources.String())

	p.AddAttr("max", int64(3))
	p.AddAttr("copyFrom", map[string]string{"entity": "Account", "prop": "tags"})
	p.AddAttr("max", int64(5))
	p.AddAttr("since", struct{ Year int }{2024})
	pv, ok = PropToStarlark(p).(*starlarkstruct.Struct)
	require.True(t, ok)
	raw, err := pv.Attr("attrs")
	require.NoError(t, err)
	attrs, ok := raw.(*starlark.Dict)
	require.True(t, ok)
	assert.Equal(t, 3, attrs.Len())

	maxVal, found, err := attrs.Get(starlark.String("max"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "5", maxVal.String())

	copyFrom, _, err := attrs.Get(starlark.String("copyFrom"))
	require.NoError(t, err)
	entity, _, err := copyFrom.(*starlark.Dict).Get(starlark.String("entity"))
	require.NoError(t, err)
	assert.Equal(t, starlark.String("Account"), entity)

	since, _, err := attrs.Get(starlark.String("since"))
	require.NoError(t, err)
	assert.Equal(t, starlark.String("{2024}"), since)

	assert.Equal(t, starlark.None, PropToStarlark(nil))
	assert.Equal(t, starlark.None, EntityToStarlark(nil))
}
