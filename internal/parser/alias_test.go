package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

func TestAliases_Expand(t *testing.T) {
	a := NewAliases(nil, 0)

	tests := []struct {
		in, want string
	}{
		{"@startSource pub", "@start @source pub"},
		{"@endSource pub", "@end source pub"},
		{"@startPublic", "@start @source public"},
		{"@endPublic", "@end source public"},
		{"name:string @public", "name:string @source public"},
		{"name:string @publicKey", "name:string @publicKey"},
		{"@copy User", "@copy User"},
	}
	for _, tt := range tests {
		got, err := a.Expand(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestAliases_Chained(t *testing.T) {
	a := NewAliases(map[string]string{
		"api":     "@public @required",
		"@strict": "@api @default x",
	}, 0)

	got, err := a.Expand("name:string @strict")
	require.NoError(t, err)
	assert.Equal(t, "name:string @source public @required @default x", got)
}

func TestAliases_SelfReferenceTerminates(t *testing.T) {
	a := NewAliases(map[string]string{"@loop": "@loop @source x"}, 5)

	_, err := a.Expand("@loop")
	assert.ErrorIs(t, err, core.ErrAliasLimit)
}

func TestAliases_MutualLoop(t *testing.T) {
	tests := []struct {
		name  string
		table map[string]string
		in    string
	}{
		{"pair", map[string]string{"@a": "@b", "@b": "@a"}, "@a"},
		{"pair from second", map[string]string{"@a": "@b", "@b": "@a"}, "name:string @b"},
		{"triangle", map[string]string{"@x": "@y", "@y": "@z", "@z": "@x"}, "@z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAliases(tt.table, 0).Expand(tt.in)
			assert.ErrorIs(t, err, core.ErrAliasLimit)
		})
	}
}

func TestAliases_IdentityIsFixedPoint(t *testing.T) {
	a := NewAliases(map[string]string{"@same": "@same"}, 3)

	got, err := a.Expand("@same")
	require.NoError(t, err)
	assert.Equal(t, "@same", got)
}

func TestAliases_Table(t *testing.T) {
	a := NewAliases(map[string]string{"x": "@source x"}, 0)
	table := a.Table()
	assert.Equal(t, "@source x", table["@x"])
	assert.Equal(t, "@source public", table["@public"])

	table["@public"] = "changed"
	assert.Equal(t, "@source public", a.Table()["@public"])
}
