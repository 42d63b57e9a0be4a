package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/directive"
)

func newTestParser() *Parser {
	return New(directive.Default(), nil)
}

func TestParser_ParseOp_Prop(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind core.EntityKind
		want core.Prop
	}{
		{
			name: "value type",
			text: "name:string",
			want: core.Prop{Name: "name", TypeName: "string", Type: core.TypeString, IsValueType: true},
		},
		{
			name: "nullable collection",
			text: "tags: string[]?",
			want: core.Prop{Name: "tags", TypeName: "string", Type: core.TypeString, IsValueType: true, Collection: true, Nullable: true},
		},
		{
			name: "pointer",
			text: "owner:*User",
			want: core.Prop{Name: "owner", TypeName: "User", Type: core.TypeOther, Pointer: true},
		},
		{
			name: "query pointer",
			text: "posts:**Post[]",
			want: core.Prop{Name: "posts", TypeName: "Post", Type: core.TypeOther, QueryPointer: true, Collection: true},
		},
		{
			name: "union member defaults to string",
			text: "active",
			kind: core.KindUnion,
			want: core.Prop{Name: "active", TypeName: "string", Type: core.TypeString, IsValueType: true},
		},
		{
			name: "enum member defaults to string",
			text: "red",
			kind: core.KindEnum,
			want: core.Prop{Name: "red", TypeName: "string", Type: core.TypeString, IsValueType: true},
		},
		{
			name: "id name is flagged",
			text: "ID:string",
			want: core.Prop{Name: "ID", TypeName: "string", Type: core.TypeString, IsValueType: true, IsID: true},
		},
		{
			name: "enum member named id is a value",
			text: "id",
			kind: core.KindEnum,
			want: core.Prop{Name: "id", TypeName: "string", Type: core.TypeString, IsValueType: true},
		},
		{
			name: "suffixed id is left to inference",
			text: "userId:string",
			want: core.Prop{Name: "userId", TypeName: "string", Type: core.TypeString, IsValueType: true},
		},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind := tt.kind
			if kind == "" {
				kind = core.KindInterface
			}
			op, err := p.ParseOp(tt.text, kind)
			require.NoError(t, err)
			require.NotNil(t, op)
			require.True(t, op.IsProp())
			assert.Empty(t, op.Generators)
			assert.Equal(t, tt.want, *op.Prop)
		})
	}
}

func TestParser_WithIDNames(t *testing.T) {
	p := newTestParser().WithIDNames([]string{"key"})

	op, err := p.ParseOp("key:string", core.KindInterface)
	require.NoError(t, err)
	assert.True(t, op.Prop.IsID)

	op, err = p.ParseOp("id:string", core.KindInterface)
	require.NoError(t, err)
	assert.False(t, op.Prop.IsID)

	op, err = newTestParser().WithIDNames(nil).ParseOp("id:string", core.KindInterface)
	require.NoError(t, err)
	assert.False(t, op.Prop.IsID)
}

func TestParser_ParseOp_PropDirectives(t *testing.T) {
	p := newTestParser()

	op, err := p.ParseOp("email:string @source pub api @required # contact address", core.KindInterface)
	require.NoError(t, err)
	require.True(t, op.IsProp())

	assert.Equal(t, "contact address", op.Comment)
	assert.Equal(t, "contact address", op.Prop.Comment)
	require.Len(t, op.Prop.Generators, 2)
	assert.Equal(t, "source", op.Prop.Generators[0].Name())
	assert.Equal(t, []string{"pub", "api"}, op.Prop.Generators[0].Args())
	assert.Equal(t, "required", op.Prop.Generators[1].Name())
}

func TestParser_ParseOp_DirectiveOp(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		text     string
		boundary core.Boundary
		names    []string
	}{
		{"@copy User pub", core.BoundaryNone, []string{"copy"}},
		{"@start @source pub @required", core.BoundaryStart, []string{"start", "source", "required"}},
		{"@end source pub", core.BoundaryEnd, []string{"end"}},
		{"@startSource pub", core.BoundaryStart, []string{"start", "source"}},
		{"@endPublic", core.BoundaryEnd, []string{"end"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			op, err := p.ParseOp(tt.text, core.KindInterface)
			require.NoError(t, err)
			require.False(t, op.IsProp())
			assert.Equal(t, tt.boundary, op.Boundary)

			var names []string
			for _, g := range op.Generators {
				names = append(names, g.Name())
			}
			assert.Equal(t, tt.names, names)
		})
	}
}

func TestParser_ParseOp_EndPublicArgs(t *testing.T) {
	op, err := newTestParser().ParseOp("@endPublic", core.KindInterface)
	require.NoError(t, err)
	require.Len(t, op.Generators, 1)
	assert.Equal(t, []string{"source", "public"}, op.Generators[0].Args())
}

func TestParser_ParseOp_DocumentPath(t *testing.T) {
	op, err := newTestParser().ParseOp("/users/{userId}", core.KindInterface)
	require.NoError(t, err)
	require.Len(t, op.Generators, 1)
	assert.Equal(t, directive.NameDocumentPath, op.Generators[0].Name())
	assert.Equal(t, []string{"/users/{userId}"}, op.Generators[0].Args())
}

func TestParser_ParseOp_Blank(t *testing.T) {
	p := newTestParser()
	for _, text := range []string{"", "   ", "# just a note"} {
		op, err := p.ParseOp(text, core.KindInterface)
		require.NoError(t, err)
		assert.Nil(t, op, text)
	}
}

func TestParser_ParseOp_Errors(t *testing.T) {
	p := newTestParser()

	_, err := p.ParseOp("name", core.KindInterface)
	assert.ErrorIs(t, err, core.ErrUntypedProp)

	_, err = p.ParseOp("name:string @bogus", core.KindInterface)
	assert.ErrorIs(t, err, core.ErrUnknownDirective)

	_, err = p.ParseOp("@nope x", core.KindInterface)
	assert.ErrorIs(t, err, core.ErrUnknownDirective)
}

func TestParser_ParseEntityHeader(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		text string
		want Header
	}{
		{"User", Header{Name: "User", Kind: core.KindInterface}},
		{"Status:enum", Header{Name: "Status", Kind: core.KindEnum}},
		{"Base:interface:template", Header{Name: "Base", Kind: core.KindInterface, IsTemplate: true}},
		{"User:interface\u2028/users/{userId}", Header{Name: "User", Kind: core.KindInterface, DocumentPath: "/users/{userId}"}},
		{" Email : typeDef \n", Header{Name: "Email", Kind: core.KindTypeDef}},
	}
	for _, tt := range tests {
		got, err := p.ParseEntityHeader(tt.text)
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}

	_, err := p.ParseEntityHeader("User:class")
	assert.ErrorIs(t, err, core.ErrUnknownKind)

	_, err = p.ParseEntityHeader("User:interface:abstract")
	assert.ErrorIs(t, err, core.ErrMalformedArg)

	_, err = p.ParseEntityHeader("  ")
	assert.Error(t, err)
}

func TestParser_ParseEntity(t *testing.T) {
	p := newTestParser()

	e, err := p.ParseEntity("User", []string{
		"id:string",
		"name:string @source pub\u2028email:string?",
		"",
		"@copy Base",
	}, "models.csv", 4)
	require.NoError(t, err)

	assert.Equal(t, "User", e.Name)
	assert.Equal(t, core.KindInterface, e.Kind)
	assert.Equal(t, "models.csv", e.File)
	assert.Equal(t, 4, e.Line)
	require.Len(t, e.Ops, 4)
	assert.Equal(t, "id", e.Ops[0].Prop.Name)
	assert.Equal(t, "name", e.Ops[1].Prop.Name)
	assert.Equal(t, "email", e.Ops[2].Prop.Name)
	assert.True(t, e.Ops[2].Prop.Nullable)
	assert.False(t, e.Ops[3].IsProp())
	assert.Empty(t, e.Props)
	assert.False(t, e.Resolved)
}

func TestParser_ParseEntity_Error(t *testing.T) {
	p := newTestParser()

	_, err := p.ParseEntity("User", []string{"ok:string", "broken"}, "models.yaml", 3)
	require.Error(t, err)

	var perr *core.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "User", perr.Entity)
	assert.Equal(t, "broken", perr.Text)
	assert.ErrorIs(t, err, core.ErrUntypedProp)
	assert.Equal(t, `models.yaml:3: entity User: property type expected: broken (in "broken")`, err.Error())
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitLines("a\u2028b\n\n  c  "))
	assert.Empty(t, SplitLines(" \n "))
}
