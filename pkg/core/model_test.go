package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    EntityKind
		wantErr bool
	}{
		{in: "", want: KindInterface},
		{in: "interface", want: KindInterface},
		{in: " enum ", want: KindEnum},
		{in: "union", want: KindUnion},
		{in: "typeDef", want: KindTypeDef},
		{in: "struct", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownKind))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyType(t *testing.T) {
	assert.Equal(t, TypeInt, ClassifyType("int"))
	assert.Equal(t, TypeTimestamp, ClassifyType("timestamp"))
	assert.Equal(t, TypeOther, ClassifyType("User"))
	assert.Equal(t, TypeOther, ClassifyType("String"))
}

func TestProp_AddSourceIsIdempotent(t *testing.T) {
	p := &Prop{Name: "name"}
	p.AddSource("pub")
	p.AddSource("pub")
	p.AddSource("internal")

	assert.Equal(t, []string{"pub", "internal"}, p.Sources)
	assert.True(t, p.HasSource("internal"))
	assert.False(t, p.HasSource("other"))
}

func TestProp_SetCopySourceOnce(t *testing.T) {
	p := &Prop{Name: "name"}
	require.NoError(t, p.SetCopySource(CopySource{Entity: "A", Prop: "name"}))

	err := p.SetCopySource(CopySource{Entity: "B", Prop: "name"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCopySourceSet))
	assert.Equal(t, "A", p.CopySource.Entity, "first copy source must be kept")
}

func TestProp_MaterializeLaterWritesWin(t *testing.T) {
	p := &Prop{Name: "name"}
	p.AddAttr("label", "first")
	p.AddAttr("max", 10)
	p.AddAttr("label", "second")

	p.Materialize()

	assert.Equal(t, map[string]any{"label": "second", "max": 10}, p.Atts)
	assert.Len(t, p.Attrs, 3, "attribute list keeps every write")
}

func TestProp_CloneIsIndependent(t *testing.T) {
	orig := &Prop{
		Name:       "name",
		Type:       TypeString,
		TypeName:   "string",
		Sources:    []string{"pub"},
		Attrs:      []Attribute{{Name: "label", Value: "Name"}},
		CopySource: &CopySource{Entity: "Base", Prop: "name"},
		Resolved:   true,
	}

	c := orig.Clone()
	c.Sources[0] = "changed"
	c.Attrs[0].Value = "changed"
	c.CopySource.Entity = "changed"
	c.AddAttr("extra", true)

	assert.Equal(t, "pub", orig.Sources[0])
	assert.Equal(t, "Name", orig.Attrs[0].Value)
	assert.Equal(t, "Base", orig.CopySource.Entity)
	assert.Len(t, orig.Attrs, 1)
	assert.False(t, c.Resolved)
	assert.Nil(t, c.Generators)
}

func TestEntity_PropLookup(t *testing.T) {
	e := NewEntity("User", KindInterface)
	e.Props = []*Prop{{Name: "id", IsID: true}, {Name: "name"}}

	p, ok := e.Prop("name")
	require.True(t, ok)
	assert.Equal(t, "name", p.Name)

	_, ok = e.Prop("missing")
	assert.False(t, ok)

	assert.Equal(t, "id", e.IDProp().Name)
}

func TestEntity_Location(t *testing.T) {
	e := &Entity{Name: "User", File: "model.csv", Line: 4}
	assert.Equal(t, "model.csv:4", e.Location())

	e = &Entity{Name: "User", Line: 4}
	assert.Equal(t, "line 4", e.Location())

	e = &Entity{Name: "User"}
	assert.Equal(t, "", e.Location())
}

func TestMaxPassesError(t *testing.T) {
	err := &MaxPassesError{MaxPasses: 5, Unresolved: []string{"A", "B"}, Cycle: []string{"A", "B", "A"}}

	assert.True(t, errors.Is(err, ErrMaxPasses))
	assert.Contains(t, err.Error(), "maxPasses=5")
	assert.Contains(t, err.Error(), "A -> B -> A")
}

func TestParseError_Message(t *testing.T) {
	err := &ParseError{File: "m.yaml", Line: 3, Entity: "User", Text: "name", Err: ErrUntypedProp}

	assert.True(t, errors.Is(err, ErrUntypedProp))
	assert.Equal(t, `m.yaml:3: entity User: property type expected (in "name")`, err.Error())
}
