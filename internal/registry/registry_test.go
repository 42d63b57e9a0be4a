package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

func TestEntityRegistry_Register(t *testing.T) {
	r := NewEntityRegistry()

	user := core.NewEntity("User", core.KindInterface)
	r.Register(user)

	assert.Equal(t, 1, r.Count(), "expected count 1")
	assert.True(t, r.Has("User"))
	assert.False(t, r.Has("Post"))

	got, err := r.Resolve("User")
	require.NoError(t, err)
	assert.Same(t, user, got, "expected same entity instance")
}

func TestEntityRegistry_Resolve(t *testing.T) {
	r := NewEntityRegistry()
	r.RegisterAll([]*core.Entity{
		core.NewEntity("User", core.KindInterface),
		core.NewEntity("Status", core.KindEnum),
		core.NewEntity("Status", core.KindUnion),
	})

	tests := []struct {
		name    string
		lookup  string
		wantErr bool
	}{
		{name: "unique", lookup: "User"},
		{name: "missing", lookup: "Post", wantErr: true},
		{name: "ambiguous", lookup: "Status", wantErr: true},
		{name: "case sensitive", lookup: "user", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.lookup)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrSourceEntity)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lookup, got.Name)
		})
	}
}

func TestEntityRegistry_OrderAndDuplicates(t *testing.T) {
	r := NewEntityRegistry()
	for _, name := range []string{"B", "A", "B", "C", "A", "B"} {
		r.Register(core.NewEntity(name, core.KindInterface))
	}

	var names []string
	for _, e := range r.All() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"B", "A", "B", "C", "A", "B"}, names)
	assert.Equal(t, []string{"B", "A"}, r.Duplicates())
}

func TestEntityRegistry_ResolveDependencies(t *testing.T) {
	r := NewEntityRegistry()
	user := core.NewEntity("User", core.KindInterface)
	post := core.NewEntity("Post", core.KindInterface)
	r.RegisterAll([]*core.Entity{user, post})

	deps, unknown := r.ResolveDependencies([]string{"Post", "Missing", "User", "Post", "Missing"})
	assert.Equal(t, []*core.Entity{post, user}, deps)
	assert.Equal(t, []string{"Missing"}, unknown)
}
