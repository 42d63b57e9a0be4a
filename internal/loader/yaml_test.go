package loader

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

const yamlModel = `entities:
  - name: User
    kind: interface
    document_path: /users/{userId}
    ops:
      - "id:string @id"
      - "name:string # display name"
  - name: Base
    template: true
    ops: ["createdAt:timestamp"]
`

func TestReadYAML(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "model.yaml"), yamlModel)

	entities, err := newLoader(t).LoadFile(path)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	user := entities[0]
	assert.Equal(t, "User", user.Name)
	assert.Equal(t, "/users/{userId}", user.DocumentPath)
	assert.Equal(t, 2, user.Line)
	assert.Equal(t, []string{"id", "name"}, propNames(user))
	assert.Equal(t, "display name", user.Ops[1].Prop.Comment)

	base := entities[1]
	assert.Equal(t, core.KindInterface, base.Kind)
	assert.True(t, base.IsTemplate)
	assert.Equal(t, 8, base.Line)
}

func TestReadYAML_Empty(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "empty.yml"), "")
	entities, err := newLoader(t).LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestReadYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		target  error
	}{
		{
			name:    "unknown field",
			content: "entities:\n  - name: User\n    colour: red\n",
			want:    "colour",
		},
		{
			name:    "unknown top-level field",
			content: "models: []\n",
			want:    "models",
		},
		{
			name:    "invalid yaml",
			content: "entities: [\n",
			want:    "invalid YAML",
		},
		{
			name:    "missing name",
			content: "entities:\n  - kind: enum\n",
			want:    "entity name expected",
		},
		{
			name:    "unknown kind",
			content: "entities:\n  - name: User\n    kind: table\n",
			target:  core.ErrUnknownKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, filepath.Join(t.TempDir(), "bad.yaml"), tt.content)
			_, err := newLoader(t).LoadFile(path)
			require.Error(t, err)

			var perr *core.ParseError
			assert.True(t, errors.As(err, &perr), "want *core.ParseError, got %T", err)
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}
