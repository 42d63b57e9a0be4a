package starlark

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeStar(t, dir, "b.star", "def second(ctx):\n    return None\n")
	writeStar(t, dir, "a.star", "DEPS = {\"first\": 1}\nLIMIT = 3\ndef first(ctx):\n    return None\n")
	writeStar(t, dir, "notes.txt", "ignored")

	modules, err := NewLoader(dir).Load()
	require.NoError(t, err)
	require.Len(t, modules, 2)

	assert.Equal(t, "a", modules[0].Name)
	assert.Equal(t, []string{"first"}, modules[0].FunctionNames())
	assert.Equal(t, map[string]int{"first": 1}, modules[0].Deps)
	assert.Equal(t, "b", modules[1].Name)
}

func TestLoader_MissingDir(t *testing.T) {
	modules, err := NewLoader(filepath.Join(t.TempDir(), "nope")).Load()
	require.NoError(t, err)
	assert.Empty(t, modules)
}

func TestLoader_NotADir(t *testing.T) {
	path := writeStar(t, t.TempDir(), "file.star", "")
	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"syntax", "broken.star", "def f(:\n", "Starlark execution error"},
		{"bad module name", "my-dirs.star", "", "identifier"},
		{"deps not a dict", "d.star", "DEPS = [1]\n", "must be a dict"},
		{"deps unknown fn", "d.star", "DEPS = {\"nope\": 0}\n", "unknown function"},
		{"deps bad index", "d.star", "DEPS = {\"f\": -1}\ndef f(ctx):\n    pass\n", "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeStar(t, t.TempDir(), tt.file, tt.content)
			_, err := LoadFile(path)
			require.Error(t, err)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "directives/"+tt.file)
		})
	}
}
