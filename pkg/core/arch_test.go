package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulePath = "github.com/leapstack-labs/leapmodel"

// TestLayering verifies the import rules of the public packages.
// The Golden Rule: pkg/core imports ONLY stdlib; pkg/directive adds core and
// golang.org/x/text for name casing.
func TestLayering(t *testing.T) {
	tests := []struct {
		dir     string
		allowed []string
	}{
		{dir: ".", allowed: nil},
		{dir: filepath.Join("..", "directive"), allowed: []string{
			modulePath + "/pkg/core",
			"golang.org/x/text/cases",
			"golang.org/x/text/language",
		}},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(filepath.Clean(tt.dir)), func(t *testing.T) {
			checkImports(t, tt.dir, tt.allowed)
		})
	}
}

func checkImports(t *testing.T, dir string, allowed []string) {
	t.Helper()
	fset := token.NewFileSet()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") || strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}

	imports:
		for _, imp := range f.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)

			// Stdlib paths have no dot in the first element
			first := strings.SplitN(importPath, "/", 2)[0]
			if !strings.Contains(first, ".") {
				continue
			}
			for _, a := range allowed {
				if importPath == a {
					continue imports
				}
			}
			t.Errorf("%s imports forbidden package: %s", path, importPath)
		}
	}
}
