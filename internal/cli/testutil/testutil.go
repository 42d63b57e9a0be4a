// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// ProjectConfig is the leapmodel.yaml written by SetupTestProject.
const ProjectConfig = `models_dir: models
state_path: .leapmodel/state.db
outputs:
  - type: typescript
    path: gen/model.ts
  - type: json
    path: gen/model.json
`

// UsersModel declares User, Profile (copying User's public props) and Role.
const UsersModel = `entities:
  - name: User
    ops:
      - "id:string"
      - "name:string @source pub"
      - "email:string? @source pub"
      - "password:string"
  - name: Profile
    ops:
      - "@copy User pub"
      - "bio:string"
  - name: Role
    kind: enum
    ops:
      - "admin"
      - "member"
`

// LoopModel declares two entities copying from each other.
const LoopModel = `entities:
  - name: A
    ops:
      - "a:string @source pub"
      - "@copy B pub"
  - name: B
    ops:
      - "b:string @source pub"
      - "@copy A pub"
`

// SetupTestProject creates a temporary project with a config file and
// models/users.yaml. It returns the project directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()
	return SetupProject(t, ProjectConfig, map[string]string{"models/users.yaml": UsersModel})
}

// SetupProject creates a temporary project with the given config and files,
// keyed by path relative to the project root.
func SetupProject(t *testing.T, cfg string, files map[string]string) string {
	t.Helper()

	tmpDir := t.TempDir()
	WriteFile(t, filepath.Join(tmpDir, "leapmodel.yaml"), cfg)
	for name, content := range files {
		WriteFile(t, filepath.Join(tmpDir, name), content)
	}
	return tmpDir
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if fenceCount := strings.Count(md, "```"); fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
