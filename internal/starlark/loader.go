package starlark

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// DepsGlobal names the optional dict mapping a function name to the index of
// the positional argument holding the entity it depends on.
const DepsGlobal = "DEPS"

// Loader scans a directory for .star directive files.
type Loader struct {
	dir string
}

// NewLoader creates a loader for dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Module is a loaded directive file.
type Module struct {
	// Name is derived from the filename (audit.star -> audit)
	Name string
	// Path is the file the module was loaded from
	Path string
	// Functions are the exported callables, keyed by directive name
	Functions map[string]starlark.Callable
	// Deps maps a function name to its entity argument index
	Deps map[string]int
}

// FunctionNames returns the exported function names, sorted.
func (m *Module) FunctionNames() []string {
	names := make([]string, 0, len(m.Functions))
	for name := range m.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads every .star file in the directory, in name order.
// A missing directory yields no modules.
func (l *Loader) Load() ([]*Module, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access directives directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("directives path is not a directory: %s", l.dir)
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.star"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan directives directory: %w", err)
	}
	sort.Strings(files)

	modules := make([]*Module, 0, len(files))
	for _, file := range files {
		module, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}
	return modules, nil
}

// LoadFile executes a single .star file and collects its exports.
func LoadFile(path string) (*Module, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the configured directives directory
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	name := strings.TrimSuffix(filepath.Base(path), ".star")
	if err := validateName(name); err != nil {
		return nil, &LoadError{File: path, Message: err.Error()}
	}

	thread := &starlark.Thread{
		Name:  "load:" + name,
		Print: func(*starlark.Thread, string) {},
	}
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, path, content, Predeclared())
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}

	module := &Module{
		Name:      name,
		Path:      path,
		Functions: make(map[string]starlark.Callable),
		Deps:      make(map[string]int),
	}
	for key, value := range globals {
		if strings.HasPrefix(key, "_") || key == DepsGlobal {
			continue
		}
		if fn, ok := value.(starlark.Callable); ok {
			module.Functions[key] = fn
		}
	}

	if raw, ok := globals[DepsGlobal]; ok {
		if err := module.parseDeps(raw); err != nil {
			return nil, &LoadError{File: path, Message: err.Error()}
		}
	}
	return module, nil
}

func (m *Module) parseDeps(raw starlark.Value) error {
	dict, ok := raw.(*starlark.Dict)
	if !ok {
		return fmt.Errorf("%s must be a dict, got %s", DepsGlobal, raw.Type())
	}
	for _, item := range dict.Items() {
		key, ok := item[0].(starlark.String)
		if !ok {
			return fmt.Errorf("%s keys must be function names, got %s", DepsGlobal, item[0].Type())
		}
		if _, exists := m.Functions[string(key)]; !exists {
			return fmt.Errorf("%s names unknown function %q", DepsGlobal, string(key))
		}
		var idx int
		if err := starlark.AsInt(item[1], &idx); err != nil || idx < 0 {
			return fmt.Errorf("%s[%q] must be a non-negative argument index", DepsGlobal, string(key))
		}
		m.Deps[string(key)] = idx
	}
	return nil
}

// validateName checks that a module name is a valid identifier.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("module name cannot be empty")
	}
	for i, r := range name {
		switch {
		case isLetter(r) || r == '_':
		case i > 0 && isDigit(r):
		default:
			return fmt.Errorf("module name must be an identifier: %s", name)
		}
	}
	return nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// LoadError is an error loading a directive file.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("directives/%s: %s", filepath.Base(e.File), e.Message)
}
