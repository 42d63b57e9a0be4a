// Package loader reads entity declarations from model files and turns them
// into unresolved entities through the directive parser.
//
// Supported formats, by extension:
//   - .csv: Lucidchart "Entity Relationship" exports
//   - .yaml, .yml: an `entities` list
//   - .hcl: `entity "Name" { ... }` blocks
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapmodel/internal/parser"
	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported model file format")

// decl is one entity declaration as read from a file. Either headerText or
// header is set: diagram exports carry the header as text, structured
// formats carry its fields.
type decl struct {
	headerText string
	header     parser.Header
	ops        []string
	line       int
}

// reader extracts declarations from file content.
type reader func(path string, data []byte) ([]decl, error)

var readers = map[string]reader{
	".csv":  readLucid,
	".yaml": readYAML,
	".yml":  readYAML,
	".hcl":  readHCL,
}

// Supported reports whether path has a model file extension.
func Supported(path string) bool {
	_, ok := readers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Loader reads model files.
type Loader struct {
	parser *parser.Parser
	logger *slog.Logger
}

// New creates a loader. A nil logger discards output.
func New(p *parser.Parser, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{parser: p, logger: logger}
}

// Load expands patterns to files and reads every entity they declare, in
// file order. A pattern is a file, a directory (searched recursively for
// supported files) or a glob.
func (l *Loader) Load(ctx context.Context, patterns []string) ([]*core.Entity, error) {
	files, err := Expand(patterns)
	if err != nil {
		return nil, err
	}

	var entities []*core.Entity
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := l.LoadFile(file)
		if err != nil {
			return nil, err
		}
		entities = append(entities, loaded...)
	}

	l.logger.Debug("model files loaded", slog.Int("files", len(files)), slog.Int("entities", len(entities)))
	return entities, nil
}

// LoadFile reads the entities declared in a single file.
func (l *Loader) LoadFile(path string) ([]*core.Entity, error) {
	read, ok := readers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from configured inputs
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	decls, err := read(path, data)
	if err != nil {
		return nil, err
	}

	entities := make([]*core.Entity, 0, len(decls))
	for _, d := range decls {
		e, err := l.build(path, d)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}

	l.logger.Debug("model file loaded", slog.String("file", path), slog.Int("entities", len(entities)))
	return entities, nil
}

func (l *Loader) build(path string, d decl) (*core.Entity, error) {
	if d.headerText != "" {
		return l.parser.ParseEntity(d.headerText, d.ops, path, d.line)
	}
	return l.parser.BuildEntity(d.header, d.ops, path, d.line)
}

// structuredHeader builds a header from the fields of a structured format.
func structuredHeader(path string, line int, name, kind string, template bool, documentPath string) (parser.Header, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return parser.Header{}, &core.ParseError{File: path, Line: line, Err: errors.New("entity name expected")}
	}
	k, err := core.ParseKind(kind)
	if err != nil {
		return parser.Header{}, &core.ParseError{File: path, Entity: name, Line: line, Err: err}
	}
	return parser.Header{
		Name:         name,
		Kind:         k,
		IsTemplate:   template,
		DocumentPath: strings.TrimSpace(documentPath),
	}, nil
}

// Expand resolves patterns to a de-duplicated file list. Globs and
// directories contribute their matches in name order; a literal path that
// does not exist is an error.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
	}

	for _, pattern := range patterns {
		if strings.ContainsAny(pattern, "*?[") {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
			}
			slices.Sort(matches)
			for _, m := range matches {
				if Supported(m) {
					add(m)
				}
			}
			continue
		}

		info, err := os.Stat(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to access input: %w", err)
		}
		if !info.IsDir() {
			add(pattern)
			continue
		}

		var found []string
		err = filepath.WalkDir(pattern, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && Supported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", pattern, err)
		}
		slices.Sort(found)
		for _, f := range found {
			add(f)
		}
	}
	return files, nil
}
