package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// yamlFile is the document layout of a YAML model file.
// Unknown fields cause parse errors.
type yamlFile struct {
	Entities []yamlEntity `yaml:"entities"`
}

type yamlEntity struct {
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind"`
	Template     bool     `yaml:"template"`
	DocumentPath string   `yaml:"document_path"`
	Ops          []string `yaml:"ops"`
}

func readYAML(path string, data []byte) ([]decl, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file yamlFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &core.ParseError{File: path, Err: fmt.Errorf("invalid YAML: %w", err)}
	}

	lines := entityLines(data)
	decls := make([]decl, 0, len(file.Entities))
	for i, e := range file.Entities {
		var line int
		if i < len(lines) {
			line = lines[i]
		}
		h, err := structuredHeader(path, line, e.Name, e.Kind, e.Template, e.DocumentPath)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl{header: h, ops: e.Ops, line: line})
	}
	return decls, nil
}

// entityLines returns the source line of each item of the entities list.
func entityLines(data []byte) []int {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "entities" {
			continue
		}
		items := root.Content[i+1].Content
		lines := make([]int, len(items))
		for j, item := range items {
			lines[j] = item.Line
		}
		return lines
	}
	return nil
}
