package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// Lucidchart export layout. Text Area 1 holds the entity header; Text Area 2
// and up hold ops.
const (
	lucidShapeColumn = "Shape Library"
	lucidEntityShape = "Entity Relationship"
	lucidTextColumn  = "Text Area %d"
)

var utf8BOM = []byte("\ufeff")

func readLucid(path string, data []byte) ([]decl, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, &core.ParseError{File: path, Err: fmt.Errorf("invalid CSV header: %w", err)}
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	shape, ok := cols[lucidShapeColumn]
	if !ok {
		return nil, &core.ParseError{File: path, Line: 1, Err: fmt.Errorf("missing %q column", lucidShapeColumn)}
	}
	var text []int
	for i := 1; ; i++ {
		idx, ok := cols[fmt.Sprintf(lucidTextColumn, i)]
		if !ok {
			break
		}
		text = append(text, idx)
	}
	if len(text) == 0 {
		return nil, &core.ParseError{File: path, Line: 1, Err: fmt.Errorf("missing %q column", fmt.Sprintf(lucidTextColumn, 1))}
	}

	var decls []decl
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &core.ParseError{File: path, Err: err}
		}
		line, _ := r.FieldPos(0)

		if cell(rec, shape) != lucidEntityShape {
			continue
		}
		d := decl{headerText: cell(rec, text[0]), line: line}
		if strings.TrimSpace(d.headerText) == "" {
			return nil, &core.ParseError{File: path, Line: line, Err: errors.New("entity name expected")}
		}
		for _, idx := range text[1:] {
			d.ops = append(d.ops, cell(rec, idx))
		}
		decls = append(decls, d)
	}
	return decls, nil
}

func cell(rec []string, idx int) string {
	if idx < len(rec) {
		return rec[idx]
	}
	return ""
}
