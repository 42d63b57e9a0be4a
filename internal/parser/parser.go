// Package parser turns entity header and op text into unresolved core entities.
// It handles property typing markers, trailing comments, alias expansion and
// the document path shorthand.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/directive"
)

// LineSeparator is the Unicode line separator used by diagram exports to
// break lines inside a single text cell.
const LineSeparator = "\u2028"

// TemplateMarker flags an entity header as a template: Name:kind:template.
const TemplateMarker = "template"

// typeMarkers are stripped from a property type to get its semantic name.
var typeMarkers = strings.NewReplacer("*", "", " ", "", "?", "", "[", "", "]", "")

// Header is the parsed first cell of an entity declaration.
type Header struct {
	Name         string
	Kind         core.EntityKind
	IsTemplate   bool
	DocumentPath string
}

// DefaultIDNames are the property names flagged as id when parsed.
var DefaultIDNames = []string{"id"}

// Parser parses entity declarations against a directive registry.
type Parser struct {
	registry *directive.Registry
	aliases  *Aliases
	idNames  []string
}

// New creates a parser. A nil aliases uses the default table.
func New(registry *directive.Registry, aliases *Aliases) *Parser {
	if aliases == nil {
		aliases = NewAliases(nil, DefaultMaxAliasPasses)
	}
	return &Parser{registry: registry, aliases: aliases, idNames: DefaultIDNames}
}

// WithIDNames replaces the names flagged as id at parse time, compared
// case-insensitively. No names disables the rule.
func (p *Parser) WithIDNames(names []string) *Parser {
	p.idNames = names
	return p
}

// ParseEntityHeader parses `Name[:kind[:template]]` with an optional document
// path on the following line.
func (p *Parser) ParseEntityHeader(text string) (Header, error) {
	lines := SplitLines(text)
	if len(lines) == 0 {
		return Header{}, errors.New("entity name expected")
	}

	parts := strings.Split(lines[0], ":")
	h := Header{Name: strings.TrimSpace(parts[0])}
	if h.Name == "" {
		return Header{}, errors.New("entity name expected")
	}

	var kind string
	if len(parts) > 1 {
		kind = parts[1]
	}
	k, err := core.ParseKind(kind)
	if err != nil {
		return Header{}, err
	}
	h.Kind = k

	for _, flag := range parts[min(len(parts), 2):] {
		switch strings.TrimSpace(flag) {
		case TemplateMarker:
			h.IsTemplate = true
		case "":
		default:
			return Header{}, fmt.Errorf("%w: unknown header flag %q", core.ErrMalformedArg, flag)
		}
	}

	if len(lines) > 1 {
		h.DocumentPath = lines[1]
	}
	return h, nil
}

// ParseEntity parses a header and its op cells into an unresolved entity.
func (p *Parser) ParseEntity(header string, ops []string, file string, line int) (*core.Entity, error) {
	h, err := p.ParseEntityHeader(header)
	if err != nil {
		return nil, &core.ParseError{File: file, Line: line, Text: header, Err: err}
	}
	return p.BuildEntity(h, ops, file, line)
}

// BuildEntity parses op cells for an already parsed header. A cell holding
// several lines yields one op per line.
func (p *Parser) BuildEntity(h Header, ops []string, file string, line int) (*core.Entity, error) {
	e := core.NewEntity(h.Name, h.Kind)
	e.IsTemplate = h.IsTemplate
	e.DocumentPath = h.DocumentPath
	e.File = file
	e.Line = line

	for _, cell := range ops {
		for _, text := range SplitLines(cell) {
			op, err := p.ParseOp(text, h.Kind)
			if err != nil {
				return nil, &core.ParseError{File: file, Entity: h.Name, Line: line, Text: text, Err: err}
			}
			if op == nil {
				continue
			}
			op.Line = line
			e.Ops = append(e.Ops, op)
		}
	}
	return e, nil
}

// ParseOp parses one line of entity input. Blank and comment-only lines
// yield a nil op.
func (p *Parser) ParseOp(text string, kind core.EntityKind) (*core.Op, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var comment string
	if before, after, ok := strings.Cut(text, "#"); ok {
		comment = strings.TrimSpace(after)
		text = strings.TrimSpace(before)
		if text == "" {
			return nil, nil
		}
	}

	if strings.HasPrefix(text, "/") {
		text = "@" + directive.NameDocumentPath + " " + text
	}

	text, err := p.aliases.Expand(text)
	if err != nil {
		return nil, err
	}

	head, tokens := splitDirectives(text)
	gens, err := p.parseGenerators(tokens)
	if err != nil {
		return nil, err
	}

	if head == "" {
		op := &core.Op{Generators: gens, Comment: comment}
		if len(tokens) > 0 {
			switch directive.Normalize(strings.Fields(tokens[0])[0]) {
			case string(core.BoundaryStart):
				op.Boundary = core.BoundaryStart
			case string(core.BoundaryEnd):
				op.Boundary = core.BoundaryEnd
			}
		}
		return op, nil
	}

	prop, err := parseProp(head, kind)
	if err != nil {
		return nil, err
	}
	// known before any copy runs, so @copy keeps ids unprefixed
	if kind != core.KindEnum && kind != core.KindUnion && p.isIDName(prop.Name) {
		prop.IsID = true
	}
	prop.Comment = comment
	prop.Generators = gens
	return &core.Op{Prop: prop, Comment: comment}, nil
}

func (p *Parser) isIDName(name string) bool {
	for _, n := range p.idNames {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// parseProp parses `name:type` into a property.
func parseProp(head string, kind core.EntityKind) (*core.Prop, error) {
	name, typ, _ := strings.Cut(head, ":")
	name = strings.TrimSpace(name)
	typ = strings.TrimSpace(typ)
	// enum members are bare names like union members
	if typ == "" && (kind == core.KindUnion || kind == core.KindEnum) {
		typ = string(core.TypeString)
	}
	if typ == "" {
		return nil, fmt.Errorf("%w: %s", core.ErrUntypedProp, name)
	}

	prop := &core.Prop{Name: name}
	switch {
	case strings.HasPrefix(typ, "**"):
		prop.QueryPointer = true
	case strings.HasPrefix(typ, "*"):
		prop.Pointer = true
	}
	prop.Collection = strings.Contains(typ, "[")
	prop.Nullable = strings.Contains(typ, "?")
	prop.TypeName = typeMarkers.Replace(typ)
	prop.Type = core.ClassifyType(prop.TypeName)
	prop.IsValueType = prop.Type != core.TypeOther
	return prop, nil
}

func (p *Parser) parseGenerators(tokens []string) ([]core.Generator, error) {
	var gens []core.Generator
	for _, tok := range tokens {
		fields := strings.Fields(tok)
		g, err := p.registry.New(fields[0], fields[1:])
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	return gens, nil
}

// splitDirectives splits text on @. head is the text before the first
// directive; tokens are the non-empty directive bodies without the @.
func splitDirectives(text string) (head string, tokens []string) {
	parts := strings.Split(text, "@")
	head = strings.TrimSpace(parts[0])
	for _, part := range parts[1:] {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return head, tokens
}

// SplitLines splits on newlines and the Unicode line separator, trimming each
// line and dropping blank ones.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, LineSeparator, "\n")
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
