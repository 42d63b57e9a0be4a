package core

import (
	"fmt"
	"strings"
)

// EntityKind is the declared kind of an entity.
type EntityKind string

// Entity kind constants.
const (
	KindInterface EntityKind = "interface"
	KindEnum      EntityKind = "enum"
	KindUnion     EntityKind = "union"
	KindTypeDef   EntityKind = "typeDef"
)

// DefaultKind is used when an entity header does not name a kind.
const DefaultKind = KindInterface

// AllKinds lists every valid entity kind.
var AllKinds = []EntityKind{KindInterface, KindEnum, KindUnion, KindTypeDef}

// ParseKind converts a header token into an EntityKind.
// An empty string yields DefaultKind.
func ParseKind(s string) (EntityKind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultKind, nil
	}
	for _, k := range AllKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ValueType classifies a property type.
type ValueType string

// Value type constants. TypeOther references another declared entity.
const (
	TypeInt       ValueType = "int"
	TypeString    ValueType = "string"
	TypeDouble    ValueType = "double"
	TypeBool      ValueType = "bool"
	TypeTimestamp ValueType = "timestamp"
	TypeOther     ValueType = "other"
)

// ValueTypes is the closed set of built-in value types.
var ValueTypes = []ValueType{TypeInt, TypeString, TypeDouble, TypeBool, TypeTimestamp}

// ClassifyType returns the value type for a semantic type name, or TypeOther.
func ClassifyType(typeName string) ValueType {
	for _, vt := range ValueTypes {
		if string(vt) == typeName {
			return vt
		}
	}
	return TypeOther
}

// Entity is a declared model type.
type Entity struct {
	Name         string     `json:"name"`
	Kind         EntityKind `json:"kind"`
	IsTemplate   bool       `json:"isTemplate,omitempty"`
	DocumentPath string     `json:"documentPath,omitempty"`

	// Ops are the parsed declarations in input order. They are applied once.
	Ops []*Op `json:"ops,omitempty"`
	// Props is populated while ops are applied, and may grow through copies.
	Props []*Prop `json:"props"`

	OpDepsResolved bool `json:"opDepsResolved"`
	Resolved       bool `json:"resolved"`

	// File and Line locate the declaration for error messages.
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// NewEntity creates an empty, unresolved entity.
func NewEntity(name string, kind EntityKind) *Entity {
	return &Entity{Name: name, Kind: kind}
}

// Prop returns the property with the given name.
func (e *Entity) Prop(name string) (*Prop, bool) {
	for _, p := range e.Props {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// IDProp returns the property currently flagged as id, if any.
func (e *Entity) IDProp() *Prop {
	for _, p := range e.Props {
		if p.IsID {
			return p
		}
	}
	return nil
}

// Location formats the entity origin for messages.
func (e *Entity) Location() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d", e.File, e.Line)
	case e.File != "":
		return e.File
	case e.Line > 0:
		return fmt.Sprintf("line %d", e.Line)
	}
	return ""
}

// Boundary is the structural keyword found in first position of a directive op.
type Boundary string

// Boundary constants.
const (
	BoundaryNone  Boundary = ""
	BoundaryStart Boundary = "start"
	BoundaryEnd   Boundary = "end"
)

// Op is one parsed unit of entity input: a property declaration or a list of
// entity-level directive applications. Exactly one of Prop and Generators is set.
type Op struct {
	Prop       *Prop       `json:"prop,omitempty"`
	Generators []Generator `json:"-"`
	Boundary   Boundary    `json:"boundary,omitempty"`
	Comment    string      `json:"comment,omitempty"`
	Line       int         `json:"line,omitempty"`
}

// IsProp reports whether the op declares a property.
func (o *Op) IsProp() bool {
	return o.Prop != nil
}

// Attribute is a single name/value write on a property. Order is significant.
type Attribute struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// CopySource records where a property was copied from.
type CopySource struct {
	Entity   string `json:"entity"`
	Prop     string `json:"prop"`
	Optional bool   `json:"optional,omitempty"`
}

// Prop is a property of an entity.
type Prop struct {
	Name         string    `json:"name"`
	Type         ValueType `json:"type"`
	TypeName     string    `json:"typeName"`
	Nullable     bool      `json:"nullable,omitempty"`
	Collection   bool      `json:"collection,omitempty"`
	Pointer      bool      `json:"pointer,omitempty"`
	QueryPointer bool      `json:"queryPointer,omitempty"`
	IsValueType  bool      `json:"isValueType,omitempty"`
	IsID         bool      `json:"isId,omitempty"`
	Required     bool      `json:"required,omitempty"`
	DefaultValue string    `json:"defaultValue,omitempty"`
	Comment      string    `json:"comment,omitempty"`

	// Sources is the set of group tags this property belongs to.
	Sources []string `json:"sources,omitempty"`

	CopySource *CopySource `json:"copySource,omitempty"`

	Attrs []Attribute    `json:"attrs,omitempty"`
	Atts  map[string]any `json:"atts,omitempty"`

	// Generators are the pending directives for this property.
	Generators []Generator `json:"-"`
	Resolved   bool        `json:"resolved"`
}

// HasSource reports whether the property carries the given group tag.
func (p *Prop) HasSource(name string) bool {
	for _, s := range p.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// AddSource appends a group tag if not already present.
func (p *Prop) AddSource(name string) {
	if !p.HasSource(name) {
		p.Sources = append(p.Sources, name)
	}
}

// SetCopySource records provenance. It may only be called once per property.
func (p *Prop) SetCopySource(src CopySource) error {
	if p.CopySource != nil {
		return fmt.Errorf("%w: %s already copies %s.%s", ErrCopySourceSet, p.Name, p.CopySource.Entity, p.CopySource.Prop)
	}
	p.CopySource = &src
	return nil
}

// AddAttr appends an attribute write.
func (p *Prop) AddAttr(name string, value any) {
	p.Attrs = append(p.Attrs, Attribute{Name: name, Value: value})
}

// Materialize folds the ordered attribute list into Atts. Later writes win.
func (p *Prop) Materialize() {
	p.Atts = make(map[string]any, len(p.Attrs))
	for _, a := range p.Attrs {
		p.Atts[a.Name] = a.Value
	}
}

// Clone returns an independent copy of the property. Slices and maps are
// copied, pending generators are dropped and the copy is unresolved.
func (p *Prop) Clone() *Prop {
	c := *p
	c.Sources = append([]string(nil), p.Sources...)
	c.Attrs = append([]Attribute(nil), p.Attrs...)
	c.Atts = nil
	c.Generators = nil
	c.Resolved = false
	if p.CopySource != nil {
		src := *p.CopySource
		c.CopySource = &src
	}
	return &c
}

// AllResolved reports whether every generator on the property has resolved.
func (p *Prop) AllResolved() bool {
	for _, g := range p.Generators {
		if !g.Resolved() {
			return false
		}
	}
	return true
}
