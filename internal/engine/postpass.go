package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/leapmodel/internal/registry"
	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// IDHeuristic decides which property becomes the id of an entity that did
// not declare one with @id.
type IDHeuristic struct {
	// Names are matched literally, in order
	Names []string
	// Suffixes are appended to the lower-cased entity name: User -> userId
	Suffixes []string
	// Strip lists substrings removed from the entity name before suffix matching
	Strip []string
}

// DefaultIDHeuristic matches "id", then "<entity>Id" and "<entity>ID".
func DefaultIDHeuristic() IDHeuristic {
	return IDHeuristic{
		Names:    []string{"id"},
		Suffixes: []string{"Id", "ID"},
	}
}

// IsZero reports whether no rule is configured.
func (h IDHeuristic) IsZero() bool {
	return len(h.Names) == 0 && len(h.Suffixes) == 0 && len(h.Strip) == 0
}

// candidates returns the property names that identify entityName, in
// priority order.
func (h IDHeuristic) candidates(entityName string) []string {
	names := append([]string(nil), h.Names...)
	base := entityName
	for _, s := range h.Strip {
		if s != "" {
			base = strings.ReplaceAll(base, s, "")
		}
	}
	if base == "" {
		return names
	}
	base = lowerFirst(base)
	for _, suffix := range h.Suffixes {
		names = append(names, base+suffix)
	}
	return names
}

// inferIDs flags an id property on every interface that has none.
// Enum and union members are values, not fields, and are left alone.
func inferIDs(entities []*core.Entity, h IDHeuristic) {
	for _, ent := range entities {
		if ent.Kind == core.KindEnum || ent.Kind == core.KindUnion {
			continue
		}
		if ent.IDProp() != nil {
			continue
		}
		for _, name := range h.candidates(ent.Name) {
			if p, ok := ent.Prop(name); ok {
				p.IsID = true
				break
			}
		}
	}
}

// propagateValueTypes marks properties whose type is an entity holding a
// value directly: enums, unions and typeDefs over a value type.
func propagateValueTypes(entities *registry.EntityRegistry) {
	memo := make(map[*core.Entity]bool)
	for _, ent := range entities.All() {
		for _, p := range ent.Props {
			if p.Type != core.TypeOther {
				p.IsValueType = true
				continue
			}
			target, err := entities.Resolve(p.TypeName)
			if err != nil {
				continue
			}
			p.IsValueType = isValueEntity(target, entities, memo, map[*core.Entity]bool{})
		}
	}
}

func isValueEntity(ent *core.Entity, entities *registry.EntityRegistry, memo, visiting map[*core.Entity]bool) bool {
	if v, ok := memo[ent]; ok {
		return v
	}
	if visiting[ent] {
		return false
	}
	visiting[ent] = true

	var v bool
	switch ent.Kind {
	case core.KindEnum, core.KindUnion:
		v = true
	case core.KindTypeDef:
		if tp, ok := ent.Prop("type"); ok {
			if tp.Type != core.TypeOther {
				v = true
			} else if inner, err := entities.Resolve(tp.TypeName); err == nil {
				v = isValueEntity(inner, entities, memo, visiting)
			}
		}
	}
	memo[ent] = v
	return v
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
