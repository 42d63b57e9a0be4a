// Package starlark loads host directives written in Starlark.
//
// Every exported function of a .star file in the directives directory becomes
// a directive named after the function. It is called as fn(ctx) and may
// return None or a dict whose entries are appended to the property's
// attribute list.
package starlark

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// EntityToStarlark converts an entity to a read-only Starlark struct.
func EntityToStarlark(e *core.Entity) starlark.Value {
	if e == nil {
		return starlark.None
	}
	props := make([]starlark.Value, len(e.Props))
	for i, p := range e.Props {
		props[i] = starlark.String(p.Name)
	}
	return starlarkstruct.FromStringDict(starlark.String("entity"), starlark.StringDict{
		"name":          starlark.String(e.Name),
		"kind":          starlark.String(e.Kind),
		"is_template":   starlark.Bool(e.IsTemplate),
		"document_path": starlark.String(e.DocumentPath),
		"props":         starlark.NewList(props),
	})
}

// PropToStarlark converts a property to a read-only Starlark struct.
func PropToStarlark(p *core.Prop) starlark.Value {
	if p == nil {
		return starlark.None
	}
	return starlarkstruct.FromStringDict(starlark.String("prop"), starlark.StringDict{
		"name":          starlark.String(p.Name),
		"type":          starlark.String(p.Type),
		"type_name":     starlark.String(p.TypeName),
		"nullable":      starlark.Bool(p.Nullable),
		"collection":    starlark.Bool(p.Collection),
		"pointer":       starlark.Bool(p.Pointer),
		"query_pointer": starlark.Bool(p.QueryPointer),
		"is_id":         starlark.Bool(p.IsID),
		"required":      starlark.Bool(p.Required),
		"sources":       stringList(p.Sources),
		"default":       starlark.String(p.DefaultValue),
		"comment":       starlark.String(p.Comment),
		"attrs":         attrDict(p.Attrs),
	})
}

// attrDict folds attribute writes into a dict, later writes winning.
// Values with no Starlark counterpart are passed as their string form.
func attrDict(attrs []core.Attribute) *starlark.Dict {
	dict := starlark.NewDict(len(attrs))
	for _, a := range attrs {
		v, err := GoToStarlark(a.Value)
		if err != nil {
			v = starlark.String(fmt.Sprint(a.Value))
		}
		_ = dict.SetKey(starlark.String(a.Name), v)
	}
	return dict
}

func stringList(values []string) *starlark.List {
	list := make([]starlark.Value, len(values))
	for i, s := range values {
		list[i] = starlark.String(s)
	}
	return starlark.NewList(list)
}

// GoToStarlark converts a Go value to a Starlark value.
// Supported types: string, int, int64, float64, bool, []string, []any, map[string]string, map[string]any
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case bool:
		return starlark.Bool(val), nil
	case []string:
		return stringList(val), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case map[string]string:
		dict := starlark.NewDict(len(val))
		for k, s := range val {
			if err := dict.SetKey(starlark.String(k), starlark.String(s)); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts a Starlark value back to a Go value.
// Returns: string, int64, float64, bool, []any, map[string]any, or nil
func ToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			// too large for int64
			return val.String(), nil
		}
		return i64, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.Bool:
		return bool(val), nil

	case *starlark.List:
		return indexableToGo(val, "list")
	case starlark.Tuple:
		return indexableToGo(val, "tuple")

	case *starlark.Dict:
		result := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			gv, err := ToGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", key, err)
			}
			result[string(key)] = gv
		}
		return result, nil

	default:
		return val.String(), nil
	}
}

func indexableToGo(val starlark.Indexable, kind string) ([]any, error) {
	result := make([]any, val.Len())
	for i := range val.Len() {
		gv, err := ToGo(val.Index(i))
		if err != nil {
			return nil, fmt.Errorf("%s index %d: %w", kind, i, err)
		}
		result[i] = gv
	}
	return result, nil
}
