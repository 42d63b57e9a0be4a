package starlark

import (
	"go.starlark.net/starlark"

	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/directive"
)

// Predeclared returns the globals visible to every directive script:
// kinds, value_types, upper_first and is_value_type.
func Predeclared() starlark.StringDict {
	kinds := make(starlark.Tuple, len(core.AllKinds))
	for i, k := range core.AllKinds {
		kinds[i] = starlark.String(k)
	}
	valueTypes := make(starlark.Tuple, len(core.ValueTypes))
	for i, vt := range core.ValueTypes {
		valueTypes[i] = starlark.String(vt)
	}

	return starlark.StringDict{
		"kinds":         kinds,
		"value_types":   valueTypes,
		"upper_first":   starlark.NewBuiltin("upper_first", upperFirst),
		"is_value_type": starlark.NewBuiltin("is_value_type", isValueType),
	}
}

func upperFirst(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s); err != nil {
		return nil, err
	}
	return starlark.String(directive.UpperFirst(s)), nil
}

func isValueType(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s); err != nil {
		return nil, err
	}
	return starlark.Bool(core.ClassifyType(s) != core.TypeOther), nil
}
