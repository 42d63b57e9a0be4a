package directive

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// Base carries the state every generator shares. Embed it and implement
// Execute (and Deps when the generator depends on other entities).
type Base struct {
	name     string
	raw      []string
	args     []string
	named    map[string]string
	resolved bool
}

// NewBase splits key=value tokens out of args into named arguments.
func NewBase(name string, args []string) Base {
	b := Base{name: name, raw: append([]string(nil), args...)}
	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		if !ok || key == "" {
			b.args = append(b.args, a)
			continue
		}
		if b.named == nil {
			b.named = make(map[string]string)
		}
		b.named[key] = value
	}
	return b
}

// Name returns the registry name.
func (b *Base) Name() string { return b.name }

// Args returns the positional arguments.
func (b *Base) Args() []string { return b.args }

// RawArgs returns the tokens as written.
func (b *Base) RawArgs() []string { return b.raw }

// Named returns a named argument.
func (b *Base) Named(name string) (string, bool) {
	v, ok := b.named[name]
	return v, ok
}

// NamedArgs returns a copy of every key=value argument.
func (b *Base) NamedArgs() map[string]string {
	return maps.Clone(b.named)
}

// Arg returns the named argument if set, else the positional one at index.
func (b *Base) Arg(index int, name string) string {
	if name != "" {
		if v, ok := b.named[name]; ok {
			return v
		}
	}
	if index < 0 || index >= len(b.args) {
		return ""
	}
	return b.args[index]
}

// Resolved reports whether the generator finished.
func (b *Base) Resolved() bool { return b.resolved }

// MarkResolved flags the generator as finished. It never resets.
func (b *Base) MarkResolved() { b.resolved = true }

// Deps returns no dependencies.
func (b *Base) Deps(core.Context) ([]*core.Entity, error) { return nil, nil }

// BoolArg parses a boolean argument. An empty value is false.
func (b *Base) BoolArg(index int, name string) (bool, error) {
	v := b.Arg(index, name)
	if v == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		label := name
		if label == "" {
			label = strconv.Itoa(index)
		}
		return false, fmt.Errorf("%w: @%s %s=%q is not a boolean", core.ErrMalformedArg, b.name, label, v)
	}
	return parsed, nil
}

// RequireArg returns the argument or a core.ErrMissingArg error.
func (b *Base) RequireArg(index int, name string) (string, error) {
	v := b.Arg(index, name)
	if v == "" {
		return "", fmt.Errorf("%w: @%s requires %s", core.ErrMissingArg, b.name, name)
	}
	return v, nil
}

// resolver is satisfied by every generator embedding Base.
type resolver interface {
	MarkResolved()
}
