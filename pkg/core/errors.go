package core

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors. All of them abort a run.
var (
	ErrUnknownDirective = errors.New("unknown directive")
	ErrDuplicateProp    = errors.New("duplicate property")
	ErrUnmatchedEnd     = errors.New("no matching start")
	ErrSourceEntity     = errors.New("copy source entity must match exactly one entity")
	ErrMissingArg       = errors.New("missing required directive argument")
	ErrMalformedArg     = errors.New("malformed directive argument")
	ErrUntypedProp      = errors.New("property type expected")
	ErrScopeOutsideOp   = errors.New("directive requires an entity-level op")
	ErrCopySourceSet    = errors.New("copy source already set")
	ErrAliasLimit       = errors.New("alias expansion did not terminate")
	ErrUnknownKind      = errors.New("unknown entity kind")
	ErrMaxPasses        = errors.New("max resolve passes reached")
)

// ParseError is returned when entity or op text cannot be parsed.
type ParseError struct {
	File   string
	Entity string
	Line   int
	Text   string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(": ")
	} else if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Entity != "" {
		fmt.Fprintf(&b, "entity %s: ", e.Entity)
	}
	b.WriteString(e.Err.Error())
	if e.Text != "" {
		fmt.Fprintf(&b, " (in %q)", e.Text)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResolveError is a fatal error raised while resolving an entity.
type ResolveError struct {
	Entity    string
	Location  string
	Prop      string
	Directive string
	Err       error
}

func (e *ResolveError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "entity %s", e.Entity)
	if e.Location != "" {
		fmt.Fprintf(&b, " (%s)", e.Location)
	}
	if e.Prop != "" {
		fmt.Fprintf(&b, ", prop %s", e.Prop)
	}
	if e.Directive != "" {
		fmt.Fprintf(&b, ", @%s", e.Directive)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ResolveError) Unwrap() error { return e.Err }

// MaxPassesError is returned when the pass ceiling is exceeded.
type MaxPassesError struct {
	MaxPasses  int
	Unresolved []string
	// Cycle is the dependency cycle found among the entities, if any.
	Cycle []string
}

func (e *MaxPassesError) Error() string {
	msg := fmt.Sprintf("%v, there is most likely a copy loop in the provided model. maxPasses=%d", ErrMaxPasses, e.MaxPasses)
	if len(e.Cycle) > 0 {
		msg += ", cycle: " + strings.Join(e.Cycle, " -> ")
	}
	if len(e.Unresolved) > 0 {
		msg += ", unresolved: " + strings.Join(e.Unresolved, ", ")
	}
	return msg
}

func (e *MaxPassesError) Unwrap() error { return ErrMaxPasses }
