package parser

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// DefaultMaxAliasPasses bounds alias expansion.
const DefaultMaxAliasPasses = 32

// DefaultAliases is the built-in shorthand table.
var DefaultAliases = map[string]string{
	"@startSource": "@start @source",
	"@endSource":   "@end source",
	"@startPublic": "@start @source public",
	"@endPublic":   "@end source public",
	"@public":      "@source public",
}

type alias struct {
	name      string
	pattern   *regexp.Regexp
	expansion string
}

// Aliases rewrites shorthand directive names into their expansions.
type Aliases struct {
	table     map[string]string
	entries   []alias
	maxPasses int
}

// NewAliases builds an expander from the default table overlaid with extra.
// Keys may be given with or without the leading @.
func NewAliases(extra map[string]string, maxPasses int) *Aliases {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxAliasPasses
	}
	table := maps.Clone(DefaultAliases)
	for k, v := range extra {
		k = strings.TrimSpace(k)
		if !strings.HasPrefix(k, "@") {
			k = "@" + k
		}
		table[k] = v
	}

	a := &Aliases{table: table, maxPasses: maxPasses}
	for _, k := range slices.Sorted(maps.Keys(table)) {
		a.entries = append(a.entries, alias{
			name: k,
			// whole token only: @public must not match @publicKey
			pattern:   regexp.MustCompile(regexp.QuoteMeta(k) + `\b`),
			expansion: table[k],
		})
	}
	return a
}

// Table returns a copy of the alias table.
func (a *Aliases) Table() map[string]string {
	return maps.Clone(a.table)
}

// Expand rewrites text until no alias matches. It fails with core.ErrAliasLimit
// when a rewrite reproduces an earlier text or the pass limit is reached.
func (a *Aliases) Expand(text string) (string, error) {
	seen := map[string]bool{text: true}
	for range a.maxPasses {
		changed := false
		for _, e := range a.entries {
			next := e.pattern.ReplaceAllLiteralString(text, e.expansion)
			if next == text {
				continue
			}
			if seen[next] {
				return "", fmt.Errorf("%w: %s loops back to %q", core.ErrAliasLimit, e.name, next)
			}
			seen[next] = true
			text = next
			changed = true
		}
		if !changed {
			return text, nil
		}
	}
	return "", fmt.Errorf("%w after %d passes", core.ErrAliasLimit, a.maxPasses)
}
