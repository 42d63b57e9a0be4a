package core

import "slices"

// Scope is the stack of generators opened by a start directive and not yet
// closed by a matching end. Every property added while an entry is open
// receives a fresh clone of it.
type Scope struct {
	stack []Generator
}

// NewScope creates an empty scope stack.
func NewScope() *Scope {
	return &Scope{}
}

// Push opens g.
func (s *Scope) Push(g Generator) {
	s.stack = append(s.stack, g)
}

// PopMatching removes the most recently pushed entry whose name and full
// positional argument list equal name and args. It reports whether one was found.
func (s *Scope) PopMatching(name string, args []string) bool {
	for i := len(s.stack) - 1; i >= 0; i-- {
		g := s.stack[i]
		if g.Name() == name && slices.Equal(g.Args(), args) {
			s.stack = append(s.stack[:i], s.stack[i+1:]...)
			return true
		}
	}
	return false
}

// Generators returns the open entries, oldest first.
func (s *Scope) Generators() []Generator {
	return slices.Clone(s.stack)
}

// Len returns the number of open entries.
func (s *Scope) Len() int {
	return len(s.stack)
}

// Clear closes every entry.
func (s *Scope) Clear() {
	s.stack = nil
}
