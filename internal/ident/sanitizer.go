// Package ident turns catalog names into identifiers that generated client
// code can use verbatim as type and member names. Sanitising is pure; the
// only state is the per-scope collision counter held by Scope.
package ident

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// identifierRegex matches output that needs no further work. Most catalog
// names already do, so this short-circuits the rune walk.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Target describes the language generated code is emitted in: its reserved
// words and how it escapes an identifier that collides with one.
type Target struct {
	Name     string
	reserved map[string]bool
	escape   func(string) string
}

// Reserved reports whether id is a reserved word of the target.
func (t Target) Reserved(id string) bool {
	return t.reserved[id]
}

// Sanitize converts a raw catalog name into a valid identifier for the
// target. Every rune that is not a letter, digit or underscore becomes an
// underscore, a leading digit gets an underscore prefix, the empty string
// becomes "_", and reserved words are escaped.
func (t Target) Sanitize(raw string) string {
	return t.escapeReserved(clean(raw))
}

func (t Target) escapeReserved(id string) string {
	if t.reserved[id] && t.escape != nil {
		return t.escape(id)
	}
	return id
}

// Sanitize is Go.Sanitize.
func Sanitize(raw string) string {
	return Go.Sanitize(raw)
}

func clean(raw string) string {
	if raw == "" {
		return "_"
	}
	if identifierRegex.MatchString(raw) {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw) + 1)
	for i, r := range raw {
		if i == 0 && unicode.IsDigit(r) {
			b.WriteByte('_')
		}
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Lookup returns the target registered under name ("go" or "csharp").
func Lookup(name string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "go", "golang":
		return Go, nil
	case "csharp", "c#", "cs":
		return CSharp, nil
	default:
		return Target{}, fmt.Errorf("unknown identifier target %q (available: go, csharp)", name)
	}
}

// Scope de-duplicates identifiers within one container: the parameters of
// a routine, the columns of a result set, the entities of one kind.
// Collisions are detected case-insensitively and resolved by appending
// _1, _2, ... to later names. A Scope is not safe for concurrent use.
type Scope struct {
	target Target
	used   map[string]bool
	next   map[string]int
}

// NewScope returns an empty Scope for the target.
func NewScope(t Target) *Scope {
	return &Scope{
		target: t,
		used:   make(map[string]bool),
		next:   make(map[string]int),
	}
}

// Unique sanitises raw and returns an identifier not yet handed out by
// this scope.
func (s *Scope) Unique(raw string) string {
	base := clean(raw)
	key := strings.ToLower(base)

	for n := s.next[key]; ; n++ {
		candidate := base
		if n > 0 {
			candidate = fmt.Sprintf("%s_%d", base, n)
		}
		out := s.target.escapeReserved(candidate)
		if s.used[strings.ToLower(out)] {
			continue
		}
		s.used[strings.ToLower(out)] = true
		s.next[key] = n + 1
		return out
	}
}
