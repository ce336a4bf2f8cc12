package vmodel

import (
	"fmt"
	"strconv"
	"strings"
)

// Path locates a value from the validated root. Segments are field names or
// map keys (string) and list indexes (int).
type Path []any

// PathOf builds a Path from segments. Integer kinds become indexes; anything
// else is rendered with fmt.Sprint.
func PathOf(segs ...any) Path {
	p := make(Path, 0, len(segs))
	for _, s := range segs {
		switch t := s.(type) {
		case string:
			p = append(p, t)
		case int:
			p = append(p, t)
		case int64:
			p = append(p, int(t))
		case int32:
			p = append(p, int(t))
		default:
			p = append(p, fmt.Sprint(t))
		}
	}
	return p
}

// Field returns a copy of p extended with a field name or map key.
func (p Path) Field(name string) Path {
	return append(append(make(Path, 0, len(p)+1), p...), name)
}

// Index returns a copy of p extended with a list index.
func (p Path) Index(i int) Path {
	return append(append(make(Path, 0, len(p)+1), p...), i)
}

// Join returns a copy of p followed by child.
func (p Path) Join(child Path) Path {
	out := make(Path, 0, len(p)+len(child))
	out = append(out, p...)
	return append(out, child...)
}

// String renders the path with dots (usage.flat.0.tier). The empty path
// renders as __root__.
func (p Path) String() string {
	if len(p) == 0 {
		return "__root__"
	}
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = segmentString(s)
	}
	return strings.Join(parts, ".")
}

// Pointer renders the path as an RFC 6901 JSON Pointer (/usage/flat/0/tier).
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, s := range p {
		b.WriteByte('/')
		// escape '~' -> '~0', '/' -> '~1' per RFC6901
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(segmentString(s), "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// Equal compares segments one by one.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

func segmentString(s any) string {
	switch t := s.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}
