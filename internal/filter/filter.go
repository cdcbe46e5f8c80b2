// Package filter implements LDAP-style (RFC 1960) filters over attribute maps.
//
// Grammar:
//
//	filter     = "(" filtercomp ")"
//	filtercomp = "&" filter+ | "|" filter+ | "!" filter | item
//	item       = attr ("=" | "~=" | ">=" | "<=") value | attr "=*" | attr "=" substring
//
// A sequence of filters at top level, "(a=1)(b=2)", is read as their conjunction.
package filter

import (
	"strings"
)

// Op identifies the kind of a filter node.
type Op int

const (
	OpAnd Op = iota
	OpOr
	OpNot
	OpEqual
	OpApprox
	OpGreaterEq
	OpLessEq
	OpPresent
	OpSubstring
)

func (o Op) String() string {
	switch o {
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpNot:
		return "!"
	case OpEqual, OpSubstring:
		return "="
	case OpApprox:
		return "~="
	case OpGreaterEq:
		return ">="
	case OpLessEq:
		return "<="
	case OpPresent:
		return "=*"
	}
	return "?"
}

// Attributes is the attribute source a filter is evaluated against. Lookup must
// treat keys case-insensitively and return the typed value: string,
// semver.Version, int64, float64, bool, or a slice of those.
type Attributes interface {
	Lookup(key string) (any, bool)
}

// Map is a plain Attributes implementation.
type Map map[string]any

func (m Map) Lookup(key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Filter is a parsed, immutable filter expression. A nil *Filter matches
// everything.
type Filter struct {
	op       Op
	attr     string
	value    string
	parts    []string
	children []*Filter
}

// MatchAll returns the filter that matches every attribute set.
func MatchAll() *Filter { return nil }

func (f *Filter) Op() Op              { return f.op }
func (f *Filter) Attr() string        { return f.attr }
func (f *Filter) Value() string       { return f.value }
func (f *Filter) Children() []*Filter { return f.children }

// Matches evaluates the filter. It has no side effects.
func (f *Filter) Matches(attrs Attributes) bool {
	if f == nil {
		return true
	}
	switch f.op {
	case OpAnd:
		for _, c := range f.children {
			if !c.Matches(attrs) {
				return false
			}
		}
		return true
	case OpOr:
		for _, c := range f.children {
			if c.Matches(attrs) {
				return true
			}
		}
		return false
	case OpNot:
		return !f.children[0].Matches(attrs)
	}

	if attrs == nil {
		return false
	}
	v, ok := attrs.Lookup(f.attr)
	if !ok || v == nil {
		return false
	}
	if f.op == OpPresent {
		return true
	}
	return f.compare(v)
}

// String returns the normalized filter text.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	f.write(&b)
	return b.String()
}

func (f *Filter) write(b *strings.Builder) {
	b.WriteByte('(')
	switch f.op {
	case OpAnd, OpOr, OpNot:
		b.WriteString(f.op.String())
		for _, c := range f.children {
			c.write(b)
		}
	case OpPresent:
		b.WriteString(f.attr)
		b.WriteString("=*")
	case OpSubstring:
		b.WriteString(f.attr)
		b.WriteByte('=')
		for i, p := range f.parts {
			if i > 0 {
				b.WriteByte('*')
			}
			b.WriteString(Escape(p))
		}
	default:
		b.WriteString(f.attr)
		b.WriteString(f.op.String())
		b.WriteString(Escape(f.value))
	}
	b.WriteByte(')')
}

// Escape quotes the characters that are special inside a filter value.
func Escape(s string) string {
	if !strings.ContainsAny(s, `()*\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '(', ')', '*', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
