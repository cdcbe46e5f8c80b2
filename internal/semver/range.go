package semver

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotInterval is returned when a constraint-based Range is asked for an
// interval-only representation.
var ErrNotInterval = errors.New("semver: range is not an interval")

// Range is a version interval.
//
// Syntax:
//   - "1.0"           at least 1.0, unbounded above
//   - "[1.0,2.0)"     bracket = inclusive, parenthesis = exclusive
//   - "^1.2", ">=1 <2" any other text is read as a constraint expression
//
// The zero Range includes every version.
type Range struct {
	low           Version
	high          Version
	lowInclusive  bool
	highInclusive bool
	bounded       bool
	constraint    *Constraint
	set           bool
}

// AtLeast returns the range [v, ∞).
func AtLeast(v Version) Range {
	return Range{low: v, lowInclusive: true, set: true}
}

// Interval returns the range between low and high with the given bound kinds.
func Interval(low Version, lowInclusive bool, high Version, highInclusive bool) (Range, error) {
	r := Range{
		low:           low,
		high:          high,
		lowInclusive:  lowInclusive,
		highInclusive: highInclusive,
		bounded:       true,
		set:           true,
	}
	if r.IsEmpty() {
		return Range{}, fmt.Errorf("semver: empty range %s", r.String())
	}
	return r, nil
}

// Above returns the range (v, ∞).
func Above(v Version) Range {
	return Range{low: v, set: true}
}

// Exact returns the range [v,v].
func Exact(v Version) Range {
	return Range{low: v, high: v, lowInclusive: true, highInclusive: true, bounded: true, set: true}
}

func ParseRange(raw string) (Range, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Range{}, fmt.Errorf("semver: parse range %q: empty", raw)
	}

	first := text[0]
	if first == '[' || first == '(' {
		last := text[len(text)-1]
		if last != ']' && last != ')' {
			return Range{}, fmt.Errorf("semver: parse range %q: missing closing bracket", raw)
		}
		body := text[1 : len(text)-1]
		parts := strings.Split(body, ",")
		if len(parts) != 2 {
			return Range{}, fmt.Errorf("semver: parse range %q: expected low,high", raw)
		}
		low, err := ParseVersion(parts[0])
		if err != nil {
			return Range{}, fmt.Errorf("semver: parse range %q: %w", raw, err)
		}
		high, err := ParseVersion(parts[1])
		if err != nil {
			return Range{}, fmt.Errorf("semver: parse range %q: %w", raw, err)
		}
		r, err := Interval(low, first == '[', high, last == ']')
		if err != nil {
			return Range{}, fmt.Errorf("semver: parse range %q: %w", raw, err)
		}
		return r, nil
	}

	if v, err := ParseVersion(text); err == nil {
		return AtLeast(v), nil
	}

	c, err := ParseConstraint(text)
	if err != nil {
		return Range{}, fmt.Errorf("semver: parse range %q: %w", raw, err)
	}
	return Range{constraint: &c, set: true}, nil
}

func MustParseRange(raw string) Range {
	r, err := ParseRange(raw)
	if err != nil {
		panic(err)
	}
	return r
}

// Includes reports whether v lies within the range.
func (r Range) Includes(v Version) bool {
	if !r.set {
		return true
	}
	if r.constraint != nil {
		return Satisfies(v, *r.constraint)
	}

	c := Compare(v, r.low)
	if c < 0 || (c == 0 && !r.lowInclusive) {
		return false
	}
	if !r.bounded {
		return true
	}
	c = Compare(v, r.high)
	return c < 0 || (c == 0 && r.highInclusive)
}

// IsEmpty reports whether no version can satisfy the range.
func (r Range) IsEmpty() bool {
	if !r.set || r.constraint != nil || !r.bounded {
		return false
	}
	c := Compare(r.low, r.high)
	if c > 0 {
		return true
	}
	return c == 0 && !(r.lowInclusive && r.highInclusive)
}

// Low returns the lower bound and whether it is inclusive.
func (r Range) Low() (Version, bool) { return r.low, r.lowInclusive }

// High returns the upper bound, whether it is inclusive, and whether the range
// has an upper bound at all.
func (r Range) High() (Version, bool, bool) { return r.high, r.highInclusive, r.bounded }

// Intersect returns the overlap of two interval ranges.
func (r Range) Intersect(o Range) (Range, error) {
	if r.constraint != nil || o.constraint != nil {
		return Range{}, ErrNotInterval
	}
	if !r.set {
		return o, nil
	}
	if !o.set {
		return r, nil
	}

	out := r
	switch c := Compare(o.low, r.low); {
	case c > 0:
		out.low, out.lowInclusive = o.low, o.lowInclusive
	case c == 0:
		out.lowInclusive = r.lowInclusive && o.lowInclusive
	}
	if o.bounded {
		if !out.bounded {
			out.high, out.highInclusive, out.bounded = o.high, o.highInclusive, true
		} else {
			switch c := Compare(o.high, r.high); {
			case c < 0:
				out.high, out.highInclusive = o.high, o.highInclusive
			case c == 0:
				out.highInclusive = r.highInclusive && o.highInclusive
			}
		}
	}
	return out, nil
}

func (r Range) String() string {
	if !r.set {
		return "0.0.0"
	}
	if r.constraint != nil {
		return r.constraint.String()
	}
	if !r.bounded {
		if r.lowInclusive {
			return r.low.String()
		}
		return "(" + r.low.String() + ",∞)"
	}
	var b strings.Builder
	if r.lowInclusive {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	b.WriteString(r.low.String())
	b.WriteByte(',')
	b.WriteString(r.high.String())
	if r.highInclusive {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

// Filter renders the range as an LDAP filter over attr, e.g.
// "(&(version>=1.0.0)(!(version>=2.0.0)))".
func (r Range) Filter(attr string) (string, error) {
	terms, err := r.FilterTerms(attr)
	if err != nil {
		return "", err
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return "(&" + strings.Join(terms, "") + ")", nil
}

// FilterTerms returns the bound terms of Filter without the enclosing
// conjunction.
func (r Range) FilterTerms(attr string) ([]string, error) {
	if r.constraint != nil {
		return nil, ErrNotInterval
	}
	var terms []string
	if r.lowInclusive || !r.set {
		terms = append(terms, fmt.Sprintf("(%s>=%s)", attr, r.low))
	} else {
		terms = append(terms, fmt.Sprintf("(!(%s<=%s))", attr, r.low))
	}
	if r.bounded {
		if r.highInclusive {
			terms = append(terms, fmt.Sprintf("(%s<=%s)", attr, r.high))
		} else {
			terms = append(terms, fmt.Sprintf("(!(%s>=%s))", attr, r.high))
		}
	}
	return terms, nil
}
