package filter

import (
	"strings"

	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

// ExtractRange derives the version interval a filter places on attr. Only
// conjunctions of >=, <=, = and negated >=, <= terms are understood. It returns
// false when attr is not constrained, or is constrained in a way that is not a
// single interval (for example inside an Or).
func ExtractRange(f *Filter, attr string) (semver.Range, bool) {
	r, found, ok := extract(f, attr)
	if !ok || !found {
		return semver.Range{}, false
	}
	return r, true
}

func extract(f *Filter, attr string) (semver.Range, bool, bool) {
	if f == nil {
		return semver.Range{}, false, true
	}
	switch f.op {
	case OpAnd:
		var out semver.Range
		found := false
		for _, c := range f.children {
			r, ok, valid := extract(c, attr)
			if !valid {
				return semver.Range{}, false, false
			}
			if !ok {
				continue
			}
			merged, err := out.Intersect(r)
			if err != nil {
				return semver.Range{}, false, false
			}
			out, found = merged, true
		}
		return out, found, true
	case OpOr:
		if mentions(f, attr) {
			return semver.Range{}, false, false
		}
		return semver.Range{}, false, true
	case OpNot:
		c := f.children[0]
		if !strings.EqualFold(c.attr, attr) || c.children != nil {
			if mentions(c, attr) {
				return semver.Range{}, false, false
			}
			return semver.Range{}, false, true
		}
		v, err := semver.ParseVersion(c.value)
		if err != nil {
			return semver.Range{}, false, false
		}
		switch c.op {
		case OpGreaterEq:
			r, err := semver.Interval(semver.Version{}, true, v, false)
			if err != nil {
				return semver.Range{}, false, false
			}
			return r, true, true
		case OpLessEq:
			return semver.Above(v), true, true
		}
		return semver.Range{}, false, false
	}

	if !strings.EqualFold(f.attr, attr) {
		return semver.Range{}, false, true
	}
	if f.op == OpPresent {
		return semver.Range{}, false, true
	}
	v, err := semver.ParseVersion(f.value)
	if err != nil {
		return semver.Range{}, false, false
	}
	switch f.op {
	case OpGreaterEq:
		return semver.AtLeast(v), true, true
	case OpLessEq:
		r, err := semver.Interval(semver.Version{}, true, v, true)
		if err != nil {
			return semver.Range{}, false, false
		}
		return r, true, true
	case OpEqual:
		return semver.Exact(v), true, true
	}
	return semver.Range{}, false, false
}

func mentions(f *Filter, attr string) bool {
	if f == nil {
		return false
	}
	if strings.EqualFold(f.attr, attr) {
		return true
	}
	for _, c := range f.children {
		if mentions(c, attr) {
			return true
		}
	}
	return false
}
