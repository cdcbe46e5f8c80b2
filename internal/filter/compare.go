package filter

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

// compare evaluates a leaf node against a looked-up attribute value. The filter
// value is converted to the attribute's type; if that fails the node is false.
func (f *Filter) compare(v any) bool {
	switch x := v.(type) {
	case string:
		return f.compareString(x)
	case semver.Version:
		return f.compareVersion(x)
	case int64:
		return f.compareInt(x)
	case int:
		return f.compareInt(int64(x))
	case int32:
		return f.compareInt(int64(x))
	case float64:
		return f.compareFloat(x)
	case bool:
		return f.compareBool(x)
	case []string:
		for _, e := range x {
			if f.compareString(e) {
				return true
			}
		}
	case []semver.Version:
		for _, e := range x {
			if f.compareVersion(e) {
				return true
			}
		}
	case []int64:
		for _, e := range x {
			if f.compareInt(e) {
				return true
			}
		}
	case []float64:
		for _, e := range x {
			if f.compareFloat(e) {
				return true
			}
		}
	case []bool:
		for _, e := range x {
			if f.compareBool(e) {
				return true
			}
		}
	case []any:
		for _, e := range x {
			if e != nil && f.compare(e) {
				return true
			}
		}
	}
	return false
}

func (f *Filter) compareString(s string) bool {
	switch f.op {
	case OpEqual:
		return s == f.value
	case OpApprox:
		return approx(s) == approx(f.value)
	case OpGreaterEq:
		return s >= f.value
	case OpLessEq:
		return s <= f.value
	case OpSubstring:
		return matchSubstring(s, f.parts)
	}
	return false
}

func (f *Filter) compareVersion(v semver.Version) bool {
	if f.op == OpSubstring {
		return matchSubstring(v.String(), f.parts)
	}
	want, err := semver.ParseVersion(f.value)
	if err != nil {
		return false
	}
	c := semver.Compare(v, want)
	switch f.op {
	case OpEqual, OpApprox:
		return c == 0
	case OpGreaterEq:
		return c >= 0
	case OpLessEq:
		return c <= 0
	}
	return false
}

func (f *Filter) compareInt(n int64) bool {
	if f.op == OpSubstring {
		return matchSubstring(strconv.FormatInt(n, 10), f.parts)
	}
	want, err := strconv.ParseInt(strings.TrimSpace(f.value), 10, 64)
	if err != nil {
		return false
	}
	switch f.op {
	case OpEqual, OpApprox:
		return n == want
	case OpGreaterEq:
		return n >= want
	case OpLessEq:
		return n <= want
	}
	return false
}

func (f *Filter) compareFloat(n float64) bool {
	if f.op == OpSubstring {
		return false
	}
	want, err := strconv.ParseFloat(strings.TrimSpace(f.value), 64)
	if err != nil {
		return false
	}
	switch f.op {
	case OpEqual, OpApprox:
		return n == want
	case OpGreaterEq:
		return n >= want
	case OpLessEq:
		return n <= want
	}
	return false
}

func (f *Filter) compareBool(b bool) bool {
	if f.op != OpEqual && f.op != OpApprox {
		return false
	}
	want, err := strconv.ParseBool(strings.TrimSpace(f.value))
	if err != nil {
		return false
	}
	return b == want
}

// approx folds case and drops whitespace.
func approx(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// matchSubstring matches s against parts split on '*'. The first part anchors
// the start and the last part anchors the end; empty parts are wildcards only.
func matchSubstring(s string, parts []string) bool {
	if len(parts) == 0 {
		return false
	}
	first, last := parts[0], parts[len(parts)-1]
	if !strings.HasPrefix(s, first) {
		return false
	}
	rest := s[len(first):]
	for _, mid := range parts[1 : len(parts)-1] {
		i := strings.Index(rest, mid)
		if i < 0 {
			return false
		}
		rest = rest[i+len(mid):]
	}
	if len(parts) == 1 {
		return rest == ""
	}
	return strings.HasSuffix(rest, last)
}
