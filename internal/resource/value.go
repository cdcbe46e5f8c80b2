package resource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

// Type is the declared type of an attribute value.
type Type string

const (
	TypeString      Type = "String"
	TypeVersion     Type = "Version"
	TypeLong        Type = "Long"
	TypeDouble      Type = "Double"
	TypeBool        Type = "Boolean"
	TypeStringList  Type = "List<String>"
	TypeVersionList Type = "List<Version>"
	TypeLongList    Type = "List<Long>"
	TypeDoubleList  Type = "List<Double>"
)

// Value is a typed attribute value. The zero Value is an empty string.
type Value struct {
	typ Type
	v   any
}

func String(s string) Value { return Value{typ: TypeString, v: s} }
func Version(v semver.Version) Value { return Value{typ: TypeVersion, v: v} }
func Long(n int64) Value { return Value{typ: TypeLong, v: n} }
func Double(f float64) Value { return Value{typ: TypeDouble, v: f} }
func Bool(b bool) Value { return Value{typ: TypeBool, v: b} }
func StringList(s ...string) Value { return Value{typ: TypeStringList, v: append([]string(nil), s...)} }
func LongList(n ...int64) Value { return Value{typ: TypeLongList, v: append([]int64(nil), n...)} }
func DoubleList(f ...float64) Value { return Value{typ: TypeDoubleList, v: append([]float64(nil), f...)} }
func VersionList(v ...semver.Version) Value {
	return Value{typ: TypeVersionList, v: append([]semver.Version(nil), v...)}
}

// ParseValue converts raw text to a value of the given type. An empty type means
// String. List elements are separated by commas.
func ParseValue(typ Type, raw string) (Value, error) {
	text := strings.TrimSpace(raw)
	switch typ {
	case "", TypeString:
		return String(raw), nil
	case TypeVersion:
		v, err := semver.ParseVersion(text)
		if err != nil {
			return Value{}, err
		}
		return Version(v), nil
	case TypeLong:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("resource: parse Long %q: %w", raw, err)
		}
		return Long(n), nil
	case TypeDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("resource: parse Double %q: %w", raw, err)
		}
		return Double(f), nil
	case TypeBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("resource: parse Boolean %q: %w", raw, err)
		}
		return Bool(b), nil
	case TypeStringList:
		return StringList(splitList(raw)...), nil
	case TypeVersionList:
		var out []semver.Version
		for _, e := range splitList(raw) {
			v, err := semver.ParseVersion(e)
			if err != nil {
				return Value{}, err
			}
			out = append(out, v)
		}
		return VersionList(out...), nil
	case TypeLongList:
		var out []int64
		for _, e := range splitList(raw) {
			n, err := strconv.ParseInt(e, 10, 64)
			if err != nil {
				return Value{}, fmt.Errorf("resource: parse List<Long> element %q: %w", e, err)
			}
			out = append(out, n)
		}
		return LongList(out...), nil
	case TypeDoubleList:
		var out []float64
		for _, e := range splitList(raw) {
			f, err := strconv.ParseFloat(e, 64)
			if err != nil {
				return Value{}, fmt.Errorf("resource: parse List<Double> element %q: %w", e, err)
			}
			out = append(out, f)
		}
		return DoubleList(out...), nil
	}
	return Value{}, fmt.Errorf("resource: unknown attribute type %q", typ)
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (v Value) Type() Type {
	if v.typ == "" {
		return TypeString
	}
	return v.typ
}

// Raw returns the Go value used for filter matching.
func (v Value) Raw() any {
	if v.v == nil {
		return ""
	}
	return v.v
}

func (v Value) String() string {
	switch x := v.Raw().(type) {
	case string:
		return x
	case semver.Version:
		return x.String()
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []string:
		return strings.Join(x, ",")
	case []semver.Version:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = e.String()
		}
		return strings.Join(parts, ",")
	case []int64:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = strconv.FormatInt(e, 10)
		}
		return strings.Join(parts, ",")
	case []float64:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = strconv.FormatFloat(e, 'g', -1, 64)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v.v)
}

// Attribute is a named value.
type Attribute struct {
	Name  string
	Value Value
}

// Attributes is an ordered attribute list. Names are unique ignoring case.
type Attributes []Attribute

// With returns a copy of a with name set to value. An existing attribute of
// the same name keeps its position.
func (a Attributes) With(name string, value Value) Attributes {
	out := make(Attributes, len(a), len(a)+1)
	copy(out, a)
	for i := range out {
		if strings.EqualFold(out[i].Name, name) {
			out[i].Value = value
			return out
		}
	}
	return append(out, Attribute{Name: name, Value: value})
}

// Get returns the attribute value for name, ignoring case.
func (a Attributes) Get(name string) (Value, bool) {
	for _, attr := range a {
		if strings.EqualFold(attr.Name, name) {
			return attr.Value, true
		}
	}
	return Value{}, false
}

// Lookup implements filter.Attributes.
func (a Attributes) Lookup(key string) (any, bool) {
	v, ok := a.Get(key)
	if !ok {
		return nil, false
	}
	return v.Raw(), true
}

func (a Attributes) String() string {
	parts := make([]string, len(a))
	for i, attr := range a {
		parts[i] = attr.Name + "=" + attr.Value.String()
	}
	return strings.Join(parts, "; ")
}

// Directives holds directive values by name.
type Directives map[string]string

func (d Directives) Get(name string) string {
	if d == nil {
		return ""
	}
	return d[name]
}

func (d Directives) Clone() Directives {
	if d == nil {
		return nil
	}
	out := make(Directives, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
