package semver

import (
	"fmt"
	"regexp"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a semantic version.
//
// This is a thin wrapper around github.com/Masterminds/semver/v3. The zero value
// is the lowest version (0.0.0).
type Version struct {
	v *mm.Version
}

// Constraint is a semantic version constraint.
//
// Examples:
// - ">=1.2.0 <2.0.0"
// - "^1.0.0"
// - "~1.4"
type Constraint struct {
	c *mm.Constraints
}

// fourSegment matches the major.minor.micro.qualifier form used by module
// manifests. The qualifier is carried over as a pre-release.
var fourSegment = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)\.([-_0-9A-Za-z]+)$`)

var zero = mm.New(0, 0, 0, "", "")

// ParseVersion parses semantic versions, short forms such as "1.5", and the
// four segment major.minor.micro.qualifier form. A qualifier becomes a
// pre-release, so "1.0.0.SNAPSHOT" orders below "1.0.0". OSGi orders it above.
func ParseVersion(raw string) (Version, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Version{}, nil
	}
	if m := fourSegment.FindStringSubmatch(text); m != nil {
		text = fmt.Sprintf("%s.%s.%s-%s", m[1], m[2], m[3], strings.ReplaceAll(m[4], "_", "-"))
	}
	v, err := mm.NewVersion(text)
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// NewVersion builds a release version from its numeric segments.
func NewVersion(major, minor, patch uint64) Version {
	return Version{v: mm.New(major, minor, patch, "", "")}
}

func (v Version) semver() *mm.Version {
	if v.v == nil {
		return zero
	}
	return v.v
}

func (v Version) Major() uint64 { return v.semver().Major() }
func (v Version) Minor() uint64 { return v.semver().Minor() }
func (v Version) Patch() uint64 { return v.semver().Patch() }

// Qualifier returns the pre-release part of the version, if any.
func (v Version) Qualifier() string { return v.semver().Prerelease() }

// IsZero reports whether v is 0.0.0 without qualifier.
func (v Version) IsZero() bool {
	return v.semver().Equal(zero)
}

func (v Version) Equal(o Version) bool {
	return Compare(v, o) == 0
}

func (v Version) String() string {
	return v.semver().String()
}

func ParseConstraint(raw string) (Constraint, error) {
	c, err := mm.NewConstraint(raw)
	if err != nil {
		return Constraint{}, fmt.Errorf("semver: parse constraint %q: %w", raw, err)
	}
	return Constraint{c: c}, nil
}

func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Constraint) String() string {
	if c.c == nil {
		return ""
	}
	return c.c.String()
}

func Satisfies(v Version, c Constraint) bool {
	if c.c == nil {
		return false
	}
	return c.c.Check(v.semver())
}

// Compare compares a and b, returning:
// -1 if a < b
//
//	0 if a == b
//	1 if a > b
//
// Numeric segments are compared first, then the qualifier; a version with a
// qualifier sorts before the same version without one.
func Compare(a, b Version) int {
	return a.semver().Compare(b.semver())
}

// MaxSatisfying returns the highest version in candidates that satisfies c.
//
// If multiple versions are equal, the first encountered wins.
func MaxSatisfying(c Constraint, candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if !Satisfies(candidate, c) {
			continue
		}
		if !found || Compare(candidate, best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}
