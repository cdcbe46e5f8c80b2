package resource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayleafwalker/bindery-resolver/internal/filter"
	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

func buildUtil(t *testing.T) *Resource {
	t.Helper()
	b := NewBuilder()
	b.Identity("com.acme.util", semver.MustParseVersion("1.5.0"), "")
	b.Capability(NamespacePackage, Attributes{
		{Name: NamespacePackage, Value: String("com.acme.util")},
		{Name: AttrVersion, Value: Version(semver.MustParseVersion("1.5"))},
	}, nil)
	_, err := b.Require(NamespacePackage, Directives{DirectiveFilter: "(osgi.wiring.package=org.log)"})
	require.NoError(t, err)
	_, err = b.Require(NamespaceExecutionEnvironment, Directives{
		DirectiveFilter:     "(osgi.ee=JavaSE)",
		DirectiveResolution: ResolutionOptional,
	})
	require.NoError(t, err)

	r, err := b.Build(DefaultValidators())
	require.NoError(t, err)
	return r
}

func TestBuilder_BuildsResourceWithBackReferences(t *testing.T) {
	r := buildUtil(t)

	assert.Equal(t, "com.acme.util", r.Name())
	assert.Equal(t, "1.5.0", r.Version().String())
	assert.Equal(t, TypeBundle, r.Type())
	assert.Equal(t, "com.acme.util@1.5.0", r.String())

	require.Len(t, r.Capabilities(""), 2)
	require.Len(t, r.Capabilities(NamespacePackage), 1)
	for _, c := range r.Capabilities("") {
		assert.Same(t, r, c.Resource())
	}
	require.Len(t, r.Requirements(""), 2)
	for _, req := range r.Requirements("") {
		assert.Same(t, r, req.Resource())
	}
	assert.True(t, r.Requirements(NamespaceExecutionEnvironment)[0].IsOptional())
	assert.False(t, r.Requirements(NamespacePackage)[0].IsOptional())
}

func TestBuilder_RemoveBySyntheticID(t *testing.T) {
	b := NewBuilder()
	b.Identity("a", semver.MustParseVersion("1"), "")
	attrs := Attributes{{Name: NamespacePackage, Value: String("p")}, {Name: AttrVersion, Value: String("1.0")}}
	first := b.Capability(NamespacePackage, attrs, nil)
	second := b.Capability(NamespacePackage, attrs, nil)
	assert.NotEqual(t, first, second)

	assert.True(t, b.Remove(first))
	assert.False(t, b.Remove(first))
	assert.Equal(t, 2, b.Len())

	r, err := b.Build(DefaultValidators())
	require.NoError(t, err)
	assert.Len(t, r.Capabilities(NamespacePackage), 1)
}

func TestBuilder_ValidationErrors(t *testing.T) {
	t.Run("missing identity", func(t *testing.T) {
		_, err := NewBuilder().Build(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing identity")
	})

	t.Run("two identities", func(t *testing.T) {
		b := NewBuilder()
		b.Identity("a", semver.MustParseVersion("1"), "")
		b.Identity("b", semver.MustParseVersion("1"), "")
		_, err := b.Build(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "more than one identity")
	})

	t.Run("package without version", func(t *testing.T) {
		b := NewBuilder()
		b.Identity("a", semver.MustParseVersion("1"), "")
		b.Capability(NamespacePackage, Attributes{{Name: NamespacePackage, Value: String("p")}}, nil)
		_, err := b.Build(DefaultValidators())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `missing "version" attribute`)
	})

	t.Run("bundle uses bundle-version", func(t *testing.T) {
		b := NewBuilder()
		b.Identity("a", semver.MustParseVersion("1"), "")
		b.Capability(NamespaceBundle, Attributes{
			{Name: NamespaceBundle, Value: String("a")},
			{Name: AttrBundleVersion, Value: Long(3)},
		}, nil)
		_, err := b.Build(DefaultValidators())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "want Version")
	})

	t.Run("custom namespace check", func(t *testing.T) {
		v := NewValidators()
		v.Register("game.engine", func(c *Capability) error {
			if _, ok := c.Attributes().Get("tick-rate"); !ok {
				return errors.New("tick-rate required")
			}
			return nil
		})
		b := NewBuilder()
		b.Identity("a", semver.MustParseVersion("1"), "")
		b.Capability("game.engine", nil, nil)
		_, err := b.Build(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tick-rate required")
	})
}

func TestNewRequirement_FilterSyntaxErrorSurfacesAtConstruction(t *testing.T) {
	_, err := NewRequirement(NamespacePackage, Directives{DirectiveFilter: "(osgi.wiring.package=p"})
	var syn *filter.SyntaxError
	require.True(t, errors.As(err, &syn))

	_, err = NewRequirement("", nil)
	assert.Error(t, err)
}

func TestRequirement_MatchesCapability(t *testing.T) {
	r := buildUtil(t)
	pkg := r.Capabilities(NamespacePackage)[0]

	req, err := NewPackageRequirement("com.acme.util", semver.MustParseRange("[1.0,2.0)"))
	require.NoError(t, err)
	assert.True(t, req.Matches(pkg))
	assert.Equal(t, "osgi.wiring.package: (&(osgi.wiring.package=com.acme.util)(version>=1.0.0)(!(version>=2.0.0)))", req.String())

	vr, ok := req.VersionRange()
	require.True(t, ok)
	assert.Equal(t, "[1.0.0,2.0.0)", vr.String())

	req, err = NewPackageRequirement("com.acme.util", semver.MustParseRange("2.0"))
	require.NoError(t, err)
	assert.False(t, req.Matches(pkg))

	all, err := NewRequirement(NamespacePackage, nil)
	require.NoError(t, err)
	assert.Nil(t, all.Filter())
	assert.True(t, all.Matches(pkg))
	assert.False(t, all.Matches(r.Identity()))
}

func TestIdentityRequirement(t *testing.T) {
	r := buildUtil(t)

	req, err := NewIdentityRequirement("com.acme.util", semver.Range{})
	require.NoError(t, err)
	assert.True(t, req.Matches(r.Identity()))
	assert.Equal(t, "(osgi.identity=com.acme.util)", req.Filter().String())

	_, err = NewIdentityRequirement("x", semver.MustParseRange("^1.0"))
	assert.ErrorIs(t, err, semver.ErrNotInterval)
}

func TestEffectiveAndCardinalityDirectives(t *testing.T) {
	c := NewCapability("x", nil, Directives{DirectiveEffective: EffectiveActive, DirectiveCardinality: CardinalitySingle})
	assert.False(t, c.IsEffective())
	assert.True(t, c.IsEffective(EffectiveActive))
	assert.True(t, c.IsSingleton())

	req, err := NewRequirement("x", Directives{DirectiveCardinality: CardinalityMultiple})
	require.NoError(t, err)
	assert.True(t, req.IsEffective())
	assert.True(t, req.IsMultiple())
}

func TestNewInitial_AdoptsDetachedRequirements(t *testing.T) {
	owned := buildUtil(t).Requirements(NamespacePackage)[0]
	detached, err := NewPackageRequirement("p", semver.Range{})
	require.NoError(t, err)

	initial, reqs := NewInitial([]*Requirement{detached, owned})
	assert.True(t, initial.IsInitial())
	require.Len(t, reqs, 2)
	assert.Same(t, initial, reqs[0].Resource())
	assert.Same(t, owned, reqs[1])
	assert.Nil(t, detached.Resource())
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		typ  Type
		raw  string
		want any
	}{
		{"", "x", "x"},
		{TypeLong, " 42 ", int64(42)},
		{TypeDouble, "2.5", 2.5},
		{TypeBool, "true", true},
		{TypeStringList, "a, b", []string{"a", "b"}},
		{TypeLongList, "1,2", []int64{1, 2}},
		{TypeVersion, "1.2", semver.MustParseVersion("1.2")},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+tt.raw, func(t *testing.T) {
			v, err := ParseValue(tt.typ, tt.raw)
			require.NoError(t, err)
			if want, ok := tt.want.(semver.Version); ok {
				assert.True(t, want.Equal(v.Raw().(semver.Version)))
				return
			}
			assert.Equal(t, tt.want, v.Raw())
		})
	}

	for _, bad := range []struct {
		typ Type
		raw string
	}{{TypeLong, "x"}, {TypeVersion, "a.b"}, {"Map", "x"}, {TypeLongList, "1,x"}} {
		_, err := ParseValue(bad.typ, bad.raw)
		assert.Error(t, err, "%s %q", bad.typ, bad.raw)
	}
}

func TestAttributes_OrderedAndCaseInsensitive(t *testing.T) {
	a := Attributes{}.With("Name", String("x")).With("version", String("1")).With("NAME", String("y"))
	require.Len(t, a, 2)
	assert.Equal(t, "Name", a[0].Name)
	v, ok := a.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "y", v)
	assert.Equal(t, "Name=y; version=1", a.String())
}
