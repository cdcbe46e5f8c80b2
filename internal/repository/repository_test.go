package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

type modSpec struct {
	name, version string
	provides      map[string]string // package -> version
	requires      []string
	extraCaps     int
}

func mod(t *testing.T, s modSpec) *resource.Resource {
	t.Helper()
	b := resource.NewBuilder()
	b.Identity(s.name, semver.MustParseVersion(s.version), "")
	for pkg, v := range s.provides {
		attrs := resource.Attributes{{Name: resource.NamespacePackage, Value: resource.String(pkg)}}
		if v != "" {
			attrs = attrs.With(resource.AttrVersion, resource.Version(semver.MustParseVersion(v)))
		}
		b.Capability(resource.NamespacePackage, attrs, nil)
	}
	for i := 0; i < s.extraCaps; i++ {
		b.Capability("extra", resource.Attributes{{Name: "extra", Value: resource.Long(int64(i))}}, nil)
	}
	for _, f := range s.requires {
		_, err := b.Require(resource.NamespacePackage, resource.Directives{resource.DirectiveFilter: f})
		require.NoError(t, err)
	}
	r, err := b.Build(nil)
	require.NoError(t, err)
	return r
}

func pkgReq(t *testing.T, filterText string) *resource.Requirement {
	t.Helper()
	r, err := resource.NewRequirement(resource.NamespacePackage, resource.Directives{resource.DirectiveFilter: filterText})
	require.NoError(t, err)
	return r
}

func owners(caps []*resource.Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = c.Resource().String()
	}
	return out
}

type repoFunc func(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error)

func (f repoFunc) FindProviders(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error) {
	return f(ctx, req)
}

func TestMemoryDeclarationOrder(t *testing.T) {
	a := mod(t, modSpec{name: "a", version: "1.0.0", provides: map[string]string{"p": "1.0.0"}})
	b := mod(t, modSpec{name: "b", version: "1.0.0", provides: map[string]string{"p": "2.0.0"}})
	m := NewMemory(a)
	m.Add(b)

	caps, err := m.FindProviders(context.Background(), pkgReq(t, "(osgi.wiring.package=p)"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@1.0.0", "b@1.0.0"}, owners(caps))
	assert.Len(t, m.Resources(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Candidates(ctx, pkgReq(t, "(osgi.wiring.package=p)"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregateComparator(t *testing.T) {
	older := mod(t, modSpec{name: "old", version: "1.0.0", provides: map[string]string{"p": "1.0.0"}})
	newer := mod(t, modSpec{name: "new", version: "1.0.0", provides: map[string]string{"p": "1.2.0"}})
	heavy := mod(t, modSpec{name: "heavy", version: "1.0.0", provides: map[string]string{"p": "1.2.0"}, requires: []string{"(osgi.wiring.package=q)"}})
	rich := mod(t, modSpec{name: "rich", version: "1.0.0", provides: map[string]string{"p": "1.2.0"}, extraCaps: 2})
	low := mod(t, modSpec{name: "low", version: "1.0.0", provides: map[string]string{"p": "1.2.0"}, extraCaps: 2})

	agg := NewAggregate(AggregateOptions{Repositories: []Repository{
		NewMemory(older, heavy, newer, rich),
		NewMemory(low),
	}})
	caps, err := agg.FindProviders(context.Background(), pkgReq(t, "(osgi.wiring.package=p)"))
	require.NoError(t, err)
	assert.Equal(t, []string{"rich@1.0.0", "low@1.0.0", "new@1.0.0", "heavy@1.0.0", "old@1.0.0"}, owners(caps))
	assert.Negative(t, agg.Compare(caps[0], caps[1]))
}

func TestAggregateIdentityVersionOrder(t *testing.T) {
	v1 := mod(t, modSpec{name: "lib", version: "1.0.0"})
	v2 := mod(t, modSpec{name: "lib", version: "2.0.0"})
	agg := NewAggregate(AggregateOptions{Repositories: []Repository{NewMemory(v1, v2)}})

	req, err := resource.NewIdentityRequirement("lib", semver.Range{})
	require.NoError(t, err)
	caps, err := agg.Candidates(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib@2.0.0", "lib@1.0.0"}, owners(caps))
}

func TestAggregateFirstStageAndFiltering(t *testing.T) {
	system := mod(t, modSpec{name: "system", version: "0.1.0", provides: map[string]string{"p": "0.1.0"}})
	mandatory := mod(t, modSpec{name: "core", version: "1.0.0", provides: map[string]string{"p": "0.5.0"}})
	dup := mod(t, modSpec{name: "core", version: "1.0.0", provides: map[string]string{"p": "9.0.0"}})
	banned := mod(t, modSpec{name: "banned", version: "1.0.0", provides: map[string]string{"p": "5.0.0"}})
	ok := mod(t, modSpec{name: "ok", version: "1.0.0", provides: map[string]string{"p": "2.0.0"}})

	b := resource.NewBuilder()
	b.Identity("inactive", semver.MustParseVersion("1.0.0"), "")
	b.Capability(resource.NamespacePackage, resource.Attributes{
		{Name: resource.NamespacePackage, Value: resource.String("p")},
		{Name: resource.AttrVersion, Value: resource.Version(semver.MustParseVersion("9.9.9"))},
	}, resource.Directives{resource.DirectiveEffective: resource.EffectiveActive})
	inactive, err := b.Build(nil)
	require.NoError(t, err)

	ban, err := resource.NewIdentityRequirement("banned", semver.Range{})
	require.NoError(t, err)

	agg := NewAggregate(AggregateOptions{
		System:       system,
		Mandatory:    []*resource.Resource{mandatory},
		Repositories: []Repository{NewMemory(dup, banned, inactive, ok)},
		Blacklist:    []*resource.Requirement{ban},
	})
	caps, err := agg.FindProviders(context.Background(), pkgReq(t, "(osgi.wiring.package=p)"))
	require.NoError(t, err)
	assert.Equal(t, []string{"system@0.1.0", "core@1.0.0", "ok@1.0.0"}, owners(caps))
	assert.Same(t, mandatory, caps[1].Resource())
	assert.Zero(t, agg.Compare(caps[0], caps[1]))
	assert.Negative(t, agg.Compare(caps[1], caps[2]))

	active := NewAggregate(AggregateOptions{
		Repositories: []Repository{NewMemory(inactive)},
		Effective:    []string{resource.EffectiveActive},
	})
	caps, err = active.FindProviders(context.Background(), pkgReq(t, "(osgi.wiring.package=p)"))
	require.NoError(t, err)
	assert.Equal(t, []string{"inactive@1.0.0"}, owners(caps))
}

func TestAggregateCacheAndFailed(t *testing.T) {
	var calls atomic.Int32
	a := mod(t, modSpec{name: "a", version: "1.0.0", provides: map[string]string{"p": "1.0.0"}})
	mem := NewMemory(a)
	agg := NewAggregate(AggregateOptions{Repositories: []Repository{
		repoFunc(func(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error) {
			calls.Add(1)
			return mem.FindProviders(ctx, req)
		}),
	}})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		caps, err := agg.FindProviders(ctx, pkgReq(t, "(osgi.wiring.package=p)"))
		require.NoError(t, err)
		require.Len(t, caps, 1)
	}
	assert.Equal(t, int32(1), calls.Load())

	missing := pkgReq(t, "(osgi.wiring.package=missing)")
	for i := 0; i < 2; i++ {
		caps, err := agg.FindProviders(ctx, missing)
		require.NoError(t, err)
		assert.Empty(t, caps)
	}
	failed := agg.Failed()
	require.Len(t, failed, 1)
	assert.Same(t, missing, failed[0])
}

func TestAggregateRetriesTransientErrors(t *testing.T) {
	a := mod(t, modSpec{name: "a", version: "1.0.0", provides: map[string]string{"p": "1.0.0"}})
	mem := NewMemory(a)
	var calls atomic.Int32
	flaky := repoFunc(func(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("connection reset")
		}
		return mem.FindProviders(ctx, req)
	})

	agg := NewAggregate(AggregateOptions{Repositories: []Repository{flaky}, RetryInterval: time.Millisecond})
	caps, err := agg.FindProviders(context.Background(), pkgReq(t, "(osgi.wiring.package=p)"))
	require.NoError(t, err)
	assert.Len(t, caps, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAggregateTransientExhaustion(t *testing.T) {
	a := mod(t, modSpec{name: "a", version: "1.0.0", provides: map[string]string{"p": "1.0.0"}})
	var calls atomic.Int32
	down := repoFunc(func(context.Context, *resource.Requirement) ([]*resource.Capability, error) {
		calls.Add(1)
		return nil, errors.New("unavailable")
	})

	agg := NewAggregate(AggregateOptions{Repositories: []Repository{down}, Retries: 2, RetryInterval: time.Millisecond})
	_, err := agg.FindProviders(context.Background(), pkgReq(t, "(osgi.wiring.package=p)"))
	require.Error(t, err)
	assert.True(t, resolver.IsTransient(err))
	assert.Equal(t, int32(3), calls.Load())

	// Partial results survive a failing repository but are not cached.
	calls.Store(0)
	partial := NewAggregate(AggregateOptions{Repositories: []Repository{down, NewMemory(a)}, Retries: -1})
	for i := 0; i < 2; i++ {
		caps, err := partial.FindProviders(context.Background(), pkgReq(t, "(osgi.wiring.package=p)"))
		require.NoError(t, err)
		assert.Len(t, caps, 1)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestAggregateFatalErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	denied := errors.New("forbidden")
	agg := NewAggregate(AggregateOptions{Repositories: []Repository{
		repoFunc(func(context.Context, *resource.Requirement) ([]*resource.Capability, error) {
			calls.Add(1)
			return nil, resolver.Fatal(denied)
		}),
	}, RetryInterval: time.Millisecond})

	_, err := agg.FindProviders(context.Background(), pkgReq(t, "(osgi.wiring.package=p)"))
	require.Error(t, err)
	assert.True(t, resolver.IsFatal(err))
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAggregateDrivesResolver(t *testing.T) {
	app := mod(t, modSpec{name: "app", version: "1.0.0", requires: []string{"(osgi.wiring.package=p)"}})
	p1 := mod(t, modSpec{name: "p-one", version: "1.0.0", provides: map[string]string{"p": "1.0.0"}})
	p2 := mod(t, modSpec{name: "p-two", version: "1.0.0", provides: map[string]string{"p": "2.0.0"}})
	agg := NewAggregate(AggregateOptions{Repositories: []Repository{NewMemory(app, p1, p2)}})

	root, err := resource.NewIdentityRequirement("app", semver.Range{})
	require.NoError(t, err)
	var prompted int
	res, err := resolver.NewDefault(resolver.Options{Preference: agg.Compare}).Resolve(context.Background(), resolver.Input{
		Requirements: []*resource.Requirement{root},
		Index:        agg,
		Callback: resolver.CallbackFunc(func(_ context.Context, _ *resource.Requirement, _, c []*resource.Capability) ([]*resource.Capability, error) {
			prompted++
			return c, nil
		}),
	})
	require.NoError(t, err)
	require.Equal(t, resolver.Resolved, res.Outcome)
	assert.Zero(t, prompted)

	wires := res.Wiring.Wires(app)
	require.Len(t, wires, 1)
	assert.Equal(t, "p-two@1.0.0", wires[0].Provider.String())
}
