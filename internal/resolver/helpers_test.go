package resolver

import (
	"context"
	"fmt"
	"testing"

	"github.com/bayleafwalker/bindery-resolver/internal/resource"
	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

type resBuilder struct {
	t *testing.T
	b *resource.Builder
}

func newRes(t *testing.T, name, version string) *resBuilder {
	t.Helper()
	b := resource.NewBuilder()
	b.Identity(name, semver.MustParseVersion(version), "")
	return &resBuilder{t: t, b: b}
}

// newSingleton builds a resource whose identity declares cardinality=single,
// so no two versions of it can be wired together.
func newSingleton(t *testing.T, name, version string) *resBuilder {
	t.Helper()
	b := resource.NewBuilder()
	b.Capability(resource.NamespaceIdentity, resource.Attributes{
		{Name: resource.NamespaceIdentity, Value: resource.String(name)},
		{Name: resource.AttrVersion, Value: resource.Version(semver.MustParseVersion(version))},
	}, resource.Directives{resource.DirectiveCardinality: resource.CardinalitySingle})
	return &resBuilder{t: t, b: b}
}

func (r *resBuilder) provides(ns, value, version string, dirs ...resource.Directives) *resBuilder {
	attrs := resource.Attributes{{Name: ns, Value: resource.String(value)}}
	if version != "" {
		attrs = attrs.With(resource.AttrVersion, resource.Version(semver.MustParseVersion(version)))
	}
	var d resource.Directives
	if len(dirs) > 0 {
		d = dirs[0]
	}
	r.b.Capability(ns, attrs, d)
	return r
}

func (r *resBuilder) requires(ns, filterText string, dirs ...resource.Directives) *resBuilder {
	r.t.Helper()
	d := resource.Directives{}
	for _, extra := range dirs {
		for k, v := range extra {
			d[k] = v
		}
	}
	d[resource.DirectiveFilter] = filterText
	if _, err := r.b.Require(ns, d); err != nil {
		r.t.Fatalf("requirement %s %s: %v", ns, filterText, err)
	}
	return r
}

func (r *resBuilder) build() *resource.Resource {
	r.t.Helper()
	res, err := r.b.Build(nil)
	if err != nil {
		r.t.Fatalf("build: %v", err)
	}
	return res
}

func rootReq(t *testing.T, ns, filterText string, dirs ...resource.Directives) *resource.Requirement {
	t.Helper()
	d := resource.Directives{}
	for _, extra := range dirs {
		for k, v := range extra {
			d[k] = v
		}
	}
	req, err := resource.NewFilterRequirement(ns, filterText, d)
	if err != nil {
		t.Fatalf("root requirement: %v", err)
	}
	return req
}

// listIndex returns matching capabilities in resource declaration order.
type listIndex struct {
	resources []*resource.Resource
	queries   int
}

func (x *listIndex) Candidates(_ context.Context, req *resource.Requirement) ([]*resource.Capability, error) {
	x.queries++
	var out []*resource.Capability
	for _, r := range x.resources {
		for _, c := range r.Capabilities(req.Namespace()) {
			if req.Matches(c) {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func index(resources ...*resource.Resource) *listIndex {
	return &listIndex{resources: resources}
}

func wireStrings(w Wiring) []string {
	var out []string
	for _, wire := range w.All() {
		out = append(out, fmt.Sprintf("%s->%s", wire.Requirer, wire.Provider))
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustResolve(t *testing.T, r Resolver, in Input) Result {
	t.Helper()
	res, err := r.Resolve(context.Background(), in)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	return res
}
