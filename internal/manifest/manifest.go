// Package manifest converts declarative module manifests into the resource
// model used by the resolver.
package manifest

import (
	"errors"
	"fmt"
	"strings"

	resolvev1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

var ErrMissingIdentity = errors.New("manifest: identity name is required")

// Capability converts a capability declaration.
func Capability(spec resolvev1.CapabilitySpec) (*resource.Capability, error) {
	ns := strings.TrimSpace(spec.Namespace)
	if ns == "" {
		return nil, errors.New("manifest: capability namespace is required")
	}
	var attrs resource.Attributes
	for _, a := range spec.Attributes {
		if strings.TrimSpace(a.Name) == "" {
			return nil, fmt.Errorf("manifest: %s capability: attribute name is required", ns)
		}
		v, err := resource.ParseValue(resource.Type(a.Type), a.Value)
		if err != nil {
			return nil, fmt.Errorf("manifest: %s capability: attribute %q: %w", ns, a.Name, err)
		}
		attrs = attrs.With(a.Name, v)
	}
	return resource.NewCapability(ns, attrs, resource.Directives(spec.Directives)), nil
}

// Requirement converts a requirement declaration into a detached requirement.
// The shorthand fields override the matching entries of Directives.
func Requirement(spec resolvev1.RequirementSpec) (*resource.Requirement, error) {
	dirs := resource.Directives(spec.Directives).Clone()
	set := func(name, value string) {
		if value == "" {
			return
		}
		if dirs == nil {
			dirs = resource.Directives{}
		}
		dirs[name] = value
	}
	set(resource.DirectiveFilter, spec.Filter)
	set(resource.DirectiveResolution, string(spec.Resolution))
	set(resource.DirectiveCardinality, string(spec.Cardinality))
	set(resource.DirectiveEffective, spec.Effective)

	switch r := dirs.Get(resource.DirectiveResolution); r {
	case "", resource.ResolutionMandatory, resource.ResolutionOptional:
	default:
		return nil, fmt.Errorf("manifest: %s requirement: unknown resolution %q", spec.Namespace, r)
	}
	switch c := dirs.Get(resource.DirectiveCardinality); c {
	case "", resource.CardinalitySingle, resource.CardinalityMultiple:
	default:
		return nil, fmt.Errorf("manifest: %s requirement: unknown cardinality %q", spec.Namespace, c)
	}

	req, err := resource.NewRequirement(strings.TrimSpace(spec.Namespace), dirs)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return req, nil
}

// Requirements converts a list of requirement declarations.
func Requirements(specs []resolvev1.RequirementSpec) ([]*resource.Requirement, error) {
	out := make([]*resource.Requirement, 0, len(specs))
	for i, s := range specs {
		r, err := Requirement(s)
		if err != nil {
			return nil, fmt.Errorf("requirement %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Resource builds a resource from a manifest spec. The identity capability is
// derived from spec.Identity; an explicit osgi.identity entry in Capabilities
// is rejected by the validators as a second identity.
func Resource(spec resolvev1.ModuleManifestSpec, v *resource.Validators) (*resource.Resource, error) {
	id := spec.Identity
	if strings.TrimSpace(id.Name) == "" {
		return nil, ErrMissingIdentity
	}
	version, err := semver.ParseVersion(id.Version)
	if err != nil {
		return nil, fmt.Errorf("manifest: module %s: %w", id.Name, err)
	}

	b := resource.NewBuilder()
	typ := id.Type
	if typ == "" {
		typ = resource.TypeBundle
	}
	var dirs resource.Directives
	if id.Singleton {
		dirs = resource.Directives{resource.DirectiveCardinality: resource.CardinalitySingle}
	}
	b.Capability(resource.NamespaceIdentity, resource.Attributes{
		{Name: resource.NamespaceIdentity, Value: resource.String(id.Name)},
		{Name: resource.AttrVersion, Value: resource.Version(version)},
		{Name: resource.AttrType, Value: resource.String(typ)},
	}, dirs)

	var errs []error
	for i, cs := range spec.Capabilities {
		c, err := Capability(cs)
		if err != nil {
			errs = append(errs, fmt.Errorf("capability %d: %w", i, err))
			continue
		}
		b.AddCapability(c)
	}
	for i, rs := range spec.Requirements {
		r, err := Requirement(rs)
		if err != nil {
			errs = append(errs, fmt.Errorf("requirement %d: %w", i, err))
			continue
		}
		b.AddRequirement(r)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("manifest: module %s@%s: %w", id.Name, id.Version, errors.Join(errs...))
	}

	res, err := b.Build(v)
	if err != nil {
		return nil, fmt.Errorf("manifest: module %s@%s: %w", id.Name, id.Version, err)
	}
	return res, nil
}

// Spec renders a resource back into its declarative form.
func Spec(r *resource.Resource) resolvev1.ModuleManifestSpec {
	id := r.Identity()
	spec := resolvev1.ModuleManifestSpec{
		Identity: resolvev1.ModuleIdentity{
			Name:      r.Name(),
			Version:   r.Version().String(),
			Type:      r.Type(),
			Singleton: id.IsSingleton(),
		},
	}
	for _, c := range r.Capabilities("") {
		if c == id {
			continue
		}
		cs := resolvev1.CapabilitySpec{Namespace: c.Namespace(), Directives: c.Directives().Clone()}
		for _, a := range c.Attributes() {
			cs.Attributes = append(cs.Attributes, resolvev1.Attribute{
				Name:  a.Name,
				Type:  string(a.Value.Type()),
				Value: a.Value.String(),
			})
		}
		spec.Capabilities = append(spec.Capabilities, cs)
	}
	for _, req := range r.Requirements("") {
		spec.Requirements = append(spec.Requirements, RequirementSpec(req))
	}
	return spec
}

// RequirementSpec renders a requirement with all directives kept in
// Directives.
func RequirementSpec(r *resource.Requirement) resolvev1.RequirementSpec {
	return resolvev1.RequirementSpec{
		Namespace:  r.Namespace(),
		Directives: r.Directives().Clone(),
	}
}
