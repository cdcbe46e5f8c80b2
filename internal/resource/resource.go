// Package resource is the capability/requirement model the resolver works on.
//
// Capabilities, requirements and resources are immutable once a Builder has
// produced them. A capability or requirement refers back to its resource but
// never owns it.
package resource

import (
	"fmt"
	"strings"

	"github.com/bayleafwalker/bindery-resolver/internal/filter"
	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

// Well-known namespaces. Any other string is a valid namespace too.
const (
	NamespaceIdentity             = "osgi.identity"
	NamespacePackage              = "osgi.wiring.package"
	NamespaceBundle               = "osgi.wiring.bundle"
	NamespaceHost                 = "osgi.wiring.host"
	NamespaceExecutionEnvironment = "osgi.ee"
	NamespaceService              = "osgi.service"
	NamespaceExtender             = "osgi.extender"
	NamespaceContract             = "osgi.contract"
)

// Attribute names.
const (
	AttrVersion       = "version"
	AttrBundleVersion = "bundle-version"
	AttrType          = "type"
)

// Identity types.
const (
	TypeBundle   = "osgi.bundle"
	TypeFragment = "osgi.fragment"
	TypeUnknown  = "unknown"
)

// Directive names and values.
const (
	DirectiveFilter      = "filter"
	DirectiveResolution  = "resolution"
	DirectiveCardinality = "cardinality"
	DirectiveEffective   = "effective"
	DirectiveUses        = "uses"

	ResolutionMandatory = "mandatory"
	ResolutionOptional  = "optional"

	CardinalitySingle   = "single"
	CardinalityMultiple = "multiple"

	EffectiveResolve = "resolve"
	EffectiveActive  = "active"
)

// VersionAttribute returns the attribute carrying the version in namespace ns.
func VersionAttribute(ns string) string {
	switch ns {
	case NamespaceBundle, NamespaceHost:
		return AttrBundleVersion
	}
	return AttrVersion
}

func isEffective(d Directives, accept []string) bool {
	e := strings.TrimSpace(d.Get(DirectiveEffective))
	if e == "" || e == EffectiveResolve {
		return true
	}
	for _, a := range accept {
		if a == e {
			return true
		}
	}
	return false
}

// Capability is an offer made by a resource.
type Capability struct {
	namespace  string
	attributes Attributes
	directives Directives
	resource   *Resource
}

// NewCapability returns a capability that is not yet attached to a resource.
func NewCapability(namespace string, attrs Attributes, dirs Directives) *Capability {
	return &Capability{
		namespace:  namespace,
		attributes: append(Attributes(nil), attrs...),
		directives: dirs.Clone(),
	}
}

func (c *Capability) Namespace() string      { return c.namespace }
func (c *Capability) Attributes() Attributes { return c.attributes }
func (c *Capability) Directives() Directives { return c.directives }

// Resource returns the declaring resource, or nil for a detached capability.
func (c *Capability) Resource() *Resource { return c.resource }

// Version returns the namespace version attribute, or the zero version.
func (c *Capability) Version() semver.Version {
	v, ok := c.attributes.Get(VersionAttribute(c.namespace))
	if !ok {
		return semver.Version{}
	}
	switch x := v.Raw().(type) {
	case semver.Version:
		return x
	case string:
		if parsed, err := semver.ParseVersion(x); err == nil {
			return parsed
		}
	}
	return semver.Version{}
}

// NamespaceValue returns the attribute named after the namespace, e.g. the
// package name of an osgi.wiring.package capability.
func (c *Capability) NamespaceValue() (string, bool) {
	v, ok := c.attributes.Get(c.namespace)
	if !ok {
		return "", false
	}
	return v.String(), true
}

// IsEffective reports whether the capability takes part in resolution. The
// resolve phase always does; accept lists further effective values to admit.
func (c *Capability) IsEffective(accept ...string) bool {
	return isEffective(c.directives, accept)
}

// IsSingleton reports whether the capability declares cardinality=single.
func (c *Capability) IsSingleton() bool {
	return c.directives.Get(DirectiveCardinality) == CardinalitySingle
}

func (c *Capability) String() string {
	var b strings.Builder
	b.WriteString(c.namespace)
	if len(c.attributes) > 0 {
		b.WriteString("; ")
		b.WriteString(c.attributes.String())
	}
	if c.resource != nil {
		fmt.Fprintf(&b, " [%s]", c.resource)
	}
	return b.String()
}

// Requirement is a need declared by a resource.
type Requirement struct {
	namespace  string
	directives Directives
	filter     *filter.Filter
	resource   *Resource
}

// NewRequirement returns a detached requirement. The filter directive is parsed
// here; a malformed filter is returned as a *filter.SyntaxError.
func NewRequirement(namespace string, dirs Directives) (*Requirement, error) {
	if strings.TrimSpace(namespace) == "" {
		return nil, fmt.Errorf("resource: requirement namespace is empty")
	}
	r := &Requirement{namespace: namespace, directives: dirs.Clone()}
	if text := strings.TrimSpace(dirs.Get(DirectiveFilter)); text != "" {
		f, err := filter.Parse(text)
		if err != nil {
			return nil, err
		}
		r.filter = f
	}
	return r, nil
}

func (r *Requirement) Namespace() string      { return r.namespace }
func (r *Requirement) Directives() Directives { return r.directives }

// Filter returns the parsed filter directive; nil matches everything.
func (r *Requirement) Filter() *filter.Filter { return r.filter }

// Resource returns the declaring resource, or nil for a detached requirement.
func (r *Requirement) Resource() *Resource { return r.resource }

func (r *Requirement) IsOptional() bool {
	return r.directives.Get(DirectiveResolution) == ResolutionOptional
}

func (r *Requirement) IsMultiple() bool {
	return r.directives.Get(DirectiveCardinality) == CardinalityMultiple
}

func (r *Requirement) IsEffective(accept ...string) bool {
	return isEffective(r.directives, accept)
}

// Matches reports whether c is in the same namespace and satisfies the filter.
func (r *Requirement) Matches(c *Capability) bool {
	if c == nil || c.namespace != r.namespace {
		return false
	}
	return r.filter.Matches(c.attributes)
}

// VersionRange returns the version interval the filter places on the namespace
// version attribute, if any.
func (r *Requirement) VersionRange() (semver.Range, bool) {
	return filter.ExtractRange(r.filter, VersionAttribute(r.namespace))
}

func (r *Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.namespace)
	if r.filter != nil {
		b.WriteString(": ")
		b.WriteString(r.filter.String())
	}
	if r.IsOptional() {
		b.WriteString(" (optional)")
	}
	return b.String()
}

// Resource is a unit of capabilities and requirements, identified by its single
// osgi.identity capability.
type Resource struct {
	identity     *Capability
	capabilities []*Capability
	requirements []*Requirement
}

// Identity returns the identity capability.
func (r *Resource) Identity() *Capability { return r.identity }

func (r *Resource) Name() string {
	v, _ := r.identity.NamespaceValue()
	return v
}

func (r *Resource) Version() semver.Version { return r.identity.Version() }

func (r *Resource) Type() string {
	if v, ok := r.identity.attributes.Get(AttrType); ok {
		return v.String()
	}
	return TypeUnknown
}

// Key returns the identity key of the resource.
func (r *Resource) Key() IdentityKey {
	return IdentityKey{Name: r.Name(), Version: r.Version().String()}
}

// IsInitial reports whether r is the synthetic resource holding root requirements.
func (r *Resource) IsInitial() bool { return r.Name() == InitialIdentity }

// Capabilities returns the capabilities in namespace ns in declaration order;
// an empty ns returns all of them.
func (r *Resource) Capabilities(ns string) []*Capability {
	if ns == "" {
		return r.capabilities
	}
	var out []*Capability
	for _, c := range r.capabilities {
		if c.namespace == ns {
			out = append(out, c)
		}
	}
	return out
}

// Requirements returns the requirements in namespace ns in declaration order;
// an empty ns returns all of them.
func (r *Resource) Requirements(ns string) []*Requirement {
	if ns == "" {
		return r.requirements
	}
	var out []*Requirement
	for _, req := range r.requirements {
		if req.namespace == ns {
			out = append(out, req)
		}
	}
	return out
}

func (r *Resource) String() string {
	return r.Key().String()
}

// IdentityKey is the name@version pair no two resources in one resolution share.
type IdentityKey struct {
	Name    string
	Version string
}

func (k IdentityKey) String() string { return k.Name + "@" + k.Version }
