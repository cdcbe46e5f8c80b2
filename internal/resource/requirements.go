package resource

import (
	"fmt"
	"strings"

	"github.com/bayleafwalker/bindery-resolver/internal/filter"
	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

// NewIdentityRequirement requires the resource named name within versions.
func NewIdentityRequirement(name string, versions semver.Range) (*Requirement, error) {
	return newNamedRequirement(NamespaceIdentity, name, versions)
}

// NewPackageRequirement requires package pkg within versions.
func NewPackageRequirement(pkg string, versions semver.Range) (*Requirement, error) {
	return newNamedRequirement(NamespacePackage, pkg, versions)
}

// NewFilterRequirement requires a capability in namespace matching filterText.
// Extra directives are copied; the filter directive is overwritten.
func NewFilterRequirement(namespace, filterText string, dirs Directives) (*Requirement, error) {
	d := dirs.Clone()
	if d == nil {
		d = Directives{}
	}
	d[DirectiveFilter] = filterText
	return NewRequirement(namespace, d)
}

func newNamedRequirement(namespace, name string, versions semver.Range) (*Requirement, error) {
	text := fmt.Sprintf("(%s=%s)", namespace, filter.Escape(name))
	terms, err := versions.FilterTerms(VersionAttribute(namespace))
	if err != nil {
		return nil, fmt.Errorf("resource: %s requirement %q: %w", namespace, name, err)
	}
	if versions != (semver.Range{}) {
		text = "(&" + text + strings.Join(terms, "") + ")"
	}
	return NewFilterRequirement(namespace, text, nil)
}
