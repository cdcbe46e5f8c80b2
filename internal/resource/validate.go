package resource

import (
	"fmt"
	"strings"

	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

// Check validates a capability in one namespace.
type Check func(c *Capability) error

// Validators maps namespaces to the checks their capabilities must pass.
type Validators struct {
	checks map[string][]Check
}

func NewValidators() *Validators {
	return &Validators{checks: map[string][]Check{}}
}

// DefaultValidators returns the checks for the well-known namespaces:
// identity, package and bundle capabilities must carry their name and version.
func DefaultValidators() *Validators {
	v := NewValidators()
	v.Register(NamespaceIdentity, RequireNamespaceValue, RequireVersion)
	v.Register(NamespacePackage, RequireNamespaceValue, RequireVersion)
	v.Register(NamespaceBundle, RequireNamespaceValue, RequireVersion)
	return v
}

// Register appends checks for namespace ns.
func (v *Validators) Register(ns string, checks ...Check) {
	v.checks[ns] = append(v.checks[ns], checks...)
}

// Validate runs the checks registered for c's namespace. A nil receiver accepts
// everything.
func (v *Validators) Validate(c *Capability) error {
	if v == nil {
		return nil
	}
	for _, check := range v.checks[c.namespace] {
		if err := check(c); err != nil {
			return fmt.Errorf("%s capability: %w", c.namespace, err)
		}
	}
	return nil
}

// RequireNamespaceValue requires the attribute named after the namespace.
func RequireNamespaceValue(c *Capability) error {
	v, ok := c.NamespaceValue()
	if !ok || strings.TrimSpace(v) == "" {
		return fmt.Errorf("missing %q attribute", c.namespace)
	}
	return nil
}

// RequireVersion requires the namespace version attribute to be a version.
func RequireVersion(c *Capability) error {
	attr := VersionAttribute(c.namespace)
	v, ok := c.attributes.Get(attr)
	if !ok {
		return fmt.Errorf("missing %q attribute", attr)
	}
	switch x := v.Raw().(type) {
	case semver.Version:
		return nil
	case string:
		if _, err := semver.ParseVersion(x); err != nil {
			return fmt.Errorf("attribute %q: %w", attr, err)
		}
		return nil
	}
	return fmt.Errorf("attribute %q has type %s, want %s", attr, v.Type(), TypeVersion)
}
