package resource

import (
	"errors"
	"fmt"

	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

// InitialIdentity names the synthetic resource that holds root requirements
// which were not declared by any resource.
const InitialIdentity = "<<INITIAL>>"

// EntryID identifies one capability or requirement added to a Builder.
type EntryID uint64

type entry struct {
	id  EntryID
	cap *Capability
	req *Requirement
}

// Builder collects the capabilities and requirements of one resource. Entries
// keep their insertion order and are addressed by the EntryID returned when they
// were added, so two entries with identical content stay distinct.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	next    EntryID
	entries []entry
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) add(e entry) EntryID {
	b.next++
	e.id = b.next
	b.entries = append(b.entries, e)
	return e.id
}

// AddCapability appends a capability. Its contents are copied on Build.
func (b *Builder) AddCapability(c *Capability) EntryID {
	return b.add(entry{cap: c})
}

// AddRequirement appends a requirement. Its contents are copied on Build.
func (b *Builder) AddRequirement(r *Requirement) EntryID {
	return b.add(entry{req: r})
}

// Capability is shorthand for AddCapability(NewCapability(...)).
func (b *Builder) Capability(namespace string, attrs Attributes, dirs Directives) EntryID {
	return b.AddCapability(NewCapability(namespace, attrs, dirs))
}

// Require is shorthand for AddRequirement(NewRequirement(...)).
func (b *Builder) Require(namespace string, dirs Directives) (EntryID, error) {
	r, err := NewRequirement(namespace, dirs)
	if err != nil {
		return 0, err
	}
	return b.AddRequirement(r), nil
}

// Identity adds the osgi.identity capability.
func (b *Builder) Identity(name string, version semver.Version, typ string) EntryID {
	if typ == "" {
		typ = TypeBundle
	}
	return b.Capability(NamespaceIdentity, Attributes{
		{Name: NamespaceIdentity, Value: String(name)},
		{Name: AttrVersion, Value: Version(version)},
		{Name: AttrType, Value: String(typ)},
	}, nil)
}

// Remove deletes the entry with the given id. It reports whether it existed.
func (b *Builder) Remove(id EntryID) bool {
	for i, e := range b.entries {
		if e.id == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (b *Builder) Len() int { return len(b.entries) }

// Build validates the entries and returns the immutable resource. A nil
// Validators skips namespace checks but the resource must still carry exactly
// one identity capability.
func (b *Builder) Build(v *Validators) (*Resource, error) {
	res := &Resource{}
	var errs []error
	for _, e := range b.entries {
		if e.cap != nil {
			c := &Capability{
				namespace:  e.cap.namespace,
				attributes: append(Attributes(nil), e.cap.attributes...),
				directives: e.cap.directives.Clone(),
				resource:   res,
			}
			if err := v.Validate(c); err != nil {
				errs = append(errs, err)
			}
			if c.namespace == NamespaceIdentity {
				if res.identity != nil {
					errs = append(errs, errors.New("resource: more than one identity capability"))
				}
				res.identity = c
			}
			res.capabilities = append(res.capabilities, c)
			continue
		}
		res.requirements = append(res.requirements, &Requirement{
			namespace:  e.req.namespace,
			directives: e.req.directives.Clone(),
			filter:     e.req.filter,
			resource:   res,
		})
	}
	if res.identity == nil {
		errs = append(errs, errors.New("resource: missing identity capability"))
	}
	if err := errors.Join(errs...); err != nil {
		if res.identity != nil {
			return nil, fmt.Errorf("resource %s: %w", res, err)
		}
		return nil, err
	}
	return res, nil
}

// NewInitial returns the synthetic resource that declares reqs. Requirements
// that already belong to a resource are not copied.
func NewInitial(reqs []*Requirement) (*Resource, []*Requirement) {
	b := NewBuilder()
	b.Identity(InitialIdentity, semver.Version{}, TypeUnknown)
	for _, r := range reqs {
		if r.resource == nil {
			b.AddRequirement(r)
		}
	}
	res, err := b.Build(nil)
	if err != nil {
		panic(err)
	}

	out := make([]*Requirement, 0, len(reqs))
	i := 0
	for _, r := range reqs {
		if r.resource == nil {
			out = append(out, res.requirements[i])
			i++
			continue
		}
		out = append(out, r)
	}
	return res, out
}
