package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"

	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

const (
	DefaultRetries       = 3
	DefaultRetryInterval = 100 * time.Millisecond
)

// AggregateOptions configure an Aggregate.
type AggregateOptions struct {
	// System is the framework resource. Its capabilities come first.
	System *resource.Resource
	// Mandatory resources follow System. Neither is reordered or
	// blacklisted.
	Mandatory []*resource.Resource
	// Repositories are consulted in priority order, highest first.
	Repositories []Repository
	// Blacklist removes every repository resource whose identity capability
	// matches one of these requirements.
	Blacklist []*resource.Requirement
	// Effective lists effective directive values admitted besides "resolve".
	Effective []string
	// Retries bounds the retries of a repository query that failed with a
	// transient error. Negative disables retries; zero means DefaultRetries.
	Retries int
	// RetryInterval is the initial backoff interval. Zero means
	// DefaultRetryInterval.
	RetryInterval time.Duration
}

// Aggregate merges several repositories into one resolver.CapabilityIndex.
// Results are cached per requirement namespace and filter. An Aggregate may be
// shared between concurrent sessions.
type Aggregate struct {
	opts  AggregateOptions
	first []*resource.Resource

	mu       sync.Mutex
	cache    map[string][]*resource.Capability
	priority map[*resource.Resource]int
	failed   []*resource.Requirement
	seen     map[string]bool
}

func NewAggregate(opts AggregateOptions) *Aggregate {
	if opts.Retries == 0 {
		opts.Retries = DefaultRetries
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	a := &Aggregate{
		opts:     opts,
		cache:    map[string][]*resource.Capability{},
		priority: map[*resource.Resource]int{},
		seen:     map[string]bool{},
	}
	if opts.System != nil {
		a.first = append(a.first, opts.System)
	}
	a.first = append(a.first, opts.Mandatory...)
	for _, r := range a.first {
		a.priority[r] = -1
	}
	return a
}

func cacheKey(req *resource.Requirement) string {
	return req.Namespace() + "\x00" + req.Filter().String()
}

// Candidates implements resolver.CapabilityIndex.
func (a *Aggregate) Candidates(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error) {
	return a.FindProviders(ctx, req)
}

// FindProviders returns the first stage providers in declaration order
// followed by the repository providers ordered by Compare.
func (a *Aggregate) FindProviders(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := cacheKey(req)
	a.mu.Lock()
	cached, ok := a.cache[key]
	a.mu.Unlock()
	if ok {
		return append([]*resource.Capability(nil), cached...), nil
	}

	log := logr.FromContextOrDiscard(ctx)
	var out []*resource.Capability
	identities := map[resource.IdentityKey]*resource.Resource{}
	for _, c := range matching(a.first, req) {
		if c.IsEffective(a.opts.Effective...) {
			out = append(out, c)
		}
	}
	for _, r := range a.first {
		identities[r.Key()] = r
	}

	var (
		second []*resource.Capability
		errs   []error
		owners = map[*resource.Resource]int{}
	)
	for i, repo := range a.opts.Repositories {
		caps, err := a.query(ctx, repo, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if resolver.IsFatal(err) {
				return nil, err
			}
			log.Error(err, "repository query failed, skipping", "repository", i, "requirement", req.String())
			errs = append(errs, err)
			continue
		}
		for _, c := range caps {
			r := c.Resource()
			if r == nil || !req.Matches(c) || !c.IsEffective(a.opts.Effective...) {
				continue
			}
			if prev, dup := identities[r.Key()]; dup && prev != r {
				continue
			}
			if a.blacklisted(r) {
				continue
			}
			identities[r.Key()] = r
			if _, ok := owners[r]; !ok {
				owners[r] = i
			}
			second = append(second, c)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for r, i := range owners {
		if _, ok := a.priority[r]; !ok {
			a.priority[r] = i
		}
	}
	sort.SliceStable(second, func(i, j int) bool { return a.compareLocked(second[i], second[j]) < 0 })
	out = append(out, second...)

	if len(out) == 0 && !a.seen[key] {
		a.seen[key] = true
		a.failed = append(a.failed, req)
	}
	if len(errs) > 0 {
		if len(out) == 0 {
			return nil, resolver.Transient(errors.Join(errs...))
		}
		return out, nil
	}
	a.cache[key] = out
	return append([]*resource.Capability(nil), out...), nil
}

func (a *Aggregate) query(ctx context.Context, repo Repository, req *resource.Requirement) ([]*resource.Capability, error) {
	var caps []*resource.Capability
	op := func() error {
		var err error
		caps, err = repo.FindProviders(ctx, req)
		if err != nil && (resolver.IsFatal(err) || ctx.Err() != nil) {
			return backoff.Permanent(err)
		}
		return err
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.opts.RetryInterval
	retries := a.opts.Retries
	if retries < 0 {
		retries = 0
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx)); err != nil {
		return nil, err
	}
	return caps, nil
}

func (a *Aggregate) blacklisted(r *resource.Resource) bool {
	for _, bl := range a.opts.Blacklist {
		if bl.Matches(r.Identity()) {
			return true
		}
	}
	return false
}

// Failed lists the requirements for which no provider was found, in the order
// they were first queried.
func (a *Aggregate) Failed() []*resource.Requirement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*resource.Requirement(nil), a.failed...)
}

// Compare orders two capabilities by preference. It returns a negative number
// when x is preferred. It can be passed as resolver.Options.Preference.
func (a *Aggregate) Compare(x, y *resource.Capability) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.compareLocked(x, y)
}

func (a *Aggregate) compareLocked(x, y *resource.Capability) int {
	px, py := a.rank(x), a.rank(y)
	if px < 0 || py < 0 {
		// First stage providers keep their place.
		switch {
		case px < 0 && py < 0:
			return 0
		case px < 0:
			return -1
		default:
			return 1
		}
	}

	if c := semver.Compare(y.Version(), x.Version()); c != 0 {
		return c
	}
	rx, ry := x.Resource(), y.Resource()
	if rx == nil || ry == nil {
		return 0
	}
	switch x.Namespace() {
	case resource.NamespaceIdentity, resource.NamespaceBundle, resource.NamespaceHost:
		if rx.Name() == ry.Name() {
			if c := semver.Compare(ry.Version(), rx.Version()); c != 0 {
				return c
			}
		}
	}
	if c := len(rx.Requirements("")) - len(ry.Requirements("")); c != 0 {
		return c
	}
	if c := len(ry.Capabilities("")) - len(rx.Capabilities("")); c != 0 {
		return c
	}
	return px - py
}

func (a *Aggregate) rank(c *resource.Capability) int {
	if p, ok := a.priority[c.Resource()]; ok {
		return p
	}
	return len(a.opts.Repositories)
}
