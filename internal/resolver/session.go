package resolver

import (
	"context"
	"errors"
	"sort"

	"github.com/go-logr/logr"

	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// state is everything a choice point has to restore.
type state struct {
	queue    []*resource.Requirement
	queued   map[*resource.Requirement]bool
	wires    []Wire
	order    []*resource.Resource
	listed   map[*resource.Resource]bool
	expanded map[*resource.Resource]bool
	pulledBy map[*resource.Resource]*resource.Requirement
	optional []*resource.Requirement
}

func newState() *state {
	return &state{
		queued:   map[*resource.Requirement]bool{},
		listed:   map[*resource.Resource]bool{},
		expanded: map[*resource.Resource]bool{},
		pulledBy: map[*resource.Resource]*resource.Requirement{},
	}
}

func (st *state) clone() *state {
	out := &state{
		queue:    append([]*resource.Requirement(nil), st.queue...),
		queued:   make(map[*resource.Requirement]bool, len(st.queued)),
		wires:    append([]Wire(nil), st.wires...),
		order:    append([]*resource.Resource(nil), st.order...),
		listed:   make(map[*resource.Resource]bool, len(st.listed)),
		expanded: make(map[*resource.Resource]bool, len(st.expanded)),
		pulledBy: make(map[*resource.Resource]*resource.Requirement, len(st.pulledBy)),
		optional: append([]*resource.Requirement(nil), st.optional...),
	}
	for k, v := range st.queued {
		out.queued[k] = v
	}
	for k, v := range st.listed {
		out.listed[k] = v
	}
	for k, v := range st.expanded {
		out.expanded[k] = v
	}
	for k, v := range st.pulledBy {
		out.pulledBy[k] = v
	}
	return out
}

func (st *state) enqueue(req *resource.Requirement) {
	if st.queued[req] {
		return
	}
	st.queued[req] = true
	st.queue = append(st.queue, req)
}

func (st *state) pop() *resource.Requirement {
	req := st.queue[0]
	st.queue = st.queue[1:]
	return req
}

func (st *state) list(r *resource.Resource) {
	if r == nil || st.listed[r] {
		return
	}
	st.listed[r] = true
	st.order = append(st.order, r)
}

// include adds r to the wiring and queues its requirements the first time it
// is pulled in.
func (st *state) include(r *resource.Resource, by *resource.Requirement) {
	st.list(r)
	if st.expanded[r] {
		return
	}
	st.expanded[r] = true
	if _, ok := st.pulledBy[r]; !ok {
		st.pulledBy[r] = by
	}
	for _, req := range r.Requirements("") {
		st.enqueue(req)
	}
}

// choicePoint holds the untried alternatives for one requirement. A nil
// alternative leaves an optional requirement unwired.
type choicePoint struct {
	req          *resource.Requirement
	alternatives []*resource.Capability
	snapshot     *state
}

var errCancelled = errors.New("resolver: cancelled")

type session struct {
	id       string
	opts     Options
	index    CapabilityIndex
	callback CandidateSelectionCallback
	log      logr.Logger
	root     *resource.Resource
	roots    map[*resource.Requirement]bool

	phase State
	cur   *state
	stack []choicePoint

	// orders are callback decisions; they survive backtracking.
	orders map[*resource.Requirement][]*resource.Capability

	failed map[*resource.Requirement]bool
	// last is the dead end that exhausted the search, with the chain of the
	// path it was reached on.
	last  *resource.Requirement
	chain []ChainLink

	diag  Diagnostics
	stats Stats
}

func (s *session) seed(reqs []*resource.Requirement) {
	s.roots = make(map[*resource.Requirement]bool, len(reqs))
	s.cur.list(s.root)
	s.cur.expanded[s.root] = true
	for _, req := range reqs {
		s.roots[req] = true
		s.cur.list(req.Resource())
		s.cur.enqueue(req)
	}
}

func (s *session) run(ctx context.Context) Result {
	s.phase = Pending
	for {
		if ctx.Err() != nil {
			return s.finish(Cancelled, nil)
		}
		if len(s.cur.queue) == 0 {
			return s.finish(Resolved, nil)
		}

		req := s.cur.pop()
		s.stats.Steps++
		if !req.IsEffective(s.opts.Effective...) {
			s.log.V(1).Info("skipping non-effective requirement", "requirement", req.String())
			continue
		}
		s.log.V(1).Info("processing requirement", "requirement", req.String(), "queued", len(s.cur.queue))

		s.stats.ProviderQueries++
		cands, err := s.index.Candidates(ctx, req)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return s.finish(Cancelled, nil)
		case IsFatal(err):
			s.log.Error(err, "fatal provider failure", "requirement", req.String())
			return s.finish(Failed, &ResolutionError{
				Unresolved: []*resource.Requirement{req},
				Chain:      s.chainFor(req),
				Cause:      &ProviderError{Requirement: req, Err: err},
			})
		default:
			s.log.Error(err, "transient provider failure, treating as no candidates", "requirement", req.String())
			s.diag.ProviderErrors = append(s.diag.ProviderErrors, &ProviderError{Requirement: req, Err: err})
			cands = nil
		}

		viable := s.viable(req, cands)
		if len(viable) == 0 {
			if req.IsOptional() {
				s.cur.optional = append(s.cur.optional, req)
				continue
			}
			s.recordFailure(req)
			if !s.backtrack() {
				return s.finish(Failed, nil)
			}
			continue
		}

		if req.IsMultiple() {
			for _, c := range viable {
				if !s.conflicts(c) {
					s.commit(req, c)
				}
			}
			continue
		}

		ordered, err := s.order(ctx, req, viable)
		if err != nil {
			return s.finish(Cancelled, nil)
		}
		alternatives := ordered
		if req.IsOptional() {
			alternatives = append(alternatives, nil)
		}
		if len(alternatives) > 1 {
			s.stats.ChoicePoints++
			s.stack = append(s.stack, choicePoint{
				req:          req,
				alternatives: alternatives[1:],
				snapshot:     s.cur.clone(),
			})
			s.log.V(1).Info("choice point", "requirement", req.String(), "alternatives", len(alternatives))
		}
		s.apply(req, alternatives[0])
	}
}

// viable narrows index candidates to those that can be wired to req in the
// current state.
func (s *session) viable(req *resource.Requirement, cands []*resource.Capability) []*resource.Capability {
	versions, hasRange := req.VersionRange()
	versionAttr := resource.VersionAttribute(req.Namespace())

	var out []*resource.Capability
	seen := make(map[*resource.Capability]bool, len(cands))
	for _, c := range cands {
		if c == nil || c.Resource() == nil || seen[c] {
			continue
		}
		seen[c] = true
		if !c.IsEffective(s.opts.Effective...) || !req.Matches(c) {
			continue
		}
		if hasRange {
			if _, ok := c.Attributes().Get(versionAttr); ok && !versions.Includes(c.Version()) {
				continue
			}
		}
		if s.conflicts(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// conflicts reports whether wiring c would bring in a resource that clashes
// with one already in the wiring: the same identity as a different resource, or
// a namespace value shared with a wired resource where either side marks its
// capability cardinality=single.
func (s *session) conflicts(c *resource.Capability) bool {
	r := c.Resource()
	if s.cur.listed[r] {
		return false
	}
	key := r.Key()
	for _, q := range s.cur.order {
		if q.Key() == key {
			return true
		}
		if singletonClash(r, q) || singletonClash(q, r) {
			return true
		}
	}
	return false
}

// singletonClash reports whether a cardinality=single capability of single
// shares its namespace value with any capability of other.
func singletonClash(single, other *resource.Resource) bool {
	for _, x := range single.Capabilities("") {
		if !x.IsSingleton() {
			continue
		}
		v, ok := x.NamespaceValue()
		if !ok {
			continue
		}
		for _, y := range other.Capabilities(x.Namespace()) {
			if w, ok := y.NamespaceValue(); ok && w == v {
				return true
			}
		}
	}
	return false
}

// order sorts candidates by preference and, on first-time ambiguity, asks the
// callback. It returns errCancelled when the session must stop.
func (s *session) order(ctx context.Context, req *resource.Requirement, viable []*resource.Capability) ([]*resource.Capability, error) {
	out := append([]*resource.Capability(nil), viable...)
	if pref := s.opts.Preference; pref != nil {
		sort.SliceStable(out, func(i, j int) bool { return pref(out[i], out[j]) < 0 })
	}

	var wired []*resource.Capability
	for _, c := range out {
		if s.cur.listed[c.Resource()] {
			wired = append(wired, c)
		}
	}
	if s.opts.PreferWired && len(wired) > 0 {
		out = append(append([]*resource.Capability(nil), wired...), without(out, wired)...)
	}

	if recorded, ok := s.orders[req]; ok {
		return normalizeOrder(recorded, out), nil
	}
	if len(wired) > 0 || len(out) < 2 {
		return out, nil
	}
	if pref := s.opts.Preference; pref != nil && pref(out[0], out[1]) != 0 {
		return out, nil
	}

	s.stats.CallbackInvocations++
	chosen, err := s.callback.Select(ctx, req, nil, out)
	switch {
	case errors.Is(err, ErrSelectionCancelled):
		s.log.Info("candidate selection cancelled", "requirement", req.String())
		return nil, errCancelled
	case err != nil && ctx.Err() != nil:
		return nil, errCancelled
	case err != nil:
		s.log.Error(err, "candidate selection failed, keeping preference order", "requirement", req.String())
		s.orders[req] = out
		return out, nil
	}
	out = normalizeOrder(chosen, out)
	s.orders[req] = out
	return out, nil
}

func without(all, drop []*resource.Capability) []*resource.Capability {
	skip := make(map[*resource.Capability]bool, len(drop))
	for _, c := range drop {
		skip[c] = true
	}
	var out []*resource.Capability
	for _, c := range all {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

func (s *session) apply(req *resource.Requirement, c *resource.Capability) {
	if c == nil {
		s.cur.optional = append(s.cur.optional, req)
		return
	}
	s.commit(req, c)
}

func (s *session) commit(req *resource.Requirement, c *resource.Capability) {
	s.cur.wires = append(s.cur.wires, Wire{
		Requirer:    req.Resource(),
		Provider:    c.Resource(),
		Requirement: req,
		Capability:  c,
	})
	s.cur.include(c.Resource(), req)
}

// backtrack restores the most recent choice point and applies its next
// alternative. It returns false when no choice point is left.
func (s *session) backtrack() bool {
	s.phase = Backtracking
	if len(s.stack) == 0 {
		return false
	}
	top := len(s.stack) - 1
	cp := s.stack[top]
	next := cp.alternatives[0]
	if len(cp.alternatives) == 1 {
		s.stack = s.stack[:top]
	} else {
		s.stack[top].alternatives = cp.alternatives[1:]
	}

	s.stats.Backtracks++
	s.log.Info("backtracking", "requirement", cp.req.String(), "remaining", len(cp.alternatives)-1)
	s.cur = cp.snapshot.clone()
	s.apply(cp.req, next)
	s.phase = Pending
	return true
}

func (s *session) recordFailure(req *resource.Requirement) {
	s.last = req
	s.chain = s.chainFor(req)
	if !s.failed[req] {
		s.failed[req] = true
		s.diag.NoProviders = append(s.diag.NoProviders, req)
	}
	s.log.V(1).Info("no viable candidates", "requirement", req.String())
}

// chainFor walks from req back to a root requirement through the requirement
// that first pulled each resource in.
func (s *session) chainFor(req *resource.Requirement) []ChainLink {
	var out []ChainLink
	seen := map[*resource.Resource]bool{}
	for req != nil {
		r := req.Resource()
		out = append(out, ChainLink{Requirement: req, Resource: r})
		if s.roots[req] || r == nil || seen[r] {
			break
		}
		seen[r] = true
		req = s.cur.pulledBy[r]
	}
	return out
}

func (s *session) finish(outcome State, rerr *ResolutionError) Result {
	s.phase = outcome
	res := Result{
		SessionID:   s.id,
		Outcome:     outcome,
		Root:        s.root,
		Diagnostics: s.diag,
		Stats:       s.stats,
	}
	res.Diagnostics.UnresolvedOptional = append([]*resource.Requirement(nil), s.cur.optional...)

	switch outcome {
	case Resolved, Cancelled:
		res.Wiring = newWiring(s.cur.order, s.cur.wires)
	case Failed:
		if rerr == nil {
			rerr = &ResolutionError{
				Unresolved: []*resource.Requirement{s.last},
				Chain:      s.chain,
			}
		}
		res.Err = rerr
	}
	return res
}
