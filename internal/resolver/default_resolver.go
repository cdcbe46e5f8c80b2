package resolver

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// Options tune a DefaultResolver.
type Options struct {
	// Effective lists effective directive values admitted besides "resolve".
	Effective []string
	// Preference orders candidates after the index order. It returns a
	// negative number when a is preferred over b. Candidates that compare
	// equal to the head are ambiguous and go to the callback. Nil treats
	// all candidates as equally preferred.
	Preference func(a, b *resource.Capability) int
	// PreferWired moves candidates from resources already in the wiring to
	// the front.
	PreferWired bool
}

// DefaultResolver is the backtracking resolver. It holds no per-session state
// and may be shared between goroutines.
type DefaultResolver struct {
	opts Options
}

func NewDefault(opts Options) *DefaultResolver {
	return &DefaultResolver{opts: opts}
}

func (r *DefaultResolver) Resolve(ctx context.Context, in Input) (Result, error) {
	if in.Index == nil {
		return Result{}, ErrNoIndex
	}
	for _, req := range in.Requirements {
		if req == nil {
			return Result{}, errors.New("resolver: nil root requirement")
		}
	}
	cb := in.Callback
	if cb == nil {
		cb = DefaultCallback{}
	}

	id := uuid.NewString()
	log := logr.FromContextOrDiscard(ctx).WithValues("session", id)

	root, reqs := resource.NewInitial(in.Requirements)
	s := &session{
		id:       id,
		opts:     r.opts,
		index:    in.Index,
		callback: cb,
		log:      log,
		root:     root,
		orders:   map[*resource.Requirement][]*resource.Capability{},
		failed:   map[*resource.Requirement]bool{},
		cur:      newState(),
	}
	s.seed(reqs)

	log.V(1).Info("resolution started", "roots", len(reqs))
	res := s.run(ctx)
	log.Info("resolution finished",
		"outcome", res.Outcome.String(),
		"wires", res.Wiring.Len(),
		"steps", res.Stats.Steps,
		"backtracks", res.Stats.Backtracks,
	)
	return res, nil
}
