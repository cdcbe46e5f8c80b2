package resolver

import (
	"context"

	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// CandidateSelectionCallback orders candidates when the resolver cannot decide
// between them. It is called synchronously from the resolving goroutine and
// may block for as long as it needs.
//
// The returned slice is the preferred order. Candidates it omits keep their
// original order after the listed ones; capabilities that were not offered are
// ignored. Returning ErrSelectionCancelled cancels the session. Any other
// error keeps the original order.
type CandidateSelectionCallback interface {
	Select(ctx context.Context, req *resource.Requirement, alreadyWired, candidates []*resource.Capability) ([]*resource.Capability, error)
}

// CallbackFunc adapts a function to CandidateSelectionCallback.
type CallbackFunc func(ctx context.Context, req *resource.Requirement, alreadyWired, candidates []*resource.Capability) ([]*resource.Capability, error)

func (f CallbackFunc) Select(ctx context.Context, req *resource.Requirement, alreadyWired, candidates []*resource.Capability) ([]*resource.Capability, error) {
	return f(ctx, req, alreadyWired, candidates)
}

// DefaultCallback keeps the preference order without prompting.
type DefaultCallback struct{}

func (DefaultCallback) Select(_ context.Context, _ *resource.Requirement, _, candidates []*resource.Capability) ([]*resource.Capability, error) {
	return candidates, nil
}

// normalizeOrder applies chosen to candidates.
func normalizeOrder(chosen, candidates []*resource.Capability) []*resource.Capability {
	offered := make(map[*resource.Capability]bool, len(candidates))
	for _, c := range candidates {
		offered[c] = true
	}
	out := make([]*resource.Capability, 0, len(candidates))
	used := make(map[*resource.Capability]bool, len(candidates))
	for _, c := range chosen {
		if offered[c] && !used[c] {
			out = append(out, c)
			used[c] = true
		}
	}
	for _, c := range candidates {
		if !used[c] {
			out = append(out, c)
		}
	}
	return out
}
