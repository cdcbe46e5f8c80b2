package resolver

import (
	"context"

	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// Resolver computes a wiring for a set of root requirements.
//
// The error return is reserved for invalid input. A resolution that fails or is
// cancelled still returns a Result describing what happened.
type Resolver interface {
	Resolve(ctx context.Context, in Input) (Result, error)
}

// Resolve runs one session with default options. ctx is the cancellation
// signal; it is observed between steps.
func Resolve(ctx context.Context, reqs []*resource.Requirement, index CapabilityIndex, cb CandidateSelectionCallback) (Result, error) {
	return NewDefault(Options{}).Resolve(ctx, Input{Requirements: reqs, Index: index, Callback: cb})
}
