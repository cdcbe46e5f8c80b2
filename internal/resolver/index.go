package resolver

import (
	"context"

	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// CapabilityIndex supplies candidate capabilities for a requirement, most
// preferred first. Implementations should return the same order for the same
// requirement so that backtracking is deterministic. Errors are transient
// unless wrapped with Fatal.
type CapabilityIndex interface {
	Candidates(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error)
}

// IndexFunc adapts a function to CapabilityIndex.
type IndexFunc func(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error)

func (f IndexFunc) Candidates(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error) {
	return f(ctx, req)
}
