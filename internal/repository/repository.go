// Package repository provides the capability sources the resolver draws on:
// an in-memory repository, a Kubernetes ModuleManifest repository and an
// aggregating index that merges, filters and orders their providers.
package repository

import (
	"context"
	"sync"

	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// Repository returns the capabilities matching a requirement in a stable
// order. Errors are transient unless wrapped with resolver.Fatal.
type Repository interface {
	FindProviders(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error)
}

// Memory is a repository over resources held in memory. Providers are
// returned in resource declaration order.
type Memory struct {
	mu        sync.RWMutex
	resources []*resource.Resource
}

func NewMemory(resources ...*resource.Resource) *Memory {
	return &Memory{resources: append([]*resource.Resource(nil), resources...)}
}

func (m *Memory) Add(resources ...*resource.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources = append(m.resources, resources...)
}

func (m *Memory) Resources() []*resource.Resource {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*resource.Resource(nil), m.resources...)
}

func (m *Memory) FindProviders(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return matching(m.resources, req), nil
}

// Candidates lets a Memory serve directly as a resolver.CapabilityIndex.
func (m *Memory) Candidates(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error) {
	return m.FindProviders(ctx, req)
}

func matching(resources []*resource.Resource, req *resource.Requirement) []*resource.Capability {
	var out []*resource.Capability
	for _, r := range resources {
		for _, c := range r.Capabilities(req.Namespace()) {
			if req.Matches(c) {
				out = append(out, c)
			}
		}
	}
	return out
}
