package resolver

import (
	"sort"

	"github.com/bayleafwalker/bindery-resolver/internal/graph"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// Graph returns the requirer -> provider graph of a wiring, without the initial
// resource and without self edges.
func Graph(w Wiring) *graph.Graph[*resource.Resource] {
	g := graph.New[*resource.Resource]()
	for _, r := range w.Resources() {
		if r.IsInitial() {
			continue
		}
		g.AddNode(r)
		for _, wire := range w.Wires(r) {
			if wire.Provider != r && !wire.Provider.IsInitial() {
				g.AddEdge(r, wire.Provider)
			}
		}
	}
	return g
}

// SortByDependencies orders the resources of a wiring so that providers come
// before the resources that require them. Resources on a dependency cycle are
// kept together, ordered by identity.
func SortByDependencies(w Wiring) []*resource.Resource {
	var out []*resource.Resource
	for _, comp := range graph.StronglyConnected(Graph(w)) {
		sort.SliceStable(comp, func(i, j int) bool {
			return comp[i].Key().String() < comp[j].Key().String()
		})
		out = append(out, comp...)
	}
	return out
}

// StrictOrder is SortByDependencies for callers that cannot tolerate cycles,
// such as build sequencing. A cycle yields *graph.CycleError.
func StrictOrder(w Wiring) ([]*resource.Resource, error) {
	g := Graph(w)
	return graph.TopologicalOrder(g.Nodes(), g.Edges)
}
