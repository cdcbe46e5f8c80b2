// Package graph contains dependency graph utilities: a small ordered directed
// graph, topological ordering with cycle reporting, and strongly connected
// components.
package graph

import (
	"fmt"
	"strings"
)

// CycleError reports a dependency cycle. Path starts and ends with the same
// node, e.g. [A B A].
type CycleError[T comparable] struct {
	Path []T
}

func (e *CycleError[T]) Error() string {
	parts := make([]string, len(e.Path))
	for i, n := range e.Path {
		parts[i] = fmt.Sprint(n)
	}
	return "graph: dependency cycle: " + strings.Join(parts, " -> ")
}

// TopologicalOrder returns items and everything they depend on, dependencies
// first. Nodes are visited in the order items lists them and dependenciesOf
// returns them. Any cycle is an error; the returned path is the part of the
// traversal stack from the repeated node, with that node appended again.
func TopologicalOrder[T comparable](items []T, dependenciesOf func(T) []T) ([]T, error) {
	var (
		order   []T
		stack   []T
		onStack = map[T]int{}
		done    = map[T]bool{}
	)

	var visit func(n T) error
	visit = func(n T) error {
		if done[n] {
			return nil
		}
		if i, ok := onStack[n]; ok {
			path := append([]T(nil), stack[i:]...)
			return &CycleError[T]{Path: append(path, n)}
		}

		onStack[n] = len(stack)
		stack = append(stack, n)
		for _, d := range dependenciesOf(n) {
			if err := visit(d); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		delete(onStack, n)

		done[n] = true
		order = append(order, n)
		return nil
	}

	for _, n := range items {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Graph is a directed graph that remembers the order nodes and edges were added.
type Graph[T comparable] struct {
	nodes []T
	index map[T]int
	edges [][]int
}

func New[T comparable]() *Graph[T] {
	return &Graph[T]{index: map[T]int{}}
}

// AddNode adds n if it is not present yet.
func (g *Graph[T]) AddNode(n T) {
	g.id(n)
}

func (g *Graph[T]) id(n T) int {
	if i, ok := g.index[n]; ok {
		return i
	}
	i := len(g.nodes)
	g.index[n] = i
	g.nodes = append(g.nodes, n)
	g.edges = append(g.edges, nil)
	return i
}

// AddEdge adds the edge from -> to. Duplicate edges are ignored.
func (g *Graph[T]) AddEdge(from, to T) {
	f, t := g.id(from), g.id(to)
	for _, e := range g.edges[f] {
		if e == t {
			return
		}
	}
	g.edges[f] = append(g.edges[f], t)
}

// Nodes returns the nodes in insertion order.
func (g *Graph[T]) Nodes() []T {
	return append([]T(nil), g.nodes...)
}

// Edges returns the successors of n in insertion order.
func (g *Graph[T]) Edges(n T) []T {
	i, ok := g.index[n]
	if !ok {
		return nil
	}
	out := make([]T, len(g.edges[i]))
	for k, e := range g.edges[i] {
		out[k] = g.nodes[e]
	}
	return out
}

// StronglyConnected returns the strongly connected components of g using
// Tarjan's algorithm. Components come out in reverse topological order: a
// component is listed after every component it has edges to. Members of a
// component keep the order the traversal reached them.
func StronglyConnected[T comparable](g *Graph[T]) [][]T {
	n := len(g.nodes)
	var (
		index   = make([]int, n)
		low     = make([]int, n)
		onStack = make([]bool, n)
		stack   []int
		next    = 1
		out     [][]T
	)

	var connect func(v int)
	connect = func(v int) {
		index[v], low[v] = next, next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			switch {
			case index[w] == 0:
				connect(w)
				low[v] = min(low[v], low[w])
			case onStack[w]:
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] != index[v] {
			return
		}
		var comp []T
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp = append(comp, g.nodes[w])
			if w == v {
				break
			}
		}
		for i, j := 0, len(comp)-1; i < j; i, j = i+1, j-1 {
			comp[i], comp[j] = comp[j], comp[i]
		}
		out = append(out, comp)
	}

	for v := 0; v < n; v++ {
		if index[v] == 0 {
			connect(v)
		}
	}
	return out
}
