package graph

import (
	"fmt"
)

// WithHypotheticalEdge appends a public edge source->dest with the given
// capacity, runs fn, and removes that edge again on every exit path,
// including a panic inside fn. The edge list afterwards has the same elements
// in the same order as before the call.
//
// Not reentrant for the same source: concurrent callers must use a Fork each.
func WithHypotheticalEdge[T any](g *Graph, source, dest string, capacity int64, fn func() (T, error)) (T, error) {
	var zero T

	n, err := g.MustNode(source)
	if err != nil {
		return zero, err
	}

	prevLen := len(n.Edges)
	n.Edges = append(n.Edges, Edge{
		Source:      n.ID,
		Destination: dest,
		Capacity:    capacity,
		Public:      true,
	})
	defer func() {
		// Zero the dropped slot so a reused backing array does not retain it.
		n.Edges[prevLen] = Edge{}
		n.Edges = n.Edges[:prevLen]
	}()

	return fn()
}

// WithoutEdge removes the edge at index from source's edge list, runs fn, and
// puts the edge back at the same position on every exit path.
//
// An index outside the edge list is a caller bug; it is reported as
// ErrEdgeIndexOutOfRange before anything is touched.
func WithoutEdge[T any](g *Graph, source string, index int, fn func() (T, error)) (T, error) {
	var zero T

	n, err := g.MustNode(source)
	if err != nil {
		return zero, err
	}
	if index < 0 || index >= len(n.Edges) {
		return zero, fmt.Errorf("%w: %s has %d edges, index %d", ErrEdgeIndexOutOfRange, source, len(n.Edges), index)
	}

	original := n.Edges
	removed := make([]Edge, 0, len(original)-1)
	removed = append(removed, original[:index]...)
	removed = append(removed, original[index+1:]...)

	n.Edges = removed
	defer func() {
		n.Edges = original
	}()

	return fn()
}
