// Package centrality scores how quickly a node's neighbourhood expands in the
// channel graph and evaluates what-if channel additions and removals.
package centrality

import (
	"fmt"
	"strings"

	"github.com/lcwatch/lcw/pkg/graph"
)

// DefaultMaxDepth bounds every traversal.
const DefaultMaxDepth = 9

// Weighting selects what a hop layer contributes to its aggregate.
type Weighting int

const (
	// WeightCapacity sums, per newly reached node, the capacity of every edge
	// that reached it in that layer.
	WeightCapacity Weighting = iota
	// WeightCount counts newly reached nodes.
	WeightCount
)

func (w Weighting) String() string {
	switch w {
	case WeightCount:
		return "count"
	case WeightCapacity:
		return "capacity"
	default:
		return fmt.Sprintf("Weighting(%d)", int(w))
	}
}

// ParseWeighting accepts "count" or "capacity".
func ParseWeighting(s string) (Weighting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "count", "nodes":
		return WeightCount, nil
	case "capacity", "sats", "":
		return WeightCapacity, nil
	}
	return 0, fmt.Errorf("unknown weighting %q (want count or capacity)", s)
}

// Hops holds one aggregate per depth, index 0 being depth 1. The sequence
// stops at the first depth that reaches no new node.
type Hops []int64

// Total sums every layer.
func (h Hops) Total() int64 {
	var sum int64
	for _, v := range h {
		sum += v
	}
	return sum
}

// Scanner runs bounded breadth-first traversals.
type Scanner struct {
	MaxDepth  int
	Weighting Weighting
}

// NewScanner returns a scanner bounded at DefaultMaxDepth.
func NewScanner(w Weighting) Scanner {
	return Scanner{MaxDepth: DefaultMaxDepth, Weighting: w}
}

// Scan walks out from startID one layer at a time. A destination joins the
// next layer only if it is a graph node that is neither visited nor in the
// current frontier; destinations outside the graph are leaves and skipped.
func (s Scanner) Scan(g *graph.Graph, startID string) (Hops, error) {
	start, err := g.MustNode(startID)
	if err != nil {
		return nil, err
	}

	maxDepth := s.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	visited := map[string]struct{}{start.ID: {}}
	frontier := []*graph.Node{start}
	inFrontier := map[string]struct{}{start.ID: {}}

	var hops Hops
	for depth := 1; depth <= maxDepth; depth++ {
		next := make(map[string]int64)
		var order []*graph.Node

		for _, n := range frontier {
			for _, e := range n.Edges {
				dst, ok := g.Node(e.Destination)
				if !ok {
					continue
				}
				if _, seen := visited[dst.ID]; seen {
					continue
				}
				if _, cur := inFrontier[dst.ID]; cur {
					continue
				}
				if _, queued := next[dst.ID]; !queued {
					order = append(order, dst)
				}
				next[dst.ID] += e.Capacity
			}
		}

		for id := range inFrontier {
			visited[id] = struct{}{}
		}
		if len(order) == 0 {
			break
		}

		switch s.Weighting {
		case WeightCount:
			hops = append(hops, int64(len(order)))
		default:
			var sum int64
			for _, c := range next {
				sum += c
			}
			hops = append(hops, sum)
		}

		frontier = order
		inFrontier = make(map[string]struct{}, len(order))
		for _, n := range order {
			inFrontier[n.ID] = struct{}{}
		}
	}

	return hops, nil
}
