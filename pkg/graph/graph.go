package graph

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lcwatch/lcw/pkg/sys/intern"
)

var (
	// ErrUnknownNode is returned when an operation is keyed by an id that is not
	// the source of any channel in the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrEdgeIndexOutOfRange reports a caller bookkeeping bug in WithoutEdge.
	ErrEdgeIndexOutOfRange = errors.New("edge index out of range")
)

// Graph is the in-memory channel graph.
//
// Nodes keep the order in which their ids were first seen as a channel source;
// every ranking uses that order as its stable tie-breaker. The set of nodes is
// fixed once Build returns. Only edge lists change, and only inside the scoped
// helpers in perturb.go.
type Graph struct {
	nodes   []*Node
	idMap   map[string]int
	edges   int
	skipped int
}

// Build assembles a graph from raw channel records. Malformed records are
// logged and skipped; construction never fails.
func Build(records []ChannelRecord) *Graph {
	g := &Graph{
		nodes: make([]*Node, 0, len(records)/8+1),
		idMap: make(map[string]int),
	}

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			g.skipped++
			slog.Warn("skipping malformed channel record",
				"index", i,
				"short_channel_id", rec.ShortChannelID,
				"error", err)
			continue
		}

		src := g.ensureNode(rec.Source)
		src.Edges = append(src.Edges, Edge{
			ShortChannelID: rec.ShortChannelID,
			Source:         src.ID,
			Destination:    intern.String(rec.Destination),
			Capacity:       *rec.Satoshis,
			Public:         rec.Public,
		})
		g.edges++
	}

	if g.skipped > 0 {
		slog.Warn("channel graph built with skipped records", "skipped", g.skipped, "nodes", len(g.nodes))
	}
	return g
}

func (g *Graph) ensureNode(id string) *Node {
	if idx, ok := g.idMap[id]; ok {
		return g.nodes[idx]
	}
	id = intern.String(id)
	n := &Node{ID: id}
	g.idMap[id] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	return n
}

// Node returns the node for id, or false if id is not in the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	idx, ok := g.idMap[id]
	if !ok {
		return nil, false
	}
	return g.nodes[idx], true
}

// MustNode is Node with ErrUnknownNode for absent ids.
func (g *Graph) MustNode(id string) (*Node, error) {
	n, ok := g.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return n, nil
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.idMap[id]
	return ok
}

// Nodes returns the nodes in enumeration order. The slice is a copy; the
// nodes are not.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// NodeCount returns |G|.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges accepted by Build.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Skipped returns the number of malformed records dropped by Build.
func (g *Graph) Skipped() int {
	return g.skipped
}

// MaxDegree returns the longest edge list in the graph.
func (g *Graph) MaxDegree() int {
	max := 0
	for _, n := range g.nodes {
		if len(n.Edges) > max {
			max = len(n.Edges)
		}
	}
	return max
}

// ResolveAliases attaches display names. Ids missing from aliases keep an
// empty alias.
func (g *Graph) ResolveAliases(aliases map[string]string) {
	for _, n := range g.nodes {
		if a, ok := aliases[n.ID]; ok {
			n.Alias = a
		}
	}
}

// Fork returns a graph that shares every node with g except id, whose edge
// list is copied. Perturbing id on the fork never touches g, so each worker of
// a parallel what-if pass can own one fork.
func (g *Graph) Fork(id string) (*Graph, error) {
	idx, ok := g.idMap[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	nodes := make([]*Node, len(g.nodes))
	copy(nodes, g.nodes)

	orig := g.nodes[idx]
	clone := &Node{
		ID:    orig.ID,
		Alias: orig.Alias,
		Edges: make([]Edge, len(orig.Edges), len(orig.Edges)+1),
	}
	copy(clone.Edges, orig.Edges)
	nodes[idx] = clone

	return &Graph{
		nodes:   nodes,
		idMap:   g.idMap, // read-only after Build
		edges:   g.edges,
		skipped: g.skipped,
	}, nil
}

// DumpStats summarises the graph for logs.
func (g *Graph) DumpStats() string {
	return fmt.Sprintf("Nodes: %d | Edges: %d | Skipped: %d", len(g.nodes), g.edges, g.skipped)
}
