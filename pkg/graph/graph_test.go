package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	g := NewMockFactory().
		AddChannel("A", "B", 10).
		AddChannel("B", "C", 10).
		AddChannel("A", "C", 20).
		AddChannel("C", "ghost", 5).
		Build()

	// Destinations never create nodes.
	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 4, g.EdgeCount())
	assert.False(t, g.Has("ghost"))

	a, ok := g.Node("A")
	require.True(t, ok)
	require.Len(t, a.Edges, 2)
	assert.Equal(t, "B", a.Edges[0].Destination)
	assert.Equal(t, "C", a.Edges[1].Destination)
	assert.Equal(t, int64(20), a.Edges[1].Capacity)

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"A", "B", "C"}, ids, "nodes keep first-seen order")
	assert.Equal(t, 2, g.MaxDegree())
}

func TestBuildSkipsMalformedRecords(t *testing.T) {
	records := []ChannelRecord{
		{Source: "A", Destination: "B", Satoshis: Sats(1)},
		{Source: "", Destination: "B", Satoshis: Sats(1)},
		{Source: "A", Destination: "", Satoshis: Sats(1)},
		{Source: "A", Destination: "C"},
		{Source: "A", Destination: "C", Satoshis: Sats(-5)},
		{Source: "B", Destination: "A", Satoshis: Sats(0)},
	}

	g := Build(records)

	assert.Equal(t, 4, g.Skipped())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, 2, g.NodeCount())
}

func TestMustNodeUnknown(t *testing.T) {
	g := NewMockFactory().AddChannel("A", "B", 1).Build()

	_, err := g.MustNode("Z")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownNode))
	assert.Contains(t, err.Error(), "Z")
}

func TestResolveAliases(t *testing.T) {
	g := NewMockFactory().
		AddBidirectional("A", "B", 1).
		AddAlias("A", "alice").
		Build()

	a, _ := g.Node("A")
	b, _ := g.Node("B")
	assert.Equal(t, "alice", a.Alias)
	assert.Equal(t, "", b.Alias)
}

func TestForkIsolatesOnlyTheForkedNode(t *testing.T) {
	g := NewMockFactory().
		AddChannel("A", "B", 1).
		AddChannel("B", "C", 1).
		Build()

	f, err := g.Fork("A")
	require.NoError(t, err)

	fa, _ := f.Node("A")
	fa.Edges = append(fa.Edges, Edge{Source: "A", Destination: "C"})

	ga, _ := g.Node("A")
	assert.Len(t, ga.Edges, 1, "original edge list must not change")

	gb, _ := g.Node("B")
	fb, _ := f.Node("B")
	assert.Same(t, gb, fb, "other nodes are shared")

	_, err = g.Fork("nope")
	assert.ErrorIs(t, err, ErrUnknownNode)
}
