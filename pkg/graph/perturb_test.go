package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edgesOf(t *testing.T, g *Graph, id string) []Edge {
	t.Helper()
	n, ok := g.Node(id)
	require.True(t, ok)
	out := make([]Edge, len(n.Edges))
	copy(out, n.Edges)
	return out
}

func sampleGraph() *Graph {
	return NewMockFactory().
		AddChannel("A", "B", 100).
		AddChannel("A", "C", 200).
		AddChannel("A", "D", 300).
		AddChannel("B", "C", 50).
		Build()
}

func TestWithHypotheticalEdge(t *testing.T) {
	g := sampleGraph()
	before := edgesOf(t, g, "A")

	seen, err := WithHypotheticalEdge(g, "A", "Z", 42, func() (int, error) {
		a, _ := g.Node("A")
		last := a.Edges[len(a.Edges)-1]
		assert.Equal(t, "Z", last.Destination)
		assert.Equal(t, int64(42), last.Capacity)
		assert.True(t, last.Public)
		return len(a.Edges), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, seen)
	assert.Equal(t, before, edgesOf(t, g, "A"))
}

func TestWithHypotheticalEdgeRestoresOnError(t *testing.T) {
	g := sampleGraph()
	before := edgesOf(t, g, "A")
	boom := errors.New("boom")

	_, err := WithHypotheticalEdge(g, "A", "Z", 1, func() (struct{}, error) {
		return struct{}{}, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, edgesOf(t, g, "A"))
}

func TestWithHypotheticalEdgeRestoresOnPanic(t *testing.T) {
	g := sampleGraph()
	before := edgesOf(t, g, "A")

	assert.Panics(t, func() {
		_, _ = WithHypotheticalEdge(g, "A", "Z", 1, func() (int, error) {
			panic("scan exploded")
		})
	})
	assert.Equal(t, before, edgesOf(t, g, "A"))
}

func TestWithHypotheticalEdgeUnknownSource(t *testing.T) {
	g := sampleGraph()
	called := false

	_, err := WithHypotheticalEdge(g, "nope", "A", 1, func() (int, error) {
		called = true
		return 0, nil
	})

	assert.ErrorIs(t, err, ErrUnknownNode)
	assert.False(t, called)
}

func TestWithoutEdge(t *testing.T) {
	for _, idx := range []int{0, 1, 2} {
		g := sampleGraph()
		before := edgesOf(t, g, "A")

		_, err := WithoutEdge(g, "A", idx, func() (int, error) {
			during := edgesOf(t, g, "A")
			require.Len(t, during, 2)
			for _, e := range during {
				assert.NotEqual(t, before[idx].Destination, e.Destination)
			}
			return 0, nil
		})

		require.NoError(t, err)
		assert.Equal(t, before, edgesOf(t, g, "A"), "index %d", idx)
	}
}

func TestWithoutEdgeRestoresOnPanic(t *testing.T) {
	g := sampleGraph()
	before := edgesOf(t, g, "A")

	assert.Panics(t, func() {
		_, _ = WithoutEdge(g, "A", 1, func() (int, error) {
			panic("scan exploded")
		})
	})
	assert.Equal(t, before, edgesOf(t, g, "A"))
}

func TestWithoutEdgeIndexOutOfRange(t *testing.T) {
	g := sampleGraph()
	before := edgesOf(t, g, "A")

	for _, idx := range []int{-1, 3, 99} {
		_, err := WithoutEdge(g, "A", idx, func() (int, error) {
			t.Fatal("fn must not run")
			return 0, nil
		})
		assert.ErrorIs(t, err, ErrEdgeIndexOutOfRange)
	}
	assert.Equal(t, before, edgesOf(t, g, "A"))
}

func TestNestedPerturbation(t *testing.T) {
	g := sampleGraph()
	before := edgesOf(t, g, "A")

	_, err := WithoutEdge(g, "A", 0, func() (int, error) {
		return WithHypotheticalEdge(g, "A", "Q", 5, func() (int, error) {
			a, _ := g.Node("A")
			assert.Len(t, a.Edges, 3)
			return 0, nil
		})
	})

	require.NoError(t, err)
	assert.Equal(t, before, edgesOf(t, g, "A"))
}
