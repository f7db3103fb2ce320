package centrality

import (
	"context"
	"testing"

	"github.com/lcwatch/lcw/pkg/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		scorer Scorer
		hops   Hops
		want   int
	}{
		{"chain hop-sum", Scorer{Normalization: NormalizeHopSum}, Hops{1, 1, 1}, 611},
		{"chain node-count", Scorer{Normalization: NormalizeNodeCount, NodeCount: 4}, Hops{1, 1, 1}, 458},
		{"direct only", Scorer{}, Hops{5}, 1000},
		{"empty", Scorer{}, nil, 0},
		{"all zero", Scorer{}, Hops{0, 0}, 0},
		{"node-count unset", Scorer{Normalization: NormalizeNodeCount}, Hops{3, 2}, 0},
		{"capacity mix", Scorer{}, Hops{100, 50}, 833},
		// 1000 * (1 + 0.5/2) / 1.5 = 833.33
		{"half rounds away from zero", Scorer{Normalization: NormalizeNodeCount, NodeCount: 2000}, Hops{1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scorer.Score(tt.hops))
		})
	}
}

func TestScoreScaleInvariantUnderHopSum(t *testing.T) {
	s := Scorer{}
	assert.Equal(t, s.Score(Hops{3, 6, 9}), s.Score(Hops{300000, 600000, 900000}))
}

func TestScoreUnit(t *testing.T) {
	s := Scorer{Normalization: NormalizeNodeCount, NodeCount: 4, Unit: SatsPerBTC}
	assert.Equal(t, 458, s.Score(Hops{SatsPerBTC, SatsPerBTC, SatsPerBTC}))

	hopSum := Scorer{Unit: SatsPerBTC}
	assert.Equal(t, Scorer{}.Score(Hops{100, 50}), hopSum.Score(Hops{100, 50}))
}

func TestCapacityScoredInBTC(t *testing.T) {
	g := graph.NewMockFactory().
		AddChannel("A", "B", SatsPerBTC).
		AddChannel("B", "A", SatsPerBTC).
		Build()

	a := NewAnalyzer(
		WithScanner(NewScanner(WeightCapacity)),
		WithScorer(Scorer{Normalization: NormalizeNodeCount}),
	)
	res, err := a.Analyze(context.Background(), g, "A")
	require.NoError(t, err)
	// 1 BTC reached at depth 1 over 2 nodes.
	assert.Equal(t, 500, res.Score)

	count := NewAnalyzer(
		WithScanner(NewScanner(WeightCount)),
		WithScorer(Scorer{Normalization: NormalizeNodeCount}),
	)
	res, err = count.Analyze(context.Background(), g, "A")
	require.NoError(t, err)
	assert.Equal(t, 500, res.Score)
}

func TestParseNormalization(t *testing.T) {
	n, err := ParseNormalization("nodes")
	require.NoError(t, err)
	assert.Equal(t, NormalizeNodeCount, n)

	n, err = ParseNormalization("")
	require.NoError(t, err)
	assert.Equal(t, NormalizeHopSum, n)

	_, err = ParseNormalization("median")
	assert.Error(t, err)
}

func TestScorerMode(t *testing.T) {
	assert.Equal(t, "hopsum", Scorer{}.Mode())
	assert.Equal(t, "nodes(42)", Scorer{Normalization: NormalizeNodeCount, NodeCount: 42}.Mode())
}
