package centrality

import (
	"fmt"
	"math"
	"strings"
)

// Normalization selects the divisor of the depth-decayed sum.
type Normalization int

const (
	// NormalizeHopSum divides by the sum of the hop aggregates.
	NormalizeHopSum Normalization = iota
	// NormalizeNodeCount divides by a graph-wide node count fixed for the run.
	NormalizeNodeCount
)

func (n Normalization) String() string {
	switch n {
	case NormalizeHopSum:
		return "hopsum"
	case NormalizeNodeCount:
		return "nodes"
	default:
		return fmt.Sprintf("Normalization(%d)", int(n))
	}
}

// ParseNormalization accepts "hopsum" or "nodes".
func ParseNormalization(s string) (Normalization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hopsum", "hop-sum", "sum", "":
		return NormalizeHopSum, nil
	case "nodes", "node-count", "nodecount":
		return NormalizeNodeCount, nil
	}
	return 0, fmt.Errorf("unknown normalization %q (want hopsum or nodes)", s)
}

// Scorer reduces a hop sequence to an integer score.
//
//	score = round(1000 * sum(v_d / d) / normaliser)
//
// Rounding is half away from zero (math.Round). A zero normaliser scores 0.
// Under node-count normalisation hop values are taken in Unit; capacity hops
// are in sats and the Analyzer scores them in BTC. Hop-sum is unit-free.
type Scorer struct {
	Normalization Normalization
	// Unit divides hop values under NormalizeNodeCount. 0 means 1.
	Unit float64
	// NodeCount is the divisor for NormalizeNodeCount. Keep it constant for
	// every score that is compared within one ranking.
	NodeCount int
}

// Score applies the depth decay and normalisation.
func (s Scorer) Score(h Hops) int {
	var weighted float64
	for i, v := range h {
		weighted += float64(v) / float64(i+1)
	}

	var norm float64
	switch s.Normalization {
	case NormalizeNodeCount:
		norm = float64(s.NodeCount)
		if s.Unit != 0 {
			weighted /= s.Unit
		}
	default:
		norm = float64(h.Total())
	}
	if norm == 0 {
		return 0
	}

	return int(math.Round(weighted / norm * 1000))
}

// Mode describes the scorer for reports.
func (s Scorer) Mode() string {
	if s.Normalization == NormalizeNodeCount {
		return fmt.Sprintf("%s(%d)", s.Normalization, s.NodeCount)
	}
	return s.Normalization.String()
}
