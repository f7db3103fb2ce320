package centrality

import (
	"context"
	"sort"

	"github.com/lcwatch/lcw/pkg/graph"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Candidate is a node evaluated as a new direct peer of self.
type Candidate struct {
	NodeID string `json:"node_id" yaml:"node_id"`
	Alias  string `json:"alias" yaml:"alias"`
	Degree int    `json:"degree" yaml:"degree"`
	Score  int    `json:"score" yaml:"score"`
	Delta  int    `json:"delta" yaml:"delta"`
}

// Ranked is a node scored on its own connectivity.
type Ranked struct {
	NodeID string `json:"node_id" yaml:"node_id"`
	Alias  string `json:"alias" yaml:"alias"`
	Degree int    `json:"degree" yaml:"degree"`
	Hops   Hops   `json:"hops" yaml:"hops"`
	Score  int    `json:"score" yaml:"score"`
}

// RankCandidates scores self as if it opened a channel of the given capacity
// to each node with at least minDegree edges. Only candidates that raise the
// baseline are kept, highest score first, ties in enumeration order. A limit
// <= 0 keeps everything.
func (a *Analyzer) RankCandidates(ctx context.Context, g *graph.Graph, selfID string, capacity int64, minDegree, limit int) (baseline Result, out []Candidate, err error) {
	ctx, span := a.tracer.Start(ctx, "centrality.RankCandidates", trace.WithAttributes(
		attribute.Int64("capacity", capacity),
		attribute.Int("min_degree", minDegree),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	baseline, err = a.Analyze(ctx, g, selfID)
	if err != nil {
		return Result{}, nil, err
	}

	pool := eligible(g, minDegree)
	span.SetAttributes(attribute.Int("candidates", len(pool)))

	scores, err := evaluate(ctx, a.workers(), g, selfID, len(pool), func(view *graph.Graph, i int) (int, error) {
		return graph.WithHypotheticalEdge(view, selfID, pool[i].ID, capacity, func() (int, error) {
			return a.scoreOf(ctx, view, selfID)
		})
	})
	if err != nil {
		return baseline, nil, err
	}

	for i, n := range pool {
		delta := scores[i] - baseline.Score
		if delta <= 0 {
			continue
		}
		out = append(out, Candidate{
			NodeID: n.ID,
			Alias:  n.Alias,
			Degree: n.Degree(),
			Score:  scores[i],
			Delta:  delta,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return baseline, truncate(out, limit), nil
}

// RankNodes scores every node with at least minDegree edges on its own
// reachability, highest first.
func (a *Analyzer) RankNodes(ctx context.Context, g *graph.Graph, minDegree, limit int) (out []Ranked, err error) {
	ctx, span := a.tracer.Start(ctx, "centrality.RankNodes", trace.WithAttributes(
		attribute.Int("min_degree", minDegree),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	pool := eligible(g, minDegree)
	span.SetAttributes(attribute.Int("candidates", len(pool)))

	// Read-only traversals: no fork needed.
	results, err := evaluate(ctx, a.workers(), g, "", len(pool), func(view *graph.Graph, i int) (Result, error) {
		return a.Analyze(ctx, view, pool[i].ID)
	})
	if err != nil {
		return nil, err
	}

	out = make([]Ranked, 0, len(results))
	for i, r := range results {
		out = append(out, Ranked{
			NodeID: r.NodeID,
			Alias:  r.Alias,
			Degree: pool[i].Degree(),
			Hops:   r.Hops,
			Score:  r.Score,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return truncate(out, limit), nil
}

func eligible(g *graph.Graph, minDegree int) []*graph.Node {
	var pool []*graph.Node
	for _, n := range g.Nodes() {
		if n.Degree() >= minDegree {
			pool = append(pool, n)
		}
	}
	return pool
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
