package centrality

import (
	"context"

	"github.com/lcwatch/lcw/pkg/graph"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Contribution is the score self would lose without one of its channels.
type Contribution struct {
	Edge         graph.Edge `json:"-" yaml:"-"`
	ChannelID    string     `json:"short_channel_id" yaml:"short_channel_id"`
	PeerID       string     `json:"peer_id" yaml:"peer_id"`
	PeerAlias    string     `json:"peer_alias" yaml:"peer_alias"`
	Capacity     int64      `json:"capacity" yaml:"capacity"`
	WithoutScore int        `json:"without_score" yaml:"without_score"`
	Contribution int        `json:"contribution" yaml:"contribution"`
	// PeerScore is the peer's own score; PeerKnown is false when the peer is
	// not a channel source in the graph.
	PeerScore int  `json:"peer_score" yaml:"peer_score"`
	PeerKnown bool `json:"peer_known" yaml:"peer_known"`
}

// Positive reports whether removing the channel would lower self's score.
func (c Contribution) Positive() bool {
	return c.Contribution > 0
}

// ChannelContributions removes each of self's edges in turn and reports the
// score lost, in edge-list order.
func (a *Analyzer) ChannelContributions(ctx context.Context, g *graph.Graph, selfID string) (baseline Result, out []Contribution, err error) {
	ctx, span := a.tracer.Start(ctx, "centrality.ChannelContributions")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	self, err := g.MustNode(selfID)
	if err != nil {
		return Result{}, nil, err
	}
	edges := make([]graph.Edge, len(self.Edges))
	copy(edges, self.Edges)
	span.SetAttributes(attribute.Int("channels", len(edges)))

	baseline, err = a.Analyze(ctx, g, selfID)
	if err != nil {
		return Result{}, nil, err
	}

	out, err = evaluate(ctx, a.workers(), g, selfID, len(edges), func(view *graph.Graph, i int) (Contribution, error) {
		without, err := graph.WithoutEdge(view, selfID, i, func() (int, error) {
			return a.scoreOf(ctx, view, selfID)
		})
		if err != nil {
			return Contribution{}, err
		}

		e := edges[i]
		c := Contribution{
			Edge:         e,
			ChannelID:    e.ShortChannelID,
			PeerID:       e.Destination,
			Capacity:     e.Capacity,
			WithoutScore: without,
			Contribution: baseline.Score - without,
		}
		if peer, ok := view.Node(e.Destination); ok {
			c.PeerAlias = peer.Alias
			c.PeerKnown = true
			c.PeerScore, err = a.scoreOf(ctx, view, peer.ID)
			if err != nil {
				return Contribution{}, err
			}
		}
		return c, nil
	})
	if err != nil {
		return baseline, nil, err
	}
	return baseline, out, nil
}
