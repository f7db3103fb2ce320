package engine

import (
	"context"
	"fmt"

	"github.com/lcwatch/lcw/pkg/graph"
	"github.com/lcwatch/lcw/pkg/lightning"
	"github.com/lcwatch/lcw/pkg/report"
)

// LoadGraph fetches the public channel graph and attaches node aliases.
func (e *Engine) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	return do(ctx, e, "engine.LoadGraph", false, func(ctx context.Context) (*graph.Graph, error) {
		e.Logger.Info("Getting all channels")
		channels, err := e.Client.ListChannels(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to list channels: %w", err)
		}
		g := graph.Build(lightning.Records(channels))

		nodes, err := e.Client.ListNodes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list nodes: %w", err)
		}
		g.ResolveAliases(lightning.Aliases(nodes))

		e.Logger.Info("Network built", "stats", g.DumpStats())
		return g, nil
	})
}

// resolveID maps "self" (or nothing) to the local node id.
func (e *Engine) resolveID(ctx context.Context, id string) (string, error) {
	if id != "" && id != SelfAlias {
		return id, nil
	}
	info, err := e.Client.GetInfo(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get node info: %w", err)
	}
	return info.ID, nil
}

// AnalyzeNode scores a single node; id may be "self".
func (e *Engine) AnalyzeNode(ctx context.Context, id string) (report.Analysis, error) {
	return do(ctx, e, "engine.AnalyzeNode", true, func(ctx context.Context) (report.Analysis, error) {
		nodeID, err := e.resolveID(ctx, id)
		if err != nil {
			return report.Analysis{}, err
		}
		g, err := e.LoadGraph(ctx)
		if err != nil {
			return report.Analysis{}, err
		}
		res, err := e.Analyzer.Analyze(ctx, g, nodeID)
		if err != nil {
			return report.Analysis{}, err
		}
		return report.Analysis{Mode: e.Analyzer.Mode(g), Result: res}, nil
	})
}

// BestPeers ranks the peers a new channel of analysis.amount sats would
// improve the local score the most with.
func (e *Engine) BestPeers(ctx context.Context) (report.Peers, error) {
	return do(ctx, e, "engine.BestPeers", true, func(ctx context.Context) (report.Peers, error) {
		cfg := e.config.Analysis
		self, err := e.resolveID(ctx, SelfAlias)
		if err != nil {
			return report.Peers{}, err
		}
		g, err := e.LoadGraph(ctx)
		if err != nil {
			return report.Peers{}, err
		}
		e.Logger.Info("Searching for best connectivity peers", "amount", cfg.Amount, "min_degree", cfg.MinDegree)
		baseline, cands, err := e.Analyzer.RankCandidates(ctx, g, self, cfg.Amount, cfg.MinDegree, cfg.Limit)
		if err != nil {
			return report.Peers{}, err
		}
		return report.Peers{Mode: e.Analyzer.Mode(g), Amount: cfg.Amount, Baseline: baseline, Candidates: cands}, nil
	})
}

// BestNodes ranks the whole graph by centrality.
func (e *Engine) BestNodes(ctx context.Context) (report.Nodes, error) {
	return do(ctx, e, "engine.BestNodes", true, func(ctx context.Context) (report.Nodes, error) {
		cfg := e.config.Analysis
		g, err := e.LoadGraph(ctx)
		if err != nil {
			return report.Nodes{}, err
		}
		e.Logger.Info("Searching for best connected nodes", "min_degree", cfg.MinDegree)
		ranked, err := e.Analyzer.RankNodes(ctx, g, cfg.MinDegree, cfg.Limit)
		if err != nil {
			return report.Nodes{}, err
		}
		return report.Nodes{Mode: e.Analyzer.Mode(g), Nodes: ranked}, nil
	})
}

// Channels measures what each local channel adds to the local score.
func (e *Engine) Channels(ctx context.Context) (report.Channels, error) {
	return do(ctx, e, "engine.Channels", true, func(ctx context.Context) (report.Channels, error) {
		self, err := e.resolveID(ctx, SelfAlias)
		if err != nil {
			return report.Channels{}, err
		}
		g, err := e.LoadGraph(ctx)
		if err != nil {
			return report.Channels{}, err
		}
		baseline, contribs, err := e.Analyzer.ChannelContributions(ctx, g, self)
		if err != nil {
			return report.Channels{}, err
		}
		return report.Channels{Mode: e.Analyzer.Mode(g), Baseline: baseline, Contributions: contribs}, nil
	})
}
