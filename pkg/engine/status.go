package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lcwatch/lcw/pkg/fees"
	"github.com/lcwatch/lcw/pkg/filter"
	"github.com/lcwatch/lcw/pkg/history"
	"github.com/lcwatch/lcw/pkg/lightning"
	"github.com/lcwatch/lcw/pkg/node"
	"github.com/lcwatch/lcw/pkg/report"
)

// ErrNotFound is returned by Lookup when nothing matches.
var ErrNotFound = errors.New("specified id not found in peers list")

// StatusOptions selects what Status shows.
type StatusOptions struct {
	// Filters are CEL expressions, OR-ed. Empty means filter.Default at
	// verbosity <= 2 and everything above.
	Filters   []string
	Sort      string
	Limit     int
	Since     int
	Verbosity int
}

// Summary collects the local node state. With since > 0 counters are
// relative to the snapshot stored that many days ago, if there is one.
func (e *Engine) Summary(ctx context.Context, since int) (*node.Summary, error) {
	return do(ctx, e, "engine.Summary", false, func(ctx context.Context) (*node.Summary, error) {
		store, err := e.Store()
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		ignored, err := store.Ignored()
		if err != nil {
			return nil, err
		}
		in := node.Input{Ignored: ignored}

		now := e.now()
		if since > 0 {
			day := history.Day(now, since)
			snap, ok, err := store.LoadDay(day)
			if err != nil {
				return nil, err
			}
			if ok {
				in.Ref = &node.Reference{Day: day, DaysAgo: since, Snapshot: snap}
			} else {
				e.Logger.Warn("No stored data for reference day", "day", day)
			}
		}

		if in.Info, err = e.Client.GetInfo(ctx); err != nil {
			return nil, fmt.Errorf("failed to get node info: %w", err)
		}
		if in.Funds, err = e.Client.ListFunds(ctx); err != nil {
			return nil, fmt.Errorf("failed to list funds: %w", err)
		}
		if in.Own, err = e.Client.ListChannels(ctx, in.Info.ID); err != nil {
			return nil, fmt.Errorf("failed to list own channels: %w", err)
		}
		if in.Peers, err = e.Client.ListPeers(ctx); err != nil {
			return nil, fmt.Errorf("failed to list peers: %w", err)
		}
		if in.Nodes, err = e.Client.ListNodes(ctx); err != nil {
			return nil, fmt.Errorf("failed to list nodes: %w", err)
		}
		return node.Build(in, now, e.Logger), nil
	})
}

// Matcher compiles the display filters. Without filters, low verbosity
// falls back to filter.Default.
func (o StatusOptions) Matcher() (*filter.Filter, error) {
	exprs := o.Filters
	if len(exprs) == 0 && o.Verbosity <= 2 {
		exprs = []string{filter.Default}
	}
	return filter.New(exprs...)
}

// Status builds the status report.
func (e *Engine) Status(ctx context.Context, opts StatusOptions) (report.Status, error) {
	f, err := opts.Matcher()
	if err != nil {
		return report.Status{}, err
	}

	sum, err := e.Summary(ctx, opts.Since)
	if err != nil {
		return report.Status{}, err
	}
	channels, err := sum.Select(f, opts.Sort, opts.Limit)
	if err != nil {
		return report.Status{}, err
	}
	return report.Status{Filter: f.String(), Sort: opts.Sort, Summary: sum, Channels: channels}, nil
}

// SetFees plans fee updates from the current balances and, unless dryRun is
// set, pushes them to the daemon.
func (e *Engine) SetFees(ctx context.Context, p fees.Policy, dryRun bool) (report.FeePlan, error) {
	sum, err := e.Summary(ctx, 0)
	if err != nil {
		return report.FeePlan{}, err
	}
	changes, skipped := fees.Plan(sum.Channels, p)
	plan := report.FeePlan{Policy: p, DryRun: dryRun, Changes: changes, Skipped: skipped}
	if dryRun {
		return plan, nil
	}
	return do(ctx, e, "engine.SetFees", false, func(ctx context.Context) (report.FeePlan, error) {
		return plan, fees.Apply(ctx, e.Client, changes)
	})
}

// StoreToday saves today's counters. A second call on the same day returns
// history.ErrDayExists.
func (e *Engine) StoreToday(ctx context.Context) (string, error) {
	sum, err := e.Summary(ctx, 0)
	if err != nil {
		return "", err
	}
	store, err := e.Store()
	if err != nil {
		return "", err
	}
	day := history.Day(e.now(), 0)
	if err := store.SaveDay(day, sum.Snapshot()); err != nil {
		return day, err
	}
	e.Logger.Info("Stored channel data", "day", day, "channels", len(sum.Channels))
	return day, nil
}

// Ignore hides a channel from every later status.
func (e *Engine) Ignore(shortChannelID string) error {
	store, err := e.Store()
	if err != nil {
		return err
	}
	if err := store.Ignore(shortChannelID); err != nil {
		return err
	}
	e.Logger.Info("Channel ignored", "short_channel_id", shortChannelID)
	return nil
}

// Lookup finds raw peer data by peer id, id fragment or short channel id,
// walking peers in listpeers order. An exact peer id or channel id wins.
// Fragment matches collect the run of consecutive peers whose id contains
// the query; the first non-matching peer after a match ends the search.
func (e *Engine) Lookup(ctx context.Context, query string) (report.Lookup, error) {
	peers, err := e.Client.ListPeers(ctx)
	if err != nil {
		return report.Lookup{}, fmt.Errorf("failed to list peers: %w", err)
	}
	var matches []any
	for _, p := range peers {
		if p.ID == query {
			matches = []any{p}
			break
		}
		if strings.Contains(p.ID, query) {
			matches = append(matches, p)
			continue
		}
		if c, ok := channelByID(p.Channels, query); ok {
			matches = []any{c}
			break
		}
		if len(matches) > 0 {
			break
		}
	}
	if len(matches) == 0 {
		return report.Lookup{}, fmt.Errorf("%w: %s", ErrNotFound, query)
	}
	return report.Lookup{Query: query, Matches: matches}, nil
}

func channelByID(channels []lightning.PeerChannel, id string) (lightning.PeerChannel, bool) {
	for _, c := range channels {
		if c.ShortChannelID == id {
			return c, true
		}
	}
	return lightning.PeerChannel{}, false
}
