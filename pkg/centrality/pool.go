package centrality

import (
	"context"
	"sync/atomic"

	"github.com/lcwatch/lcw/pkg/graph"
	"golang.org/x/sync/errgroup"
)

// evaluate runs fn for every index in [0, n) and returns the results by
// index, so output order never depends on scheduling.
//
// When forkID is set each worker perturbs its own g.Fork(forkID) instead of
// the shared graph. A single worker runs in place on g.
func evaluate[T any](ctx context.Context, workers int, g *graph.Graph, forkID string, n int, fn func(view *graph.Graph, i int) (T, error)) ([]T, error) {
	out := make([]T, n)
	if n == 0 {
		return out, nil
	}
	if workers > n {
		workers = n
	}

	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			v, err := fn(g, i)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	var next atomic.Int64

	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			view := g
			if forkID != "" {
				f, err := g.Fork(forkID)
				if err != nil {
					return err
				}
				view = f
			}

			for {
				i := int(next.Add(1) - 1)
				if i >= n {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				v, err := fn(view, i)
				if err != nil {
					return err
				}
				out[i] = v
			}
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
