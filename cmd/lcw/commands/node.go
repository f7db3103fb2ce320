package commands

import (
	"errors"
	"fmt"

	"github.com/lcwatch/lcw/pkg/engine"
	"github.com/lcwatch/lcw/pkg/fees"
	"github.com/lcwatch/lcw/pkg/history"
	"github.com/lcwatch/lcw/pkg/metrics"
	"github.com/lcwatch/lcw/pkg/report"
	"github.com/lcwatch/lcw/pkg/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newStatusCmd(c *cli) *cobra.Command {
	var (
		opts        engine.StatusOptions
		interactive bool
		promFile    string
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show wallet funds, channels and forwarding statistics",
		Long: `Show wallet funds, channels and forwarding statistics.

Filters are CEL expressions over the channel fields, e.g.
  -f 'tx_per_day > 1.0' -f 'state != "CHANNELD_NORMAL"'
A channel is shown when any filter matches. Sort keys are field names,
prefixed with "/" for descending order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbosity = c.verbosity
			return c.run(cmd, func(e *engine.Engine) error {
				s, err := e.Status(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if promFile != "" {
					if err := exportMetrics(cmd, e, s, promFile); err != nil {
						return err
					}
				}
				if interactive {
					f, err := opts.Matcher()
					if err != nil {
						return err
					}
					return tui.Run(tui.NewModel(s, f, opts.Limit, opts.Verbosity, e.Ignore))
				}
				return c.emit(cmd, s)
			})
		},
	}
	cmd.Flags().BoolVar(&interactive, "tui", false, "Browse the channels interactively")
	cmd.Flags().StringVar(&promFile, "prom-file", "", "Also write node and channel gauges to this Prometheus textfile")
	cmd.Flags().StringArrayVarP(&opts.Filters, "filter", "f", nil, "Display filter (CEL expression, repeatable)")
	cmd.Flags().StringVarP(&opts.Sort, "sort", "s", "", "Sort channels by this field (\"/field\" = descending)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 0, "Show at most this many channels (0 = all)")
	cmd.Flags().IntVar(&opts.Since, "since", 0, "Count payments since the data stored this many days ago")
	return cmd
}

// exportMetrics writes the status gauges and the node's centrality score.
func exportMetrics(cmd *cobra.Command, e *engine.Engine, s report.Status, path string) error {
	exp := metrics.NewExporter()
	exp.ObserveStatus(s)
	a, err := e.AnalyzeNode(cmd.Context(), engine.SelfAlias)
	if err != nil {
		return err
	}
	exp.ObserveAnalysis(a)
	return exp.WriteTextfile(path)
}

func newSetFeesCmd(c *cli) *cobra.Command {
	var (
		policy string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "setfees",
		Short: "Set channel ppm fees from outbound liquidity",
		Long: `Set channel ppm fees from outbound liquidity.

ppm = k / out_ratio + offset, rounded to tens and capped at max.
The base fee is always 0. Channels at 0 ppm are skipped unless --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := fees.Policy{K: c.cfg.Fees.K, Offset: c.cfg.Fees.Offset, Max: c.cfg.Fees.Max}
			if policy != "" {
				var err error
				if p, err = fees.ParsePolicy(policy); err != nil {
					return err
				}
			}
			p.Force = c.cfg.Fees.Force
			return c.run(cmd, func(e *engine.Engine) error {
				plan, err := e.SetFees(cmd.Context(), p, dryRun)
				if err != nil && len(plan.Changes) == 0 {
					return err
				}
				// Failed updates still show the full plan.
				if emitErr := c.emit(cmd, plan); emitErr != nil {
					return errors.Join(err, emitErr)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&policy, "fees", "", "Fee policy <k>/<offset>/<max> (default from config, 50/-40/2000)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the changes without applying them")
	bound(cmd.Flags(), "force", "fees.force", func(fs *pflag.FlagSet, name string) {
		fs.Bool(name, false, "Do not skip channels at 0 ppm")
	})
	return cmd
}

func newStoreCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "store",
		Short: "Store today's channel counters as a reference for --since",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(e *engine.Engine) error {
				day, err := e.StoreToday(cmd.Context())
				if errors.Is(err, history.ErrDayExists) {
					fmt.Fprintln(cmd.OutOrStdout(), "today's data is already stored")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored channel data for %s\n", day)
				return nil
			})
		},
	}
}

func newIgnoreCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ignore <short_channel_id>",
		Short: "Hide a channel from status for ever",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(e *engine.Engine) error {
				return e.Ignore(args[0])
			})
		},
	}
}

func newLookupCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <peer_id|fragment|short_channel_id>",
		Short: "Dump the raw peer or channel record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(e *engine.Engine) error {
				l, err := e.Lookup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.emit(cmd, l)
			})
		},
	}
}
