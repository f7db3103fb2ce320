package commands

import (
	"github.com/lcwatch/lcw/pkg/config"
	"github.com/lcwatch/lcw/pkg/engine"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func rankingFlags(fs *pflag.FlagSet) {
	bound(fs, "limit", "analysis.limit", func(fs *pflag.FlagSet, name string) {
		fs.IntP(name, "l", config.DefaultLimit, "Show at most this many entries (0 = all)")
	})
	bound(fs, "min-degree", "analysis.min_degree", func(fs *pflag.FlagSet, name string) {
		fs.Int(name, config.DefaultMinDegree, "Only consider nodes with at least this many channels")
	})
}

func newNodeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "node [id|self]",
		Short: "Score a node's reach into the graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := engine.SelfAlias
			if len(args) == 1 {
				id = args[0]
			}
			return c.run(cmd, func(e *engine.Engine) error {
				a, err := e.AnalyzeNode(cmd.Context(), id)
				if err != nil {
					return err
				}
				return c.emit(cmd, a)
			})
		},
	}
}

func newBestPeersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bestpeers",
		Short: "Rank peers by the score a new channel to them would add",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(e *engine.Engine) error {
				p, err := e.BestPeers(cmd.Context())
				if err != nil {
					return err
				}
				return c.emit(cmd, p)
			})
		},
	}
	rankingFlags(cmd.Flags())
	bound(cmd.Flags(), "amount", "analysis.amount", func(fs *pflag.FlagSet, name string) {
		fs.Int64(name, config.DefaultAmount, "Capacity of the new channel in sats")
	})
	return cmd
}

func newBestNodesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bestnodes",
		Short: "Rank the best connected nodes of the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(e *engine.Engine) error {
				n, err := e.BestNodes(cmd.Context())
				if err != nil {
					return err
				}
				return c.emit(cmd, n)
			})
		},
	}
	rankingFlags(cmd.Flags())
	return cmd
}

func newChannelsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "Show what each channel adds to the node score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(e *engine.Engine) error {
				ch, err := e.Channels(cmd.Context())
				if err != nil {
					return err
				}
				return c.emit(cmd, ch)
			})
		},
	}
}
