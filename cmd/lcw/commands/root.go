package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/lcwatch/lcw/pkg/config"
	"github.com/lcwatch/lcw/pkg/engine"
	"github.com/lcwatch/lcw/pkg/report"
	"github.com/lcwatch/lcw/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configKey annotates a flag with the config key it overrides.
const configKey = "lcw_config_key"

// cli carries the state shared by every command of one invocation.
type cli struct {
	v         *viper.Viper
	cfgFile   string
	output    string
	verbosity int
	cfg       config.Config
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree with a fresh viper instance.
func NewRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	config.SetDefaults(c.v)

	root := &cobra.Command{
		Use:   version.AppName,
		Short: "Lightning channel graph analysis",
		Long: `lcw - Lightning channel watch

Scores nodes by how well they reach the rest of the channel graph,
ranks peers for new channels and reports on the local node.`,
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "Config file (default $HOME/.lcw.yaml)")
	pf.StringVarP(&c.output, "output", "o", "text", "Output format: text, json, yaml or csv")
	pf.IntVarP(&c.verbosity, "verbosity", "v", 2, "Verbosity level: 1 to 5")
	bound(pf, "test", "lightning.test_dir", func(fs *pflag.FlagSet, name string) {
		fs.String(name, "", "Read canned daemon responses from this directory")
	})
	bound(pf, "json-logs", "logging.json", func(fs *pflag.FlagSet, name string) {
		fs.Bool(name, false, "Log as JSON")
	})
	bound(pf, "log-level", "logging.level", func(fs *pflag.FlagSet, name string) {
		fs.String(name, "info", "Log level: debug, info, warn or error")
	})
	bound(pf, "workers", "analysis.workers", func(fs *pflag.FlagSet, name string) {
		fs.Int(name, 0, "Concurrent evaluations (0 = one per CPU, 1 = sequential)")
	})
	bound(pf, "weighting", "analysis.weighting", func(fs *pflag.FlagSet, name string) {
		fs.String(name, config.WeightingCapacity, "Hop weighting: capacity or count")
	})
	bound(pf, "normalization", "analysis.normalization", func(fs *pflag.FlagSet, name string) {
		fs.String(name, config.NormalizationHopSum, "Score normaliser: hopsum or nodes")
	})
	bound(pf, "max-depth", "analysis.max_depth", func(fs *pflag.FlagSet, name string) {
		fs.Int(name, config.DefaultMaxDepth, "Deepest hop level scanned")
	})
	bound(pf, "timeout", "analysis.timeout", func(fs *pflag.FlagSet, name string) {
		fs.Duration(name, 0, "Abort an analysis after this long (0 = never)")
	})

	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	root.AddCommand(
		newNodeCmd(c),
		newBestPeersCmd(c),
		newBestNodesCmd(c),
		newChannelsCmd(c),
		newStatusCmd(c),
		newSetFeesCmd(c),
		newStoreCmd(c),
		newIgnoreCmd(c),
		newLookupCmd(c),
	)
	return root
}

// bound defines a flag and records the config key it overrides.
func bound(fs *pflag.FlagSet, name, key string, define func(fs *pflag.FlagSet, name string)) {
	define(fs, name)
	_ = fs.SetAnnotation(name, configKey, []string{key})
}

// load reads the config file and environment, binds the flags of the running
// command and decodes the result.
func (c *cli) load(cmd *cobra.Command) error {
	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		c.v.SetConfigFile(filepath.Join(home, ".lcw.yaml"))
		c.v.SetConfigType("yaml")
	}
	if err := config.BindEnv(c.v); err != nil {
		return err
	}
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.cfgFile != "" || !(errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys, ok := f.Annotations[configKey]; ok && bindErr == nil {
			bindErr = c.v.BindPFlag(keys[0], f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := config.Load(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func (c *cli) engine(cmd *cobra.Command) (*engine.Engine, error) {
	return engine.New(cmd.Context(), engine.WithConfig(c.cfg))
}

// emit writes a report in the selected output format.
func (c *cli) emit(cmd *cobra.Command, v any) error {
	f, err := report.ParseFormat(c.output)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), f, c.verbosity, v)
}

// run opens an engine, runs fn and closes the engine.
func (c *cli) run(cmd *cobra.Command, fn func(e *engine.Engine) error) error {
	e, err := c.engine(cmd)
	if err != nil {
		return err
	}
	return errors.Join(fn(e), e.Close(cmd.Context()))
}

func renderHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("LCW %s", version.Current)))
	fmt.Fprintln(out, cmd.Short)

	fmt.Fprintln(out, titleStyle.Render("USAGE"))
	fmt.Fprintf(out, "  %s\n\n", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(out, titleStyle.Render("COMMANDS"))
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				fmt.Fprintf(out, "  %-12s %s\n", sub.Name(), sub.Short)
			}
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, titleStyle.Render("EXAMPLES"))
		fmt.Fprintln(out, "  lcw node self                      # Score the local node")
		fmt.Fprintln(out, "  lcw bestpeers --amount 5000000     # Rank peers for a new channel")
		fmt.Fprintln(out, "  lcw status -f 'tx_per_day > 1.0'   # Busy channels only")
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		line := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "[]" {
			line += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Fprintln(out, flagStyle.Render(line))
	})
	fmt.Fprintln(out)
}
