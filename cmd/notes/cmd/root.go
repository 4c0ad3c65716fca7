package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/notes/config"
	"github.com/rustyeddy/notes/logger"
	"github.com/rustyeddy/notes/position"
)

// app carries the settings resolved by the root command to its children.
type app struct {
	configPath string
	envFiles   []string
	logLevel   string
	pretty     bool

	cfg *config.Config
	log zerolog.Logger
}

// NewRootCmd builds the notes command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "notes",
		Short: "Payoff and position valuation for structured notes",
		Long: `Notes values structured products: reverse convertibles, capital
protected participation notes and bonus certificates.

It provides tools for:
  - Validating term sheets
  - Computing maturity payoffs and payoff curves
  - Generating coupon and observation schedules
  - Valuing positions with risk status and explanations
  - Serving all of the above over HTTP`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "config file (YAML or JSON)")
	pf.StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.pretty, "pretty", false, "human readable log output")

	root.AddCommand(
		newVersionCmd(),
		newConfigCmd(),
		newTermsCmd(),
		newPayoffCmd(),
		newCurveCmd(),
		newScheduleCmd(),
		newEvaluateCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.LoadFromFile(a.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg, a.envFiles...); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Log.Pretty = a.pretty
	}

	lc := cfg.Logger()
	lc.Out = cmd.ErrOrStderr()
	a.cfg = cfg
	a.log = logger.New(lc)
	logger.SetGlobalLogger(a.log)
	return nil
}

// evaluator builds a position evaluator from the resolved config.
func (a *app) evaluator() *position.Evaluator {
	return position.NewEvaluator(
		position.WithLogger(a.log),
		position.WithWatchThreshold(a.cfg.Engine.WatchThreshold),
		position.WithCache(position.NewSnapshotCache(a.cfg.Engine.CacheSize)),
	)
}
