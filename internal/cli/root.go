// Package cli implements the cardrank command line.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/okian/cardrank/internal/adapters/source"
	service "github.com/okian/cardrank/internal/app"
	"github.com/okian/cardrank/internal/config"
	"github.com/okian/cardrank/internal/domain/model"
	"github.com/okian/cardrank/pkg/logger"
)

// globalFlags are shared by every subcommand. Unset flags fall back to the
// loaded configuration.
type globalFlags struct {
	minSize  int
	period   string
	endpoint string
	timeout  time.Duration
	verbose  bool
}

// runtimeEnv is what subcommands work with once flags and config are merged.
type runtimeEnv struct {
	cfg   *config.Config
	svc   *service.Service
	query func(commander string) model.Query
	log   logger.Logger
}

// NewRootCommand builds the cardrank command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}
	env := &runtimeEnv{}

	root := &cobra.Command{
		Use:   "cardrank",
		Short: "Rank the cards that win alongside a commander",
		Long: `cardrank scores every card seen in tournament decks built around a commander.

Each entry contributes 1 - standing/size to every card in its main deck, so
cards from winning decks in large events rank highest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.setup(cmd, flags)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.IntVar(&flags.minSize, "min-size", 0, "Minimum tournament size (default from config: 60)")
	pf.StringVar(&flags.period, "period", "", "Time period, see 'cardrank periods' (default from config: ONE_YEAR)")
	pf.StringVar(&flags.endpoint, "endpoint", "", "GraphQL endpoint of the tournament data source")
	pf.DurationVar(&flags.timeout, "timeout", 0, "Upstream request timeout (default from config: 30s)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newScoresCommand(env))
	root.AddCommand(newExportCommand(env))
	root.AddCommand(newPeriodsCommand())
	return root
}

// Execute runs the command tree and returns a process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func (e *runtimeEnv) setup(cmd *cobra.Command, flags *globalFlags) error {
	if err := initLogging(flags.verbose); err != nil {
		return err
	}
	e.log = logger.Named("cli")

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}
	period, err := model.ParseTimePeriod(cfg.DefaultTimePeriod)
	if err != nil {
		return err
	}

	client := source.New(
		source.WithEndpoint(cfg.SourceEndpoint),
		source.WithTimeout(cfg.SourceTimeout()),
		source.WithRateLimit(rate.Limit(cfg.SourceRateLimit), cfg.SourceBurst),
		source.WithEntryLimit(cfg.SourceEntryLimit),
		source.WithUserAgent(cfg.SourceUserAgent),
		source.WithLogger(logger.Named("source")),
	)
	e.cfg = cfg
	e.svc = service.New(
		service.WithSource(client),
		service.WithBatchConcurrency(cfg.BatchConcurrency),
		service.WithLogger(e.log),
	)
	e.query = func(commander string) model.Query {
		return model.Query{Commander: commander, MinEventSize: cfg.DefaultMinEventSize, TimePeriod: period}
	}
	e.log.Debug(cmd.Context(), "cli configured",
		logger.String("endpoint", cfg.SourceEndpoint),
		logger.Int("min_event_size", cfg.DefaultMinEventSize),
		logger.String("time_period", period.String()))
	return nil
}

// applyFlags overlays explicitly set flags on cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags *globalFlags) {
	changed := cmd.Flags().Changed
	if changed("min-size") {
		cfg.DefaultMinEventSize = flags.minSize
	}
	if changed("period") {
		cfg.DefaultTimePeriod = flags.period
	}
	if changed("endpoint") {
		cfg.SourceEndpoint = flags.endpoint
	}
	if changed("timeout") {
		cfg.SourceTimeoutMS = int(flags.timeout.Milliseconds())
	}
}

// initLogging writes JSON logs to stderr at warn level, or console logs at
// debug level when verbose.
func initLogging(verbose bool) error {
	opts := []logger.Option{logger.WithOutputPaths("stderr")}
	if verbose {
		opts = append(opts, logger.WithDevelopment())
	}
	if err := logger.Init(opts...); err != nil {
		return err
	}
	if verbose {
		logger.SetLevel(zapcore.DebugLevel)
	} else {
		logger.SetLevel(zapcore.WarnLevel)
	}
	return nil
}
