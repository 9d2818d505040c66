package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/leengari/mini-optimizer/databases"
	"github.com/leengari/mini-optimizer/internal/catalog"
	"github.com/leengari/mini-optimizer/internal/config"
	"github.com/leengari/mini-optimizer/internal/engine"
	"github.com/leengari/mini-optimizer/internal/logging"
	"github.com/leengari/mini-optimizer/internal/planner"
	"github.com/leengari/mini-optimizer/internal/storage"
)

// app is the state shared by every subcommand once the root command has
// loaded configuration.
type app struct {
	v        *viper.Viper
	cfgPath  string
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func()
	eng      *engine.Engine
	registry *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), closeLog: func() {}}

	root := &cobra.Command{
		Use:           "qopt",
		Short:         "Heuristic query optimizer: explains how a statement is rewritten stage by stage",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.closeLog()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "config file (yaml, json or toml)")
	flags.String("catalog", "", "database directory; empty uses the embedded sample database")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.Bool("rearrange", true, "run the rearrange-leaves stage")
	_ = a.v.BindPFlag("catalog.dir", flags.Lookup("catalog"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("optimizer.rearrange_leaves", flags.Lookup("rearrange"))

	root.AddCommand(
		newExplainCmd(a),
		newReplCmd(a),
		newServeCmd(a),
		newBatchCmd(a),
		newTablesCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.LoadWith(a.v, a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, a.closeLog = logging.SetupLogger(cfg.Log)
	slog.SetDefault(a.logger)

	cat, err := a.loadCatalog()
	if err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	a.eng = engine.New(cat, planner.WithRearrangeLeaves(cfg.Optimizer.RearrangeLeaves))
	a.eng.SetLogger(a.logger)
	a.eng.AddObserver(engine.NewLoggingObserver(a.logger))

	a.registry = prometheus.NewRegistry()
	a.eng.AddObserver(engine.NewMetricsObserver(a.registry))
	a.eng.AddObserver(engine.NewTracingObserver(otel.GetTracerProvider()))
	return nil
}

func (a *app) loadCatalog() (*catalog.Catalog, error) {
	if a.cfg.Catalog.Dir == "" {
		return storage.LoadDatabase(databases.Content, databases.SampleDir, a.logger)
	}
	return storage.LoadDatabaseDir(a.cfg.Catalog.Dir, a.logger)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
