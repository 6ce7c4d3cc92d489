package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mark3labs/sage"
	"github.com/mark3labs/sage/config"
	"github.com/mark3labs/sage/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

// reportRunner is the part of *sage.Controller the commands need.
type reportRunner interface {
	Run(ctx context.Context, topic string) (sage.State, error)
}

// runnerFactory builds a runner from the loaded configuration. reg is nil
// when metrics are not exported.
type runnerFactory func(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (reportRunner, error)

type app struct {
	configFile string
	envFile    string
	logLevel   string

	newRunner runnerFactory
	cfg       *config.Config
	logger    *zap.Logger
}

func newRootCmd(newRunner runnerFactory) *cobra.Command {
	a := &app{newRunner: newRunner}

	root := &cobra.Command{
		Use:   "sage",
		Short: "Generate research reports from simulated analyst interviews",
		Long: "sage builds a panel of analyst personas for a topic, interviews each one\n" +
			"against web search and Wikipedia evidence, and assembles a report.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configFile, "config", "", "YAML config file (default $SAGE_CONFIG)")
	f.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	f.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newReportCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// setup loads configuration and the logger. It is called by commands that
// actually run the workflow, so flags-only paths never need API keys.
func (a *app) setup() error {
	cfg, err := config.Load(config.Options{File: a.configFile, EnvFile: a.envFile})
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
