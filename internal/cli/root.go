// Package cli implements the hr-analytics command line: ad-hoc queries,
// metrics and reports against the configured backend, plus mirror and
// activity registry maintenance.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hr-analytics/internal/analytics"
	"hr-analytics/internal/common/config"
	"hr-analytics/internal/common/logger"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

// RuntimeFactory opens the connections a command needs. The returned func
// releases them.
type RuntimeFactory func(ctx context.Context, cfg *config.Config, log logger.Logger, needOracle bool) (*analytics.Runtime, func(), error)

// App holds the seams commands are built on.
type App struct {
	LoadConfig func(path string) (*config.Config, error)
	NewRuntime RuntimeFactory
	NewLogger  func(verbose bool) logger.Logger
}

func Run() ExitCode {
	app := &App{
		LoadConfig: loadConfig,
		NewRuntime: OpenRuntime,
		NewLogger:  newLogger,
	}
	if err := NewRootCmd(app).Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hr-analytics",
		Short:         "Query recruiting data and generate validated HR reports.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default: configs/config.yaml with APP_ENVIRONMENT overlay)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "set debug logging level")
	rootCmd.PersistentFlags().Bool("json", false, "print JSON instead of tables")

	rootCmd.AddCommand(
		app.queryCmd(),
		app.chartCmd(),
		app.metricCmd(),
		app.metricsCmd(),
		app.reportCmd(),
		app.historyCmd(),
		app.migrateCmd(),
		activitiesCmd(),
	)
	return rootCmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromFile(path)
}

func newLogger(verbose bool) logger.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.NewStructured(level, "console", "stderr")
}

// session is what a data command works with.
type session struct {
	cfg     *config.Config
	log     logger.Logger
	runtime *analytics.Runtime
	close   func()
	json    bool
}

func (a *App) open(cmd *cobra.Command, needOracle bool) (*session, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	asJSON, err := flags.GetBool("json")
	if err != nil {
		return nil, fmt.Errorf("failed to get json flag: %w", err)
	}

	cfg, err := a.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	log := a.NewLogger(verbose)

	rt, closeFn, err := a.NewRuntime(cmd.Context(), cfg, log, needOracle)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: log, runtime: rt, close: closeFn, json: asJSON}, nil
}
