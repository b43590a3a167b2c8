package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/riskibarqy/club-scraper/internal/config"
	"github.com/riskibarqy/club-scraper/internal/observability"
	"github.com/riskibarqy/club-scraper/internal/platform/logging"
)

var rootCmd = &cobra.Command{
	Use:           "clubsync",
	Short:         "clubsync scrapes Strava clubs into normalized sheets and reports weekly results.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return env.setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		env.shutdown()
	},
}

// cliRuntime is the process-wide state shared by the subcommands.
type cliRuntime struct {
	cfg    config.Config
	logger *logging.Logger

	stopTracing   func(context.Context) error
	stopProfiling func() error
}

var env cliRuntime

func (r *cliRuntime) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	r.cfg = cfg

	// stdout carries command output, logs go to stderr.
	r.logger = logging.New(cfg.LogLevel, zapcore.Lock(os.Stderr)).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(r.logger)

	r.stopTracing, err = observability.InitUptrace(cfg, r.logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	r.stopProfiling, err = observability.InitPyroscope(cfg, r.logger)
	if err != nil {
		r.shutdown()
		return fmt.Errorf("init pyroscope: %w", err)
	}
	return nil
}

func (r *cliRuntime) shutdown() {
	if r.stopProfiling != nil {
		if err := r.stopProfiling(); err != nil {
			r.logger.Warn("stop pyroscope", "error", err)
		}
		r.stopProfiling = nil
	}
	if r.stopTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.stopTracing(ctx); err != nil {
			r.logger.Warn("flush uptrace", "error", err)
		}
		r.stopTracing = nil
	}
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		env.shutdown()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
