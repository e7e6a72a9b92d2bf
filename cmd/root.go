package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/config"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portfolio-analytics",
		Short:         "Portfolio valuation, market data and news services",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")

	root.AddCommand(
		analyticsCmd(),
		marketDataCmd(),
		newsCmd(),
		historyWorkerCmd(),
		pricePollerCmd(),
	)

	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// setup loads and validates the configuration of service and builds its logger.
func setup(service string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath, service)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(service); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := InitLogger(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger.With(zap.String("service", service)), nil
}
