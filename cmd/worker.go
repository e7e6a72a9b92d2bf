package cmd

import (
	"github.com/spf13/cobra"

	"github.com/glbter/distributed-systems/portfolio-analytics/config"
	"github.com/glbter/distributed-systems/portfolio-analytics/metrics"
	"github.com/glbter/distributed-systems/portfolio-analytics/worker/rabbit"
)

func historyWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history-worker",
		Short: "Compute history curves requested over RabbitMQ",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(config.ServiceHistoryWorker)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()

			store, repo, err := openPositions(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			m := metrics.New(config.ServiceHistoryWorker)
			serveMetrics(ctx, cfg, logger, m)

			engine, err := newEngine(cfg, repo, logger, m)
			if err != nil {
				return err
			}

			rc, err := dialRabbit(cfg.Rabbit.URL)
			if err != nil {
				return err
			}
			defer rc.Close()

			if err := rabbit.DeclareHistoryQueue(rc.ch); err != nil {
				return err
			}
			msgs, err := rabbit.Consume(rc.ch, rabbit.HISTORY_QUEUE_REQ, false)
			if err != nil {
				return err
			}

			rabbit.NewHistoryServer(rc.ch, engine, cfg.Upstream.Timeout*4, logger).Serve(ctx, msgs)
			return nil
		},
	}
}
