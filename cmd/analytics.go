package cmd

import (
	"github.com/spf13/cobra"

	"github.com/glbter/distributed-systems/portfolio-analytics/config"
	portfolioHttp "github.com/glbter/distributed-systems/portfolio-analytics/http"
	"github.com/glbter/distributed-systems/portfolio-analytics/metrics"
	"github.com/glbter/distributed-systems/portfolio-analytics/worker/rabbit"
)

func analyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Serve portfolio summary, history and positions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(config.ServiceAnalytics)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			m := metrics.New(config.ServiceAnalytics)

			store, repo, err := openPositions(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			engine, err := newEngine(cfg, repo, logger, m)
			if err != nil {
				return err
			}

			var history portfolioHttp.HistoryService = engine
			if cfg.Analytics.AsyncHistory {
				rc, err := dialRabbit(cfg.Rabbit.URL)
				if err != nil {
					return err
				}
				defer rc.Close()

				if err := rabbit.DeclareHistoryQueue(rc.ch); err != nil {
					return err
				}
				replyTo, err := rabbit.DeclareReplyQueue(rc.ch)
				if err != nil {
					return err
				}
				replies, err := rabbit.Consume(rc.ch, replyTo, true)
				if err != nil {
					return err
				}

				client := rabbit.NewHistoryClient(rc.ch, replyTo, logger)
				go client.Listen(replies)
				history = client
				logger.Info("history is computed by remote workers")
			}

			handler := portfolioHttp.AnalyticsHandler{
				Logger:    logger,
				Summaries: engine,
				History:   history,
				Lots:      repo,
			}

			return serve(ctx, logger, cfg.HTTP.Port, portfolioHttp.NewRouter(routerOptions(cfg), logger, m, handler.Routes))
		},
	}
}
