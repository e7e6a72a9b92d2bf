package cmd

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/glbter/distributed-systems/portfolio-analytics/config"
	"github.com/glbter/distributed-systems/portfolio-analytics/market/yahoo"
	"github.com/glbter/distributed-systems/portfolio-analytics/metrics"
	"github.com/glbter/distributed-systems/portfolio-analytics/poller"
	"github.com/glbter/distributed-systems/portfolio-analytics/worker/rabbit"
)

func pricePollerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price-poller",
		Short: "Publish quotes of open positions on a schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(config.ServicePricePoller)
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

			rc, err := dialRabbit(cfg.Rabbit.URL)
			if err != nil {
				return err
			}
			defer rc.Close()

			if err := rabbit.DeclarePricesExchange(rc.ch, cfg.Poller.Exchange); err != nil {
				return err
			}

			m := metrics.New(config.ServicePricePoller)
			serveMetrics(ctx, cfg, logger, m)

			client := &http.Client{Timeout: cfg.Upstream.Timeout}
			p := poller.New(repo, yahoo.NewFetcher(client, cfg.Upstream.YahooBaseURL, logger), rc.ch,
				cfg.Poller.Exchange, m, logger)

			if err := p.Start(ctx, cfg.Poller.Schedule); err != nil {
				return err
			}
			<-ctx.Done()
			p.Stop()

			return nil
		},
	}
}
