package cmd

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/glbter/distributed-systems/portfolio-analytics/config"
	portfolioHttp "github.com/glbter/distributed-systems/portfolio-analytics/http"
	"github.com/glbter/distributed-systems/portfolio-analytics/market/yahoo"
	"github.com/glbter/distributed-systems/portfolio-analytics/metrics"
)

func marketDataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "market-data",
		Short: "Serve live quotes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(config.ServiceMarketData)
			if err != nil {
				return err
			}
			defer logger.Sync()

			m := metrics.New(config.ServiceMarketData)
			client := &http.Client{Timeout: cfg.Upstream.Timeout}

			handler := portfolioHttp.MarketHandler{
				Logger: logger,
				Quotes: yahoo.NewFetcher(client, cfg.Upstream.YahooBaseURL, logger),
			}

			return serve(cmd.Context(), logger, cfg.HTTP.Port, portfolioHttp.NewRouter(routerOptions(cfg), logger, m, handler.Routes))
		},
	}
}
