package cmd

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/glbter/distributed-systems/portfolio-analytics/config"
	portfolioHttp "github.com/glbter/distributed-systems/portfolio-analytics/http"
	"github.com/glbter/distributed-systems/portfolio-analytics/metrics"
	"github.com/glbter/distributed-systems/portfolio-analytics/news/newsapi"
)

func newsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "news",
		Short: "Serve recent news for symbols",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(config.ServiceNews)
			if err != nil {
				return err
			}
			defer logger.Sync()

			m := metrics.New(config.ServiceNews)
			client := &http.Client{Timeout: cfg.Upstream.Timeout}

			handler := portfolioHttp.NewsHandler{
				Logger: logger,
				News:   newsapi.NewClient(client, cfg.News.BaseURL, cfg.News.APIKey, logger),
			}

			return serve(cmd.Context(), logger, cfg.HTTP.Port, portfolioHttp.NewRouter(routerOptions(cfg), logger, m, handler.Routes))
		},
	}
}
