package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/config"
	marketHttp "github.com/glbter/distributed-systems/portfolio-analytics/market/client/http"
	"github.com/glbter/distributed-systems/portfolio-analytics/market/yahoo"
	"github.com/glbter/distributed-systems/portfolio-analytics/metrics"
	"github.com/glbter/distributed-systems/portfolio-analytics/positions/repo/db"
	"github.com/glbter/distributed-systems/portfolio-analytics/prices/repo/csv"
	"github.com/glbter/distributed-systems/portfolio-analytics/valuation"
)

func openPositions(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*db.DB, db.PositionRepo, error) {
	store, err := db.Open(cfg.Database.URL, db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, db.PositionRepo{}, fmt.Errorf("open position store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.PingContext(pingCtx); err != nil {
		logger.Warn("position store is not reachable yet", zap.Error(err))
	}

	return store, db.NewPositionRepo(store, logger), nil
}

func historySource(cfg *config.Config, client *http.Client, logger *zap.Logger) valuation.HistorySource {
	if cfg.History.Source == "csv" {
		return csv.SeriesRepo{Dir: cfg.History.CSVDir}
	}
	return yahoo.NewFetcher(client, cfg.Upstream.YahooBaseURL, logger)
}

// newEngine wires the valuation engine used by the analytics service and
// the history workers.
func newEngine(cfg *config.Config, store valuation.PositionStore, logger *zap.Logger, m *metrics.Metrics) (*valuation.Engine, error) {
	policy, err := valuation.ParseMissingQuote(cfg.Valuation.MissingQuote)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.Upstream.Timeout}
	quotes := marketHttp.NewClient(client, cfg.MarketDataURL, logger)

	return valuation.NewEngine(store, quotes, historySource(cfg, client, logger), logger, m, valuation.Options{
		MissingQuote:     policy,
		FetchConcurrency: cfg.Valuation.FetchConcurrency,
	}), nil
}

type rabbitConn struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func dialRabbit(url string) (*rabbitConn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open a channel: %w", err)
	}

	return &rabbitConn{conn: conn, ch: ch}, nil
}

func (r *rabbitConn) Close() {
	r.ch.Close()
	r.conn.Close()
}
