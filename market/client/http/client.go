package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

// ErrTransient marks network, timeout and upstream status failures.
var ErrTransient = errors.New("market data unavailable")

// MarketDataClient calls the market-data service quote endpoint.
type MarketDataClient struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewClient(c *http.Client, url string, logger *zap.Logger) MarketDataClient {
	return MarketDataClient{
		url:    url,
		client: c,
		logger: logger.With(zap.String("caller", "MarketDataClient")),
	}
}

func (mdc MarketDataClient) LiveQuotes(ctx context.Context, symbols []string) ([]entities.Quote, error) {
	logger := mdc.logger.With(zap.String("method", "LiveQuotes"))

	path, err := url.JoinPath(mdc.url, "/quotes")
	if err != nil {
		return nil, fmt.Errorf("build request url: %w", err)
	}
	path += "?" + url.Values{"symbols": {strings.Join(symbols, ",")}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := mdc.client.Do(req)
	logger.Debug("finish run", zap.Duration("duration", time.Since(start)))
	if err != nil {
		return nil, fmt.Errorf("%w: send Get request: %w", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: responded with %v http code", ErrTransient, resp.StatusCode)
	}

	var quotes []entities.Quote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrTransient, err)
	}

	return quotes, nil
}

// Quotes returns the current price of every returned symbol.
func (mdc MarketDataClient) Quotes(ctx context.Context, symbols []string) (map[string]float64, error) {
	quotes, err := mdc.LiveQuotes(ctx, symbols)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(quotes))
	for _, q := range quotes {
		prices[q.Symbol] = q.CurrentPrice
	}

	return prices, nil
}
