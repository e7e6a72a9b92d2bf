package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Fetcher reads quotes and monthly closes from the Yahoo Finance chart API.
type Fetcher struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

func NewFetcher(c *http.Client, baseURL string, logger *zap.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Fetcher{
		baseURL: baseURL,
		client:  c,
		logger:  logger.With(zap.String("caller", "YahooFetcher")),
		now:     time.Now,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *Fetcher) fetchCloses(ctx context.Context, symbol string, params url.Values) ([]entities.PricePoint, error) {
	u, err := url.JoinPath(f.baseURL, "/v8/finance/chart", symbol)
	if err != nil {
		return nil, fmt.Errorf("build chart url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build chart request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	start := time.Now()
	resp, err := f.client.Do(req)
	f.logger.Debug("finish chart request", zap.String("symbol", symbol), zap.Duration("duration", time.Since(start)))
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo responded with %v http code", resp.StatusCode)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	points := make([]entities.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // null bars on holidays
		}
		points = append(points, entities.PricePoint{Date: time.Unix(ts, 0).UTC(), Close: *closes[i]})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return points, nil
}

// Quote derives the current price and daily change from the last two daily closes.
func (f *Fetcher) Quote(ctx context.Context, symbol string) (entities.Quote, error) {
	points, err := f.fetchCloses(ctx, symbol, url.Values{"interval": {"1d"}, "range": {"5d"}})
	if err != nil {
		return entities.Quote{}, err
	}
	if len(points) < 2 {
		return entities.Quote{}, fmt.Errorf("not enough historical data for %s", symbol)
	}

	prev := points[len(points)-2].Close
	current := points[len(points)-1].Close
	change := current - prev
	changePct := 0.0
	if prev != 0 {
		changePct = change / prev * 100
	}

	return entities.Quote{
		Symbol:             symbol,
		CurrentPrice:       current,
		PreviousClose:      prev,
		DailyChange:        change,
		DailyChangePercent: changePct,
	}, nil
}

// LiveQuotes quotes each symbol, logging and skipping the ones that fail.
func (f *Fetcher) LiveQuotes(ctx context.Context, symbols []string) ([]entities.Quote, error) {
	logger := f.logger.With(zap.String("method", "LiveQuotes"))

	quotes := make([]entities.Quote, 0, len(symbols))
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q, err := f.Quote(ctx, sym)
		if err != nil {
			logger.Warn("skip symbol", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		quotes = append(quotes, q)
	}

	return quotes, nil
}

// MonthlySeries returns the monthly closes from the start of the month
// periods-1 months ago up to now, including a live bar of the current month
// when Yahoo reports one.
func (f *Fetcher) MonthlySeries(ctx context.Context, symbol string, periods int) (entities.PriceSeries, error) {
	if periods < 1 {
		periods = 1
	}

	now := f.now()
	from := entities.MonthlyWindowStart(now, periods)
	params := url.Values{
		"interval": {"1mo"},
		"period1":  {strconv.FormatInt(from.Unix(), 10)},
		"period2":  {strconv.FormatInt(now.Unix(), 10)},
	}

	points, err := f.fetchCloses(ctx, symbol, params)
	if err != nil {
		return entities.PriceSeries{}, fmt.Errorf("monthly series of %s: %w", symbol, err)
	}

	return entities.NewPriceSeries(symbol, points).Since(from), nil
}
