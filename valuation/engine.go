package valuation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
	"github.com/glbter/distributed-systems/portfolio-analytics/metrics"
)

type PositionStore interface {
	LotsForUser(ctx context.Context, userID int64) ([]entities.Lot, error)
}

type QuoteSource interface {
	Quotes(ctx context.Context, symbols []string) (map[string]float64, error)
}

type HistorySource interface {
	MonthlySeries(ctx context.Context, symbol string, periods int) (entities.PriceSeries, error)
}

// MissingQuote decides how an open lot without a returned quote is valued.
type MissingQuote string

const (
	// MissingQuoteZero reads the absent price as 0.
	MissingQuoteZero MissingQuote = "zero"
	// MissingQuoteSkip leaves the lot out of the open P/L.
	MissingQuoteSkip MissingQuote = "skip"
)

func ParseMissingQuote(s string) (MissingQuote, error) {
	switch MissingQuote(s) {
	case "", MissingQuoteZero:
		return MissingQuoteZero, nil
	case MissingQuoteSkip:
		return MissingQuoteSkip, nil
	default:
		return "", fmt.Errorf("unknown missing quote policy %q", s)
	}
}

type Options struct {
	MissingQuote     MissingQuote
	FetchConcurrency int
	Now              func() time.Time
}

type Engine struct {
	store   PositionStore
	quotes  QuoteSource
	history HistorySource
	logger  *zap.Logger
	metrics *metrics.Metrics
	opts    Options
}

func NewEngine(store PositionStore, quotes QuoteSource, history HistorySource, logger *zap.Logger, m *metrics.Metrics, opts Options) *Engine {
	if opts.MissingQuote == "" {
		opts.MissingQuote = MissingQuoteZero
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		store:   store,
		quotes:  quotes,
		history: history,
		logger:  logger.With(zap.String("caller", "ValuationEngine")),
		metrics: m,
		opts:    opts,
	}
}

// Summary values every lot of the user. A failing store fails the call; a
// failing quote source only zeroes the open P/L.
func (e *Engine) Summary(ctx context.Context, userID int64) (entities.Summary, error) {
	logger := e.logger.With(zap.String("method", "Summary"), zap.Int64("userId", userID))

	lots, err := e.store.LotsForUser(ctx, userID)
	if err != nil {
		return entities.Summary{}, fmt.Errorf("get lots: %w", err)
	}

	open, _ := entities.PartitionLots(lots)
	if len(open) == 0 {
		return ComputeSummary(lots, nil, e.opts.MissingQuote), nil
	}

	tickers := entities.Tickers(open)
	prices, err := e.quotes.Quotes(ctx, tickers)
	if err != nil {
		logger.Warn("quote fetch failed, open positions valued at zero P/L",
			zap.Strings("tickers", tickers), zap.Error(err))
		e.metrics.Degraded(metrics.SourceQuotes)
		prices = nil
	} else if prices == nil {
		prices = map[string]float64{}
	}

	return ComputeSummary(lots, prices, e.opts.MissingQuote), nil
}

// History rebuilds the portfolio value at each of the trailing months month-ends.
func (e *Engine) History(ctx context.Context, userID int64, months int) ([]entities.HistoryItem, error) {
	if months < 1 {
		return nil, fmt.Errorf("months must be at least 1, got %d", months)
	}

	lots, err := e.store.LotsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get lots: %w", err)
	}

	tickers := entities.Tickers(lots)
	if len(tickers) == 0 {
		return []entities.HistoryItem{}, nil
	}

	series := e.fetchSeries(ctx, tickers, months+1)

	return ComputeHistory(lots, MonthEnds(e.opts.Now(), months), series), nil
}
