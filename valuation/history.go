package valuation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
	"github.com/glbter/distributed-systems/portfolio-analytics/metrics"
)

// MonthEnds returns the months most recent month-ends on or before now,
// ascending, at now's clock time and location.
func MonthEnds(now time.Time, months int) []time.Time {
	if months < 1 {
		return nil
	}

	h, m, s := now.Clock()
	monthEnd := func(year int, month time.Month) time.Time {
		// day 0 of the following month is the last day of month
		return time.Date(year, month+1, 0, h, m, s, now.Nanosecond(), now.Location())
	}

	year, month := now.Year(), now.Month()
	if monthEnd(year, month).After(now) {
		month--
	}

	dates := make([]time.Time, months)
	for i := months - 1; i >= 0; i-- {
		dates[i] = monthEnd(year, month)
		month--
	}

	return dates
}

// ComputeHistory values every lot at each date.
//
// Lots bought after a date add nothing. Lots sold on or before a date add their
// sale proceeds. Other lots are marked at the latest close on or before the
// date, or add nothing when the ticker has no such close.
func ComputeHistory(lots []entities.Lot, dates []time.Time, series map[string]entities.PriceSeries) []entities.HistoryItem {
	if len(lots) == 0 {
		return []entities.HistoryItem{}
	}

	items := make([]entities.HistoryItem, 0, len(dates))
	for _, dt := range dates {
		total := decimal.Zero
		for _, l := range lots {
			if l.BuyDate.After(dt) {
				continue
			}

			qty := decimal.NewFromFloat(l.Quantity)
			if l.SoldBy(dt) {
				total = total.Add(decimal.NewFromFloat(l.Sale.Price).Mul(qty))
				continue
			}

			price, ok := series[l.Ticker].At(dt)
			if !ok {
				continue
			}
			total = total.Add(decimal.NewFromFloat(price).Mul(qty))
		}

		items = append(items, entities.HistoryItem{
			Date:  entities.FormatDate(dt),
			Value: round2(total),
		})
	}

	return items
}

// fetchSeries loads every ticker's monthly series concurrently. A ticker whose
// fetch fails gets an empty series.
func (e *Engine) fetchSeries(ctx context.Context, tickers []string, periods int) map[string]entities.PriceSeries {
	logger := e.logger.With(zap.String("method", "fetchSeries"))

	fetched := make([]entities.PriceSeries, len(tickers))

	var g errgroup.Group
	g.SetLimit(e.opts.FetchConcurrency)
	for i, sym := range tickers {
		g.Go(func() error {
			s, err := e.history.MonthlySeries(ctx, sym, periods)
			if err != nil {
				logger.Warn("history fetch failed, symbol valued at zero",
					zap.String("symbol", sym), zap.Error(err))
				e.metrics.Degraded(metrics.SourceHistory)
				s = entities.PriceSeries{Symbol: sym}
			}
			fetched[i] = s
			return nil
		})
	}
	_ = g.Wait()

	series := make(map[string]entities.PriceSeries, len(tickers))
	for i, sym := range tickers {
		series[sym] = fetched[i]
	}

	return series
}
