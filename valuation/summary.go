package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

var hundred = decimal.NewFromInt(100)

// ComputeSummary aggregates invested capital and realized plus unrealized P/L.
//
// A nil prices map means the quote fetch failed: open lots then add nothing to
// the P/L. A non-nil map missing a ticker is handled by policy.
func ComputeSummary(lots []entities.Lot, prices map[string]float64, policy MissingQuote) entities.Summary {
	invested := decimal.Zero
	closedPL := decimal.Zero
	openPL := decimal.Zero

	var openCount, closedCount int
	for _, l := range lots {
		qty := decimal.NewFromFloat(l.Quantity)
		buy := decimal.NewFromFloat(l.BuyPrice)
		invested = invested.Add(qty.Mul(buy))

		if l.Closed() {
			closedCount++
			closedPL = closedPL.Add(decimal.NewFromFloat(l.Sale.Price).Sub(buy).Mul(qty))
			continue
		}

		openCount++
		if prices == nil {
			continue
		}
		price, ok := prices[l.Ticker]
		if !ok && policy == MissingQuoteSkip {
			continue
		}
		openPL = openPL.Add(decimal.NewFromFloat(price).Sub(buy).Mul(qty))
	}

	totalPL := closedPL.Add(openPL)
	percent := decimal.Zero
	if invested.IsPositive() {
		percent = totalPL.Div(invested).Mul(hundred)
	}

	return entities.Summary{
		Invested:       round2(invested),
		TotalPL:        round2(totalPL),
		TotalPLPercent: round2(percent),
		OpenCount:      openCount,
		ClosedCount:    closedCount,
	}
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
