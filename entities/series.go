package entities

import (
	"sort"
	"time"
)

type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is a sparse, date-ordered sequence of closing prices of one symbol.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Data   []PricePoint `json:"data"`
}

// NewPriceSeries sorts points by date. Points sharing a date keep the last one.
func NewPriceSeries(symbol string, points []PricePoint) PriceSeries {
	data := make([]PricePoint, len(points))
	copy(data, points)
	sort.SliceStable(data, func(i, j int) bool { return data[i].Date.Before(data[j].Date) })

	dedup := data[:0]
	for _, p := range data {
		if n := len(dedup); n > 0 && dedup[n-1].Date.Equal(p.Date) {
			dedup[n-1] = p
			continue
		}
		dedup = append(dedup, p)
	}

	return PriceSeries{Symbol: symbol, Data: dedup}
}

func (s PriceSeries) Len() int { return len(s.Data) }

// At returns the close of the most recent sample dated on or before t.
// It never looks forward and never interpolates.
func (s PriceSeries) At(t time.Time) (float64, bool) {
	i := sort.Search(len(s.Data), func(i int) bool { return s.Data[i].Date.After(t) })
	if i == 0 {
		return 0, false
	}

	return s.Data[i-1].Close, true
}

// MonthlyWindowStart is the first day, in UTC, of the month periods-1 months
// before now. A monthly series of periods samples ending with now's month
// starts there.
func MonthlyWindowStart(now time.Time, periods int) time.Time {
	if periods < 1 {
		periods = 1
	}
	return time.Date(now.Year(), now.Month()-time.Month(periods-1), 1, 0, 0, 0, 0, time.UTC)
}

// Since returns the samples dated on or after t. A partial bar of the
// current month is kept next to the month's own sample.
func (s PriceSeries) Since(t time.Time) PriceSeries {
	i := sort.Search(len(s.Data), func(i int) bool { return !s.Data[i].Date.Before(t) })
	return PriceSeries{Symbol: s.Symbol, Data: s.Data[i:]}
}
