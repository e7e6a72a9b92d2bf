package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

func TestMonthEnds(t *testing.T) {
	now := time.Date(2026, time.October, 15, 13, 45, 0, 0, time.UTC)

	dates := MonthEnds(now, 12)

	require.Len(t, dates, 12)
	assert.Equal(t, time.Date(2025, time.October, 31, 13, 45, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(2026, time.February, 28, 13, 45, 0, 0, time.UTC), dates[4])
	assert.Equal(t, time.Date(2026, time.September, 30, 13, 45, 0, 0, time.UTC), dates[11])
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i].After(dates[i-1]), "dates must be strictly ascending")
	}
}

func TestMonthEnds_NowIsMonthEnd(t *testing.T) {
	now := time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC)

	dates := MonthEnds(now, 2)

	assert.Equal(t, []time.Time{
		time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC),
		now,
	}, dates)
}

func TestMonthEnds_CrossesYears(t *testing.T) {
	now := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

	dates := MonthEnds(now, 14)

	require.Len(t, dates, 14)
	assert.Equal(t, time.Date(2022, time.November, 30, 0, 0, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), dates[13])
	assert.Nil(t, MonthEnds(now, 0))
}

func TestComputeHistory_ClosedLotLocksSaleValue(t *testing.T) {
	lots := []entities.Lot{closedLot("SYM", 5, 50, date(2024, time.January, 1), 70, date(2024, time.March, 1))}
	series := map[string]entities.PriceSeries{
		"SYM": entities.NewPriceSeries("SYM", []entities.PricePoint{
			{Date: date(2024, time.January, 1), Close: 52},
			{Date: date(2024, time.February, 1), Close: 61},
			{Date: date(2024, time.March, 1), Close: 90},
		}),
	}
	dates := MonthEnds(time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC), 3)

	got := ComputeHistory(lots, dates, series)

	assert.Equal(t, []entities.HistoryItem{
		{Date: "2024-01-31", Value: 260},
		{Date: "2024-02-29", Value: 305},
		{Date: "2024-03-31", Value: 350},
	}, got)
}

func TestComputeHistory_LotBoughtAfterEveryDate(t *testing.T) {
	lots := []entities.Lot{openLot("SYM", 5, 50, date(2030, time.January, 1))}
	series := map[string]entities.PriceSeries{
		"SYM": entities.NewPriceSeries("SYM", []entities.PricePoint{{Date: date(2024, time.January, 1), Close: 10}}),
	}
	dates := MonthEnds(date(2024, time.June, 30), 6)

	for _, item := range ComputeHistory(lots, dates, series) {
		assert.Zero(t, item.Value, item.Date)
	}
}

func TestComputeHistory_MissingSampleOnlyZeroesThatDate(t *testing.T) {
	lots := []entities.Lot{openLot("SYM", 2, 10, date(2023, time.December, 1))}
	series := map[string]entities.PriceSeries{
		"SYM": entities.NewPriceSeries("SYM", []entities.PricePoint{
			{Date: date(2024, time.February, 1), Close: 11.115},
		}),
	}
	dates := MonthEnds(date(2024, time.March, 31), 3)

	got := ComputeHistory(lots, dates, series)

	assert.Equal(t, []entities.HistoryItem{
		{Date: "2024-01-31", Value: 0},
		{Date: "2024-02-29", Value: 22.23},
		{Date: "2024-03-31", Value: 22.23},
	}, got)
}

func TestComputeHistory_UnknownTickerAndEmptyLots(t *testing.T) {
	dates := MonthEnds(date(2024, time.March, 31), 2)

	assert.Equal(t, []entities.HistoryItem{}, ComputeHistory(nil, dates, nil))

	got := ComputeHistory([]entities.Lot{openLot("NOPE", 1, 1, date(2020, 1, 1))}, dates, map[string]entities.PriceSeries{})
	assert.Equal(t, []entities.HistoryItem{{Date: "2024-02-29", Value: 0}, {Date: "2024-03-31", Value: 0}}, got)
}

func TestComputeHistory_SumsAcrossLots(t *testing.T) {
	lots := []entities.Lot{
		openLot("A", 1, 10, date(2024, time.January, 1)),
		openLot("A", 2, 12, date(2024, time.February, 15)),
		closedLot("B", 3, 5, date(2024, time.January, 1), 6, date(2024, time.February, 10)),
	}
	series := map[string]entities.PriceSeries{
		"A": entities.NewPriceSeries("A", []entities.PricePoint{
			{Date: date(2024, time.January, 1), Close: 10},
			{Date: date(2024, time.February, 1), Close: 13},
		}),
		"B": entities.NewPriceSeries("B", []entities.PricePoint{
			{Date: date(2024, time.January, 1), Close: 4},
		}),
	}
	dates := MonthEnds(date(2024, time.February, 29), 2)

	got := ComputeHistory(lots, dates, series)

	// Jan: A 1*10 + B 3*4; Feb: A 3*13 + B sold 3*6
	assert.Equal(t, []entities.HistoryItem{
		{Date: "2024-01-31", Value: 22},
		{Date: "2024-02-29", Value: 57},
	}, got)
}
