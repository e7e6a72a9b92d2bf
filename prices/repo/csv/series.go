package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

// SeriesRepo reads monthly closes from <Dir>/<SYMBOL>.csv files with a
// "date,close" header and YYYY-MM-DD dates. Now defaults to time.Now.
type SeriesRepo struct {
	Dir string
	Now func() time.Time
}

// MonthlySeries returns the samples from the start of the month periods-1
// months before now. periods < 1 returns the whole file.
func (r SeriesRepo) MonthlySeries(_ context.Context, symbol string, periods int) (entities.PriceSeries, error) {
	content, err := readCsvFile(filepath.Join(r.Dir, strings.ToUpper(symbol)+".csv"))
	if err != nil {
		return entities.PriceSeries{}, fmt.Errorf("read %s prices: %w", symbol, err)
	}
	if len(content) == 0 {
		return entities.PriceSeries{Symbol: symbol}, nil
	}

	points := make([]entities.PricePoint, 0, len(content)-1)
	for i, line := range content[1:] {
		if len(line) < 2 {
			return entities.PriceSeries{}, fmt.Errorf("%s line %d: expected date and close", symbol, i+2)
		}

		date, err := time.Parse(entities.DateLayout, strings.TrimSpace(line[0]))
		if err != nil {
			return entities.PriceSeries{}, fmt.Errorf("%s line %d: parse date: %w", symbol, i+2, err)
		}
		cl, err := strconv.ParseFloat(strings.TrimSpace(line[1]), 64)
		if err != nil {
			return entities.PriceSeries{}, fmt.Errorf("%s line %d: parse close: %w", symbol, i+2, err)
		}

		points = append(points, entities.PricePoint{Date: date, Close: cl})
	}

	series := entities.NewPriceSeries(symbol, points)
	if periods < 1 {
		return series, nil
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	return series.Since(entities.MonthlyWindowStart(now(), periods)), nil
}

func readCsvFile(filePath string) ([][]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, err
	}

	return records, nil
}
