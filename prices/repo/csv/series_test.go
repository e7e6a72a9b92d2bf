package csv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestSeriesRepo_MonthlySeries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL.csv", "date,close\n2024-03-01,171.48\n2024-01-01,184.40\n2024-02-01,180.75\n")

	repo := SeriesRepo{Dir: dir, Now: func() time.Time { return time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC) }}

	series, err := repo.MonthlySeries(context.Background(), "aapl", 0)
	require.NoError(t, err)
	assert.Equal(t, "aapl", series.Symbol)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), series.Data[0].Date)

	series, err = repo.MonthlySeries(context.Background(), "AAPL", 2)
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, 180.75, series.Data[0].Close)
	assert.Equal(t, 171.48, series.Data[1].Close)
}

func TestSeriesRepo_MonthlySeriesKeepsLiveBar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL.csv", "date,close\n2023-12-01,1\n2024-01-01,10\n2024-02-01,20\n2024-03-01,30\n2024-03-15,31\n")

	repo := SeriesRepo{Dir: dir, Now: func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }}

	series, err := repo.MonthlySeries(context.Background(), "AAPL", 3)
	require.NoError(t, err)
	require.Equal(t, 4, series.Len())
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), series.Data[0].Date)
	assert.Equal(t, 31.0, series.Data[3].Close)
}

func TestSeriesRepo_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "BAD.csv", "date,close\n2024-01-01,abc\n")
	writeFile(t, dir, "DATE.csv", "date,close\n01/02/2024,1\n")
	writeFile(t, dir, "EMPTY.csv", "")

	repo := SeriesRepo{Dir: dir}
	ctx := context.Background()

	_, err := repo.MonthlySeries(ctx, "MISSING", 3)
	assert.Error(t, err)

	_, err = repo.MonthlySeries(ctx, "BAD", 3)
	assert.Error(t, err)

	_, err = repo.MonthlySeries(ctx, "DATE", 3)
	assert.Error(t, err)

	series, err := repo.MonthlySeries(ctx, "EMPTY", 3)
	require.NoError(t, err)
	assert.Zero(t, series.Len())
}
