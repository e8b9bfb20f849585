package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raykavin/greenscan/pkg/core"
	"github.com/raykavin/greenscan/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// entryCandles ends with two green candles closing above the 3 period average
func entryCandles() []core.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []core.Candle{
		{Open: 11, Close: 10, Low: 9, High: 12},
		{Open: 11, Close: 10, Low: 9, High: 12},
		{Open: 11, Close: 10, Low: 9, High: 12},
		{Open: 10, Close: 11, Low: 9.5, High: 11.5},
		{Open: 11, Close: 12, Low: 10.5, High: 12.5},
	}
	for i := range candles {
		candles[i].Pair = "AAAUSDT"
		candles[i].Time = start.AddDate(0, 0, i)
		candles[i].Volume = 100
	}
	return candles
}

func newTestChart(t *testing.T) *Chart {
	t.Helper()
	chart, err := NewChart(logger.Discard(), WithWindow(3))
	require.NoError(t, err)
	return chart
}

func TestChart_Data(t *testing.T) {
	chart := newTestChart(t)
	candles := entryCandles()

	data, err := chart.data("aaausdt", candles)
	require.NoError(t, err)

	assert.Equal(t, "AAAUSDT", data.Pair)
	assert.Equal(t, "AAA", data.Asset)
	assert.Equal(t, "USDT", data.Quote)
	assert.Equal(t, 12.0, data.LastClose)
	require.Len(t, data.Candles, 5)
	assert.Equal(t, candles[0].Time, data.Candles[0].Time)

	t.Run("moving average without warmup", func(t *testing.T) {
		require.Len(t, data.Indicators, 1)
		metric := data.Indicators[0].Metrics[0]
		assert.Equal(t, "MA3", metric.Name)
		require.Len(t, metric.Values, 3)
		require.Len(t, metric.Time, 3)
		assert.Equal(t, candles[2].Time, metric.Time[0])
		assert.InDelta(t, 10.0, metric.Values[0], 1e-9)
		assert.InDelta(t, 11.0, metric.Values[2], 1e-9)
	})

	t.Run("entry on the last candle", func(t *testing.T) {
		require.NotNil(t, data.Entry)
		assert.Equal(t, candles[4].Time, data.Entry.Time)
		assert.Equal(t, 12.0, data.Entry.Price)
		assert.Equal(t, 9.5, data.Entry.StopLoss)
		assert.InDelta(t, 26.316, data.Entry.RiskPct, 1e-3)
	})
}

func TestChart_DataWithoutEntry(t *testing.T) {
	chart := newTestChart(t)
	candles := entryCandles()
	candles[4].Open, candles[4].Close = 13, 12

	data, err := chart.data("AAAUSDT", candles)
	require.NoError(t, err)
	assert.Nil(t, data.Entry)
	assert.Len(t, data.Indicators, 1)

	data, err = chart.data("AAAUSDT", candles[:2])
	require.NoError(t, err)
	assert.Empty(t, data.Indicators)
	assert.Nil(t, data.Entry)
}

func TestChart_Render(t *testing.T) {
	chart := newTestChart(t)

	var page bytes.Buffer
	require.NoError(t, chart.Render(&page, "AAAUSDT", entryCandles()))

	html := page.String()
	assert.Contains(t, html, "<title>AAAUSDT - greenscan</title>")
	assert.Contains(t, html, "cdn.plot.ly")
	assert.Contains(t, html, `"stop_loss":9.5`)
	assert.Contains(t, html, `"name":"MA3"`)
	assert.Contains(t, html, "Plotly.newPlot")

	err := chart.Render(&page, "AAAUSDT", nil)
	assert.ErrorIs(t, err, ErrNoCandles)
}

func TestChart_WriteFile(t *testing.T) {
	chart := newTestChart(t)
	dir := filepath.Join(t.TempDir(), "charts")

	path, err := chart.WriteFile(dir, "aaausdt", entryCandles())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "AAAUSDT.html"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"pair":"AAAUSDT"`)
}

func TestNewChart_InvalidWindow(t *testing.T) {
	_, err := NewChart(logger.Discard(), WithWindow(0))
	assert.Error(t, err)
}
