package strategy

import (
	"testing"
	"time"

	"github.com/raykavin/greenscan/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pair = core.Pair{Symbol: "AAAUSDT", BaseAsset: "AAA", QuoteAsset: "USDT", Volume: 1000}

// flatCandles returns n red candles closing at price, starting one day apart
func flatCandles(n int, price float64) []core.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]core.Candle, n)
	for i := range candles {
		candles[i] = core.Candle{
			Pair:     pair.Symbol,
			Time:     start.AddDate(0, 0, i),
			Open:     price + 1,
			Close:    price,
			Low:      price - 2,
			High:     price + 2,
			Complete: true,
		}
	}
	return candles
}

func withLastTwo(candles []core.Candle, previous, last core.Candle) []core.Candle {
	previous.Time = candles[len(candles)-2].Time
	last.Time = candles[len(candles)-1].Time
	candles[len(candles)-2] = previous
	candles[len(candles)-1] = last
	return candles
}

// exampleCandles builds 30 candles whose last two are green and whose
// trailing 28 closes average exactly 95.
func exampleCandles() []core.Candle {
	candles := flatCandles(30, 94)
	candles[0].Close = 500
	candles[1].Close = 500
	candles[27].Close = 95

	return withLastTwo(candles,
		core.Candle{Open: 100, Close: 105, Low: 99, High: 106},
		core.Candle{Open: 104, Close: 110, Low: 101, High: 111},
	)
}

func TestTwoGreen_Example(t *testing.T) {
	candles := exampleCandles()

	signal, ok := NewTwoGreen(28).Detect(pair, candles)
	require.True(t, ok)

	assert.Equal(t, "AAAUSDT", signal.Pair)
	assert.Equal(t, 110.0, signal.Price)
	assert.Equal(t, 95.0, signal.MovingAverage)
	assert.Equal(t, 99.0, signal.StopLoss)
	assert.Equal(t, 1000.0, signal.Volume)
	assert.Equal(t, candles[29].Time, signal.Time)
	assert.InDelta(t, (110.0/99.0-1)*100, signal.RiskPct, 1e-9)
}

func TestTwoGreen_BelowMovingAverage(t *testing.T) {
	candles := exampleCandles()
	candles[29].Open = 90
	candles[29].Close = 94

	_, ok := NewTwoGreen(28).Detect(pair, candles)
	assert.False(t, ok)
}

func TestTwoGreen_CloseEqualToMovingAverage(t *testing.T) {
	// window 3 over closes 10, 10, 10 gives an average equal to the last close
	candles := withLastTwo(flatCandles(5, 10),
		core.Candle{Open: 9, Close: 10, Low: 8},
		core.Candle{Open: 9, Close: 10, Low: 7},
	)

	_, ok := NewTwoGreen(3).Detect(pair, candles)
	assert.False(t, ok)

	candles[4].Close = 10.5
	signal, ok := NewTwoGreen(3).Detect(pair, candles)
	require.True(t, ok)
	assert.Equal(t, 7.0, signal.StopLoss)
}

func TestTwoGreen_GreenCandleBoundary(t *testing.T) {
	tests := []struct {
		name     string
		previous core.Candle
		last     core.Candle
		expected bool
	}{
		{
			name:     "both green",
			previous: core.Candle{Open: 100, Close: 101, Low: 99},
			last:     core.Candle{Open: 101, Close: 120, Low: 100},
			expected: true,
		},
		{
			name:     "previous doji",
			previous: core.Candle{Open: 100, Close: 100, Low: 99},
			last:     core.Candle{Open: 101, Close: 120, Low: 100},
			expected: false,
		},
		{
			name:     "last doji",
			previous: core.Candle{Open: 100, Close: 101, Low: 99},
			last:     core.Candle{Open: 120, Close: 120, Low: 100},
			expected: false,
		},
		{
			name:     "previous red",
			previous: core.Candle{Open: 102, Close: 101, Low: 99},
			last:     core.Candle{Open: 101, Close: 120, Low: 100},
			expected: false,
		},
		{
			name:     "last red",
			previous: core.Candle{Open: 100, Close: 101, Low: 99},
			last:     core.Candle{Open: 121, Close: 120, Low: 100},
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			candles := withLastTwo(flatCandles(10, 50), tc.previous, tc.last)
			_, ok := NewTwoGreen(5).Detect(pair, candles)
			assert.Equal(t, tc.expected, ok)
		})
	}
}

func TestTwoGreen_StopLossIsLowestLow(t *testing.T) {
	lows := [][2]float64{{90, 95}, {95, 90}, {80, 80}, {0.0001, 0.00009}}

	for _, l := range lows {
		candles := withLastTwo(flatCandles(10, 50),
			core.Candle{Open: 100, Close: 101, Low: l[0]},
			core.Candle{Open: 101, Close: 120, Low: l[1]},
		)

		signal, ok := NewTwoGreen(5).Detect(pair, candles)
		require.True(t, ok)
		assert.Equal(t, min(l[0], l[1]), signal.StopLoss)
	}
}

func TestTwoGreen_InsufficientHistory(t *testing.T) {
	for window := 1; window <= 30; window++ {
		detector := NewTwoGreen(window)
		for n := 0; n < window+1; n++ {
			candles := flatCandles(n, 10)
			if n >= 2 {
				candles = withLastTwo(candles,
					core.Candle{Open: 1, Close: 50, Low: 1},
					core.Candle{Open: 2, Close: 60, Low: 1},
				)
			}

			_, ok := detector.Detect(pair, candles)
			assert.False(t, ok, "window %d with %d candles", window, n)
		}
	}
}

func TestTwoGreen_MinimumHistory(t *testing.T) {
	candles := withLastTwo(flatCandles(4, 10),
		core.Candle{Open: 1, Close: 50, Low: 1},
		core.Candle{Open: 2, Close: 60, Low: 1},
	)

	signal, ok := NewTwoGreen(3).Detect(pair, candles)
	require.True(t, ok)
	assert.Equal(t, 40.0, signal.MovingAverage)
}

func TestTwoGreen_Idempotent(t *testing.T) {
	candles := exampleCandles()
	detector := NewTwoGreen(28)

	first, firstOK := detector.Detect(pair, candles)
	second, secondOK := detector.Detect(pair, candles)

	assert.Equal(t, firstOK, secondOK)
	assert.Equal(t, first, second)
	assert.Equal(t, exampleCandles(), candles)
}

func TestNewTwoGreen_DefaultWindow(t *testing.T) {
	assert.Equal(t, DefaultWindow, NewTwoGreen(0).Window)
	assert.Equal(t, DefaultWindow+1, NewTwoGreen(-3).WarmupPeriod())
}
