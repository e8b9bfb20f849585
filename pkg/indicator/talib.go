package indicator

import "github.com/markcheno/go-talib"

// SMA calculates the Simple Moving Average of every full window of input
func SMA(input []float64, period int) []float64 {
	return talib.Sma(input, period)
}

// LastSMA returns the mean of the last period values of input.
// ok is false when input holds fewer than period values.
func LastSMA(input []float64, period int) (value float64, ok bool) {
	if period < 1 || len(input) < period {
		return 0, false
	}

	// Only the trailing window is passed so the mean is a single sum / period
	out := SMA(input[len(input)-period:], period)
	return out[period-1], true
}
