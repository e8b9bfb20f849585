package core

import "time"

// Signal is a pair whose last two candles matched the two green candles pattern
type Signal struct {
	Pair          string
	Time          time.Time // open time of the most recent candle
	Price         float64   // close of the most recent candle
	MovingAverage float64
	StopLoss      float64
	RiskPct       float64
	Volume        float64
}

// RiskPercent returns the distance between price and stop loss in percent of the stop loss
func RiskPercent(price, stopLoss float64) float64 {
	if stopLoss <= 0 {
		return 0
	}
	return (price/stopLoss - 1) * 100
}
