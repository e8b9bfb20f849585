package core

import (
	"fmt"
	"strconv"
	"time"
)

// Candle represents a trading candle with OHLCV data
type Candle struct {
	Pair     string
	Time     time.Time
	Open     float64
	Close    float64
	Low      float64
	High     float64
	Volume   float64
	Complete bool
}

// IsGreen reports whether the candle closed strictly above its open
func (c Candle) IsGreen() bool { return c.Close > c.Open }

// ToSlice converts a candle to a string slice with the specified decimal precision
func (c Candle) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}

// Closes returns the close prices of the candles as a series, oldest first
func Closes(candles []Candle) Series[float64] {
	closes := make(Series[float64], len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
