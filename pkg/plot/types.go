package plot

import (
	"time"
)

// Candle is the JSON form of a candle drawn on the chart
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Volume float64   `json:"volume"`
}

// indicatorMetric is one line of an indicator
type indicatorMetric struct {
	Name   string      `json:"name"`
	Time   []time.Time `json:"time"`
	Values []float64   `json:"value"`
	Color  string      `json:"color"`
	Style  string      `json:"style"`
}

// plotIndicator groups the lines of an indicator
type plotIndicator struct {
	Name    string            `json:"name"`
	Overlay bool              `json:"overlay"`
	Metrics []indicatorMetric `json:"metrics"`
}

// entry marks the candle confirming a two green candles signal
type entry struct {
	Time     time.Time `json:"time"`
	Price    float64   `json:"price"`
	StopLoss float64   `json:"stop_loss"`
	RiskPct  float64   `json:"risk_pct"`
}

// chartData is everything the page script needs to draw a pair
type chartData struct {
	Pair       string          `json:"pair"`
	Asset      string          `json:"asset"`
	Quote      string          `json:"quote"`
	LastClose  float64         `json:"last_close"`
	Candles    []Candle        `json:"candles"`
	Indicators []plotIndicator `json:"indicators"`
	Entry      *entry          `json:"entry"`
}
