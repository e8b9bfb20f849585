// Package plot renders the candle history of a pair into a standalone HTML chart
package plot

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/raykavin/greenscan/pkg/core"
	"github.com/raykavin/greenscan/pkg/exchange"
	"github.com/raykavin/greenscan/pkg/indicator"
	"github.com/raykavin/greenscan/pkg/logger"
	"github.com/raykavin/greenscan/pkg/strategy"
	"github.com/samber/lo"
)

// Static assets embedded in the binary
var (
	//go:embed assets
	staticFiles embed.FS
)

var ErrNoCandles = errors.New("no candles to plot")

const movingAverageColor = "#ff9800"

// Chart draws candles, the moving average and the last entry signal of a pair
type Chart struct {
	window    int
	indexHTML *template.Template
	script    template.JS
	log       logger.Logger
}

// Option defines a function type for configuring a Chart instance
type Option func(*Chart)

// WithWindow sets the moving average window, which is also used to detect the entry
func WithWindow(window int) Option {
	return func(chart *Chart) {
		chart.window = window
	}
}

// NewChart creates a new chart instance with the provided options
func NewChart(log logger.Logger, options ...Option) (*Chart, error) {
	chart := &Chart{
		window: strategy.DefaultWindow,
		log:    log,
	}

	for _, option := range options {
		option(chart)
	}

	if chart.window < 1 {
		return nil, fmt.Errorf("invalid moving average window %d", chart.window)
	}

	var err error
	chart.indexHTML, err = template.ParseFS(staticFiles, "assets/chart.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart template: %w", err)
	}

	chartJS, err := staticFiles.ReadFile("assets/chart.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read chart.js: %w", err)
	}
	chart.script = template.JS(chartJS)

	return chart, nil
}

// Render writes the chart page of pair to w
func (c *Chart) Render(w io.Writer, pair string, candles []core.Candle) error {
	data, err := c.data(pair, candles)
	if err != nil {
		return err
	}

	return c.indexHTML.Execute(w, map[string]any{
		"pair":   data.Pair,
		"data":   data,
		"script": c.script,
	})
}

// WriteFile renders the chart of pair into dir/<PAIR>.html and returns the file path
func (c *Chart) WriteFile(dir, pair string, candles []core.Candle) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, strings.ToUpper(pair)+".html")
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := c.Render(file, pair, candles); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", pair, err)
	}

	c.log.WithFields(map[string]any{
		"pair":    pair,
		"candles": len(candles),
		"file":    path,
	}).Debug("chart written")

	return path, file.Close()
}

func (c *Chart) data(pair string, candles []core.Candle) (chartData, error) {
	if len(candles) == 0 {
		return chartData{}, fmt.Errorf("%w: %s", ErrNoCandles, pair)
	}

	pair = strings.ToUpper(pair)
	asset, quote := exchange.SplitAssetQuote(pair)

	data := chartData{
		Pair:      pair,
		Asset:     asset,
		Quote:     quote,
		LastClose: core.Closes(candles).Last(0),
		Candles: lo.Map(candles, func(candle core.Candle, _ int) Candle {
			return Candle{
				Time:   candle.Time,
				Open:   candle.Open,
				Close:  candle.Close,
				High:   candle.High,
				Low:    candle.Low,
				Volume: candle.Volume,
			}
		}),
		Indicators: make([]plotIndicator, 0, 1),
	}

	if movingAverage, ok := c.movingAverage(candles); ok {
		data.Indicators = append(data.Indicators, movingAverage)
	}

	if signal, ok := strategy.NewTwoGreen(c.window).Detect(core.Pair{Symbol: pair}, candles); ok {
		data.Entry = &entry{
			Time:     signal.Time,
			Price:    signal.Price,
			StopLoss: signal.StopLoss,
			RiskPct:  signal.RiskPct,
		}
	}

	return data, nil
}

// movingAverage returns the average line without its warmup values
func (c *Chart) movingAverage(candles []core.Candle) (plotIndicator, bool) {
	closes := core.Closes(candles)
	if closes.Length() < c.window {
		return plotIndicator{}, false
	}

	size := closes.Length() - c.window + 1
	values := core.Series[float64](indicator.SMA(closes.Values(), c.window)).LastValues(size)
	times := lo.Map(candles[closes.Length()-size:], func(candle core.Candle, _ int) time.Time {
		return candle.Time
	})

	name := fmt.Sprintf("MA%d", c.window)
	return plotIndicator{
		Name:    name,
		Overlay: true,
		Metrics: []indicatorMetric{{
			Name:   name,
			Time:   times,
			Values: values,
			Color:  movingAverageColor,
			Style:  "line",
		}},
	}, true
}
