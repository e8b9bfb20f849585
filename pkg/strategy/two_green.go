package strategy

import (
	"math"

	"github.com/raykavin/greenscan/pkg/core"
	"github.com/raykavin/greenscan/pkg/indicator"
)

// DefaultWindow is the moving average window used when none is configured
const DefaultWindow = 28

// TwoGreen matches pairs whose last two candles are green and whose last
// close is above the simple moving average of the last Window closes.
type TwoGreen struct {
	Window int
}

// NewTwoGreen creates the detector, falling back to DefaultWindow for a non-positive window
func NewTwoGreen(window int) TwoGreen {
	if window < 1 {
		window = DefaultWindow
	}
	return TwoGreen{Window: window}
}

// WarmupPeriod implements Detector
func (t TwoGreen) WarmupPeriod() int {
	return t.Window + 1
}

// Detect implements Detector
func (t TwoGreen) Detect(pair core.Pair, candles []core.Candle) (core.Signal, bool) {
	if t.Window < 1 || len(candles) < t.WarmupPeriod() {
		return core.Signal{}, false
	}

	last, previous := candles[len(candles)-1], candles[len(candles)-2]
	if !last.IsGreen() || !previous.IsGreen() {
		return core.Signal{}, false
	}

	movingAverage, ok := indicator.LastSMA(core.Closes(candles).Values(), t.Window)
	if !ok || last.Close <= movingAverage {
		return core.Signal{}, false
	}

	stopLoss := math.Min(previous.Low, last.Low)

	return core.Signal{
		Pair:          pair.Symbol,
		Time:          last.Time,
		Price:         last.Close,
		MovingAverage: movingAverage,
		StopLoss:      stopLoss,
		RiskPct:       core.RiskPercent(last.Close, stopLoss),
		Volume:        pair.Volume,
	}, true
}
