package strategy

import "github.com/raykavin/greenscan/pkg/core"

type Detector interface {
	// WarmupPeriod is the minimum number of candles needed before Detect can produce a signal.
	WarmupPeriod() int
	// Detect evaluates the candle history of a pair, oldest first, and reports whether it is a signal.
	// Detect must not keep state between calls.
	Detect(pair core.Pair, candles []core.Candle) (core.Signal, bool)
}
