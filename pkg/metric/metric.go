package metric

import (
	"sort"

	"github.com/raykavin/greenscan/pkg/core"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a set of signals as a whole
type Summary struct {
	Count       int
	MeanRisk    float64 // Mean distance to the stop loss, in percent
	MedianRisk  float64
	TotalVolume float64
}

// Summarize computes the statistics of a scan result
func Summarize(signals []core.Signal) Summary {
	if len(signals) == 0 {
		return Summary{}
	}

	risks := lo.Map(signals, func(signal core.Signal, _ int) float64 { return signal.RiskPct })
	volumes := lo.Map(signals, func(signal core.Signal, _ int) float64 { return signal.Volume })

	sort.Float64s(risks)

	return Summary{
		Count:       len(signals),
		MeanRisk:    stat.Mean(risks, nil),
		MedianRisk:  stat.Quantile(0.5, stat.Empirical, risks, nil),
		TotalVolume: floats.Sum(volumes),
	}
}
