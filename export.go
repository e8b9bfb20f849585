package greenscan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raykavin/greenscan/pkg/exchange"
	"github.com/raykavin/greenscan/pkg/plot"
	"github.com/raykavin/greenscan/pkg/scanner"
)

const exportPrecision = 8

// ExportPair fetches the history of pair and writes <PAIR>.html, a chart with
// the moving average and the entry signal, and <PAIR>.csv, readable by the
// csv feed, into dir
func (g *Greenscan) ExportPair(ctx context.Context, pair, dir string, params scanner.Params) (chartPath, csvPath string, err error) {
	candles, err := g.scanner.Candles(ctx, pair, params)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch %s: %w", pair, err)
	}

	window := params.Window
	if window == 0 {
		window = g.scanner.Defaults().Window
	}

	chart, err := plot.NewChart(g.logger, plot.WithWindow(window))
	if err != nil {
		return "", "", err
	}

	chartPath, err = chart.WriteFile(dir, pair, candles)
	if err != nil {
		return "", "", err
	}

	csvPath = filepath.Join(dir, strings.ToUpper(pair)+".csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	if err := exchange.WriteCSV(file, candles, exportPrecision); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", csvPath, err)
	}

	g.logger.WithFields(map[string]any{
		"pair":    strings.ToUpper(pair),
		"candles": len(candles),
		"chart":   chartPath,
		"csv":     csvPath,
	}).Info("pair exported")

	return chartPath, csvPath, file.Close()
}
