package exchange

import (
	"encoding/csv"
	"io"

	"github.com/raykavin/greenscan/pkg/core"
)

var csvHeader = []string{"time", "open", "close", "low", "high", "volume"}

// WriteCSV writes candles in the layout read back by CSVFeed, values rounded
// to precision decimals
func WriteCSV(w io.Writer, candles []core.Candle, precision int) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, candle := range candles {
		if err := writer.Write(candle.ToSlice(precision)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
