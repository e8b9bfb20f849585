package exchange

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raykavin/greenscan/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	candles := []core.Candle{
		{Pair: "AAAUSDT", Time: time.Unix(1700000000, 0).UTC(), Open: 1, Close: 2.5, Low: 0.5, High: 3, Volume: 10},
		{Pair: "AAAUSDT", Time: time.Unix(1700086400, 0).UTC(), Open: 2.5, Close: 3.25, Low: 2, High: 4, Volume: 20},
	}

	var buffer bytes.Buffer
	require.NoError(t, WriteCSV(&buffer, candles, 2))
	assert.Equal(t, "time,open,close,low,high,volume\n"+
		"1700000000,1.00,2.50,0.50,3.00,10.00\n"+
		"1700086400,2.50,3.25,2.00,4.00,20.00\n", buffer.String())

	t.Run("read back by the csv feed", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "AAAUSDT.csv"), buffer.Bytes(), 0o600))

		feed, err := NewCSVFeedFromDir(dir)
		require.NoError(t, err)

		loaded, err := feed.CandlesByLimit(context.Background(), "AAAUSDT", "1d", 0)
		require.NoError(t, err)
		require.Len(t, loaded, 2)
		assert.Equal(t, candles[1].Time, loaded[1].Time)
		assert.Equal(t, 3.25, loaded[1].Close)
		assert.Equal(t, 2.0, loaded[1].Low)
	})
}
