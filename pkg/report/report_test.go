package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/raykavin/greenscan/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanTime = time.Date(2024, 3, 5, 0, 5, 0, 0, time.UTC)

func sampleSignal(symbol string, volume float64) core.Signal {
	return core.Signal{
		Pair:          symbol,
		Time:          time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Price:         110,
		MovingAverage: 95,
		StopLoss:      100,
		RiskPct:       10,
		Volume:        volume,
	}
}

func TestMessages_Empty(t *testing.T) {
	assert.Equal(t, []string{NoMatches}, Messages(nil, Options{Window: 28}))
}

func TestMessages_Blocks(t *testing.T) {
	messages := Messages([]core.Signal{sampleSignal("AAAUSDT", 1234567.4), sampleSignal("BBBUSDT", 10)},
		Options{Window: 28, At: scanTime})
	require.Len(t, messages, 1)

	text := messages[0]
	assert.Contains(t, text, "✅ Found 2 matching pairs at 2024-03-05 00:05 UTC:")
	assert.Contains(t, text, "Average risk: 10.00% (median 10.00%)")
	assert.Contains(t, text, "1. *AAAUSDT*\n   Price: `110.000000`\n   MA28: `95.000000`\n"+
		"   Stop Loss: `100.000000` (Risk: 10.00%)\n   Volume: `1,234,567`")
	assert.Contains(t, text, "2. *BBBUSDT*")
	assert.Less(t, strings.Index(text, "AAAUSDT"), strings.Index(text, "BBBUSDT"))
}

func TestMessages_MaxResults(t *testing.T) {
	signals := make([]core.Signal, 12)
	for i := range signals {
		signals[i] = sampleSignal(fmt.Sprintf("P%02dUSDT", i), float64(100-i))
	}

	messages := Messages(signals, Options{Window: 28, MaxResults: 10})
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "10. *P09USDT*")
	assert.NotContains(t, messages[0], "P10USDT")
	assert.True(t, strings.HasSuffix(messages[0], "...and 2 more pairs."))
}

func TestMessages_SplitsLongResults(t *testing.T) {
	signals := make([]core.Signal, 200)
	for i := range signals {
		signals[i] = sampleSignal(fmt.Sprintf("PAIR%03dUSDT", i), 1)
	}

	messages := Messages(signals, Options{Window: 28})
	require.Greater(t, len(messages), 1)

	joined := strings.Join(messages, "\n\n")
	for i := range signals {
		assert.Contains(t, joined, fmt.Sprintf("%d. *PAIR%03dUSDT*", i+1, i))
	}
	for _, message := range messages {
		assert.LessOrEqual(t, len(message), MaxMessageLength)
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []core.Signal{sampleSignal("AAAUSDT", 2500)}, 28)

	out := buf.String()
	assert.Contains(t, out, "1 Cryptocurrency Pairs Match the Entry Criteria")
	assert.Contains(t, out, "AAAUSDT")
	assert.Contains(t, out, "MA28")
	assert.Contains(t, out, "2024-03-04")
	assert.Contains(t, out, "2,500")
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, nil, 28)
	assert.Contains(t, buf.String(), "No cryptocurrency pairs match")
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "0", formatVolume(0))
	assert.Equal(t, "999", formatVolume(999))
	assert.Equal(t, "1,000", formatVolume(1000))
	assert.Equal(t, "1,234,567", formatVolume(1234567.4))
	assert.Equal(t, "-12,345,678", formatVolume(-12345678))
}
