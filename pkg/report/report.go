// Package report renders scan results for chat messages and terminals
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/greenscan/pkg/core"
	"github.com/raykavin/greenscan/pkg/metric"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxMessageLength is the largest text Telegram accepts in one message
const MaxMessageLength = 4096

var volumePrinter = message.NewPrinter(language.English)

const (
	pricePrecision = 6
	timeLayout     = "2006-01-02 15:04 MST"
)

// Options controls how signals are rendered
type Options struct {
	Window     int       // moving average window, shown in the block label
	MaxResults int       // signals listed, 0 lists all
	At         time.Time // scan time shown in the header
}

// NoMatches is the message sent when a scan produced no signal
const NoMatches = "❌ No matching pairs found."

// Messages renders one block per signal, split into messages that fit Telegram's limit.
// An empty result yields exactly one NoMatches message.
func Messages(signals []core.Signal, opts Options) []string {
	if len(signals) == 0 {
		return []string{NoMatches}
	}

	listed := signals
	if opts.MaxResults > 0 && len(listed) > opts.MaxResults {
		listed = listed[:opts.MaxResults]
	}

	blocks := make([]string, 0, len(listed)+2)
	blocks = append(blocks, header(signals, opts))
	for i, signal := range listed {
		blocks = append(blocks, Block(i+1, signal, opts.Window))
	}

	if rest := len(signals) - len(listed); rest > 0 {
		blocks = append(blocks, fmt.Sprintf("...and %d more pairs.", rest))
	}

	return pack(blocks, MaxMessageLength)
}

func header(signals []core.Signal, opts Options) string {
	summary := metric.Summarize(signals)

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Found %d matching pairs", summary.Count)
	if !opts.At.IsZero() {
		fmt.Fprintf(&sb, " at %s", opts.At.UTC().Format(timeLayout))
	}
	sb.WriteString(":\n")
	fmt.Fprintf(&sb, "Average risk: %.2f%% (median %.2f%%)", summary.MeanRisk, summary.MedianRisk)
	return sb.String()
}

// Block renders a single signal
func Block(position int, signal core.Signal, window int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d. *%s*\n", position, signal.Pair)
	fmt.Fprintf(&sb, "   Price: `%s`\n", formatPrice(signal.Price))
	fmt.Fprintf(&sb, "   MA%d: `%s`\n", window, formatPrice(signal.MovingAverage))
	fmt.Fprintf(&sb, "   Stop Loss: `%s` (Risk: %.2f%%)\n", formatPrice(signal.StopLoss), signal.RiskPct)
	fmt.Fprintf(&sb, "   Volume: `%s`", formatVolume(signal.Volume))
	return sb.String()
}

// pack joins blocks with blank lines without splitting a block across messages
func pack(blocks []string, limit int) []string {
	messages := make([]string, 0, 1)
	var current strings.Builder

	for _, block := range blocks {
		if len(block) > limit {
			block = block[:limit]
		}

		if current.Len() > 0 && current.Len()+2+len(block) > limit {
			messages = append(messages, current.String())
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(block)
	}

	if current.Len() > 0 {
		messages = append(messages, current.String())
	}

	return messages
}

// Table writes the signals as a console table
func Table(w io.Writer, signals []core.Signal, window int) {
	if len(signals) == 0 {
		fmt.Fprintln(w, "No cryptocurrency pairs match the criteria currently.")
		return
	}

	fmt.Fprintf(w, "\n%d Cryptocurrency Pairs Match the Entry Criteria:\n", len(signals))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Symbol", "Date", "Last Close", fmt.Sprintf("MA%d", window), "Stop Loss", "Risk", "Volume"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)

	for i, signal := range signals {
		table.Append([]string{
			strconv.Itoa(i + 1),
			signal.Pair,
			signal.Time.UTC().Format(time.DateOnly),
			formatPrice(signal.Price),
			formatPrice(signal.MovingAverage),
			formatPrice(signal.StopLoss),
			fmt.Sprintf("%.2f%%", signal.RiskPct),
			formatVolume(signal.Volume),
		})
	}

	summary := metric.Summarize(signals)
	table.SetFooter([]string{"", "", "", "", "", "Mean", fmt.Sprintf("%.2f%%", summary.MeanRisk), formatVolume(summary.TotalVolume)})
	table.Render()
}

func formatPrice(value float64) string {
	return strconv.FormatFloat(value, 'f', pricePrecision, 64)
}

// formatVolume renders a volume rounded to units with thousands separators
func formatVolume(value float64) string {
	return volumePrinter.Sprintf("%.0f", value)
}
