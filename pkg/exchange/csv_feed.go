package exchange

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/greenscan/pkg/core"
	"github.com/samber/lo"
)

var (
	ErrUnknownPair   = errors.New("unknown pair")
	defaultHeaderMap = map[string]int{
		"time": 0, "open": 1, "close": 2, "low": 3, "high": 4, "volume": 5,
	}
)

// PairFeed points a pair to the CSV file holding its candles
type PairFeed struct {
	Pair string
	File string
}

// CSVFeed serves candles loaded from CSV files, one file per pair
type CSVFeed struct {
	pairs   []core.Pair
	candles map[string][]core.Candle
}

// NewCSVFeed loads every feed into memory
func NewCSVFeed(feeds ...PairFeed) (*CSVFeed, error) {
	csvFeed := &CSVFeed{
		candles: make(map[string][]core.Candle),
	}

	for _, feed := range feeds {
		candles, err := readCandlesFromCSV(feed)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", feed.File, err)
		}

		asset, quote := SplitAssetQuote(feed.Pair)
		pair := core.Pair{Symbol: strings.ToUpper(feed.Pair), BaseAsset: asset, QuoteAsset: quote}
		if len(candles) > 0 {
			last := candles[len(candles)-1]
			pair.Volume = last.Volume * last.Close
		}

		csvFeed.pairs = append(csvFeed.pairs, pair)
		csvFeed.candles[pair.Symbol] = candles
	}

	return csvFeed, nil
}

// NewCSVFeedFromDir loads every <PAIR>.csv file in dir
func NewCSVFeedFromDir(dir string) (*CSVFeed, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	feeds := lo.Map(files, func(file string, _ int) PairFeed {
		return PairFeed{
			Pair: strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)),
			File: file,
		}
	})

	return NewCSVFeed(feeds...)
}

// Pairs implements core.Feeder
func (c *CSVFeed) Pairs(_ context.Context, quote string) ([]core.Pair, error) {
	return lo.Filter(c.pairs, func(pair core.Pair, _ int) bool {
		return strings.EqualFold(pair.QuoteAsset, quote)
	}), nil
}

// CandlesByLimit implements core.Feeder, returning the last limit candles of the pair
func (c *CSVFeed) CandlesByLimit(_ context.Context, pair, _ string, limit int) ([]core.Candle, error) {
	candles, ok := c.candles[strings.ToUpper(pair)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPair, pair)
	}

	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	out := make([]core.Candle, len(candles))
	copy(out, candles)
	return out, nil
}

// readCandlesFromCSV reads a file with the columns time, open, close, low, high, volume
func readCandlesFromCSV(feed PairFeed) ([]core.Candle, error) {
	csvFile, err := os.Open(feed.File)
	if err != nil {
		return nil, err
	}
	defer csvFile.Close()

	csvLines, err := csv.NewReader(csvFile).ReadAll()
	if err != nil {
		return nil, err
	}

	if len(csvLines) == 0 {
		return nil, nil
	}

	headerMap, hasHeaders := parseHeaders(csvLines[0])
	if hasHeaders {
		csvLines = csvLines[1:]
	}

	candles := make([]core.Candle, 0, len(csvLines))
	for _, line := range csvLines {
		candle, err := parseCandleFromLine(line, headerMap, feed.Pair)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	return candles, nil
}

// parseHeaders returns the column index of each field. A first line starting
// with a number is data, not a header.
func parseHeaders(headers []string) (map[string]int, bool) {
	if _, err := strconv.Atoi(headers[0]); err == nil {
		return defaultHeaderMap, false
	}

	headerMap := make(map[string]int, len(headers))
	for index, header := range headers {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = index
	}

	return headerMap, true
}

func parseCandleFromLine(line []string, headerMap map[string]int, pair string) (core.Candle, error) {
	candle := core.Candle{Pair: strings.ToUpper(pair), Complete: true}

	column := func(name string) (string, error) {
		index, ok := headerMap[name]
		if !ok || index >= len(line) {
			return "", fmt.Errorf("missing column %q", name)
		}
		return line[index], nil
	}

	raw, err := column("time")
	if err != nil {
		return candle, err
	}
	timestamp, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return candle, fmt.Errorf("invalid time %q: %w", raw, err)
	}
	candle.Time = time.Unix(timestamp, 0).UTC()

	fields := map[string]*float64{
		"open":   &candle.Open,
		"close":  &candle.Close,
		"low":    &candle.Low,
		"high":   &candle.High,
		"volume": &candle.Volume,
	}
	for name, target := range fields {
		raw, err := column(name)
		if err != nil {
			return candle, err
		}
		if *target, err = strconv.ParseFloat(raw, 64); err != nil {
			return candle, fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
	}

	return candle, nil
}
