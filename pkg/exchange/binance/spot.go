package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/raykavin/greenscan/pkg/core"
	"github.com/raykavin/greenscan/pkg/logger"
	"github.com/samber/lo"
)

// Spot reads public market data from the Binance spot REST API
type Spot struct {
	client  *binance.Client
	log     logger.Logger
	retries int
}

// SpotOption is a function that configures a Spot client
type SpotOption func(*Spot)

// WithBaseURL sets a custom REST endpoint
func WithBaseURL(url string) SpotOption {
	return func(s *Spot) {
		s.client.BaseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient replaces the HTTP client used for requests
func WithHTTPClient(client *http.Client) SpotOption {
	return func(s *Spot) {
		s.client.HTTPClient = client
	}
}

// WithRetries sets how many attempts are made per request
func WithRetries(attempts int) SpotOption {
	return func(s *Spot) {
		s.retries = attempts
	}
}

// NewSpot creates a new unauthenticated Binance spot client
func NewSpot(_ context.Context, log logger.Logger, options ...SpotOption) (*Spot, error) {
	spot := &Spot{
		client:  binance.NewClient("", ""),
		log:     log,
		retries: defaultRetries,
	}

	for _, option := range options {
		option(spot)
	}

	log.WithField("endpoint", spot.client.BaseURL).Info("[SETUP] Using Binance Spot market data")
	return spot, nil
}

// Pairs lists the trading pairs quoted in quote together with their 24h quote volume
func (s *Spot) Pairs(ctx context.Context, quote string) ([]core.Pair, error) {
	var info *binance.ExchangeInfo
	err := retry(ctx, s.retries, func() (err error) {
		info, err = s.client.NewExchangeInfoService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange info: %w", err)
	}

	var stats []*binance.PriceChangeStats
	err = retry(ctx, s.retries, func() (err error) {
		stats, err = s.client.NewListPriceChangeStatsService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get 24h ticker: %w", err)
	}

	volumes := lo.SliceToMap(stats, func(stat *binance.PriceChangeStats) (string, float64) {
		volume, _ := strconv.ParseFloat(stat.QuoteVolume, 64)
		return stat.Symbol, volume
	})

	symbols := lo.Filter(info.Symbols, func(symbol binance.Symbol, _ int) bool {
		return symbol.Status == statusTrading && strings.EqualFold(symbol.QuoteAsset, quote)
	})

	return lo.Map(symbols, func(symbol binance.Symbol, _ int) core.Pair {
		return core.Pair{
			Symbol:     symbol.Symbol,
			BaseAsset:  symbol.BaseAsset,
			QuoteAsset: symbol.QuoteAsset,
			Volume:     volumes[symbol.Symbol],
		}
	}), nil
}

// CandlesByLimit gets the last limit closed candles for a pair, oldest first
func (s *Spot) CandlesByLimit(ctx context.Context, pair, period string, limit int) ([]core.Candle, error) {
	var data []*binance.Kline
	err := retry(ctx, s.retries, func() (err error) {
		data, err = s.client.NewKlinesService().
			Symbol(pair).
			Interval(period).
			Limit(limit + 1). // +1 to discard the last incomplete candle
			Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return []core.Candle{}, nil
	}

	candles := make([]core.Candle, 0, len(data)-1)
	for i, d := range data {
		// Skip the last candle as it's incomplete
		if i == len(data)-1 {
			break
		}

		candle, err := convertKlineToCandle(pair, *d)
		if err != nil {
			return nil, err
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

// convertKlineToCandle converts a Binance kline to a core.Candle
func convertKlineToCandle(pair string, k binance.Kline) (core.Candle, error) {
	t := time.UnixMilli(k.OpenTime).UTC()
	candle := core.Candle{
		Pair:     pair,
		Time:     t,
		Complete: true,
	}

	fields := []struct {
		name   string
		raw    string
		target *float64
	}{
		{"open", k.Open, &candle.Open},
		{"close", k.Close, &candle.Close},
		{"high", k.High, &candle.High},
		{"low", k.Low, &candle.Low},
		{"volume", k.Volume, &candle.Volume},
	}

	for _, field := range fields {
		value, err := strconv.ParseFloat(field.raw, 64)
		if err != nil {
			return core.Candle{}, fmt.Errorf("malformed kline %s for %s: %w", field.name, pair, err)
		}
		*field.target = value
	}

	return candle, nil
}
