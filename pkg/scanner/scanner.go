// Package scanner runs the signal detector over every pair of a quote currency
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raykavin/greenscan/pkg/core"
	"github.com/raykavin/greenscan/pkg/logger"
	"github.com/raykavin/greenscan/pkg/strategy"
	"github.com/xhit/go-str2duration/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultDays         = 30
	DefaultQuote        = "USDT"
	DefaultTimeframe    = "1d"
	DefaultPace         = 50 * time.Millisecond
	DefaultFetchTimeout = 10 * time.Second
)

var (
	ErrListing       = errors.New("failed to list pairs")
	ErrInvalidParams = errors.New("invalid scan parameters")
)

// Progress is advanced once per scanned pair, progressbar.ProgressBar satisfies it
type Progress interface {
	Add(num int) error
}

// Params describes one scan. Zero values take the scanner defaults.
type Params struct {
	Days      int    // candles fetched per pair
	Window    int    // moving average window
	Quote     string // quote currency of the scanned pairs
	Timeframe string // candle timeframe
	Limit     int    // maximum number of pairs scanned, 0 scans all
	Progress  Progress
}

// Scanner enumerates pairs, fetches their candles one at a time and collects signals
type Scanner struct {
	feeder       core.Feeder
	log          logger.Logger
	defaults     Params
	pace         time.Duration
	fetchTimeout time.Duration
	newDetector  func(window int) strategy.Detector
}

// Option is a function that configures a Scanner
type Option func(*Scanner)

// WithPace sets the minimum interval between the starts of two candle fetches.
// A fetch slower than pace is followed immediately by the next one.
func WithPace(pace time.Duration) Option {
	return func(s *Scanner) {
		s.pace = pace
	}
}

// WithFetchTimeout bounds every candle fetch
func WithFetchTimeout(timeout time.Duration) Option {
	return func(s *Scanner) {
		s.fetchTimeout = timeout
	}
}

// WithDefaults replaces the parameters used for zero fields of Params
func WithDefaults(defaults Params) Option {
	return func(s *Scanner) {
		s.defaults = fill(defaults, s.defaults)
	}
}

// WithDetector replaces the two green candles detector
func WithDetector(newDetector func(window int) strategy.Detector) Option {
	return func(s *Scanner) {
		s.newDetector = newDetector
	}
}

// New creates a scanner reading market data from feeder
func New(feeder core.Feeder, log logger.Logger, options ...Option) *Scanner {
	s := &Scanner{
		feeder: feeder,
		log:    log,
		defaults: Params{
			Days:      DefaultDays,
			Window:    strategy.DefaultWindow,
			Quote:     DefaultQuote,
			Timeframe: DefaultTimeframe,
		},
		pace:         DefaultPace,
		fetchTimeout: DefaultFetchTimeout,
		newDetector: func(window int) strategy.Detector {
			return strategy.NewTwoGreen(window)
		},
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Defaults returns the parameters used when a Params field is left empty
func (s *Scanner) Defaults() Params {
	return s.defaults
}

// fill copies every empty field of params from defaults
func fill(params, defaults Params) Params {
	if params.Days == 0 {
		params.Days = defaults.Days
	}
	if params.Window == 0 {
		params.Window = defaults.Window
	}
	if params.Quote == "" {
		params.Quote = defaults.Quote
	}
	if params.Timeframe == "" {
		params.Timeframe = defaults.Timeframe
	}
	return params
}

func validate(params Params) (time.Duration, error) {
	if params.Days < 1 {
		return 0, fmt.Errorf("%w: days must be positive, got %d", ErrInvalidParams, params.Days)
	}

	if params.Window < 1 {
		return 0, fmt.Errorf("%w: window must be positive, got %d", ErrInvalidParams, params.Window)
	}

	interval, err := str2duration.ParseDuration(params.Timeframe)
	if err != nil || interval <= 0 {
		return 0, fmt.Errorf("%w: timeframe %q", ErrInvalidParams, params.Timeframe)
	}

	return interval, nil
}

// Scan lists the pairs of the quote currency, evaluates each one and returns
// the signals ordered by descending volume. A failed pair is skipped; only a
// failed listing aborts the scan.
func (s *Scanner) Scan(ctx context.Context, params Params) ([]core.Signal, error) {
	params = fill(params, s.defaults)
	interval, err := validate(params)
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(map[string]any{
		"scan_id": uuid.NewString(),
		"quote":   params.Quote,
		"days":    params.Days,
		"window":  params.Window,
	})

	pairs, err := s.feeder.Pairs(ctx, params.Quote)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListing, err)
	}

	if params.Limit > 0 && len(pairs) > params.Limit {
		pairs = pairs[:params.Limit]
	}

	end := time.Now().UTC()
	log.WithFields(map[string]any{
		"pairs": len(pairs),
		"from":  end.Add(-interval * time.Duration(params.Days)).Format(time.DateOnly),
		"to":    end.Format(time.DateOnly),
	}).Infof("Found %d pairs with %s as quote currency", len(pairs), params.Quote)

	detector := s.newDetector(params.Window)
	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.pace > 0 {
		limiter = rate.NewLimiter(rate.Every(s.pace), 1)
	}

	signals := make([]core.Signal, 0)
	skipped := 0

	for _, pair := range pairs {
		if err := limiter.Wait(ctx); err != nil {
			return nil, ctx.Err()
		}

		candles, err := s.fetch(ctx, pair.Symbol, params)
		s.advance(params.Progress)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			skipped++
			log.WithField("pair", pair.Symbol).WithError(err).Warn("failed to fetch candles, skipping pair")
			continue
		}

		if len(candles) < detector.WarmupPeriod() {
			log.WithField("pair", pair.Symbol).Debugf("not enough history: %d candles", len(candles))
			continue
		}

		if signal, ok := detector.Detect(pair, candles); ok {
			signals = append(signals, signal)
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Volume > signals[j].Volume
	})

	log.WithFields(map[string]any{
		"signals": len(signals),
		"skipped": skipped,
	}).Info("Scan finished")

	return signals, nil
}

// Candles fetches the history of a single pair, empty fields of params take
// the scanner defaults
func (s *Scanner) Candles(ctx context.Context, symbol string, params Params) ([]core.Candle, error) {
	params = fill(params, s.defaults)
	if _, err := validate(params); err != nil {
		return nil, err
	}

	return s.fetch(ctx, strings.ToUpper(symbol), params)
}

// fetch gets the candles of one pair within the fetch timeout
func (s *Scanner) fetch(ctx context.Context, symbol string, params Params) ([]core.Candle, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	return s.feeder.CandlesByLimit(ctx, symbol, params.Timeframe, params.Days)
}

func (s *Scanner) advance(progress Progress) {
	if progress == nil {
		return
	}
	if err := progress.Add(1); err != nil {
		s.log.WithError(err).Debug("failed to update progress")
	}
}
