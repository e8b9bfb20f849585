package binance

import (
	"context"
	"errors"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/jpillora/backoff"
)

const statusTrading = "TRADING"

// defaultRetries is the number of attempts made for a single request
const defaultRetries = 3

// setupBackoffRetry creates a backoff with sensible defaults
func setupBackoffRetry() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    1 * time.Second,
		Factor: 2,
	}
}

// isRetryable reports whether a failed request may succeed when repeated.
// Errors carrying a Binance error code (unknown symbol, bad parameters) are final,
// a failed status without one (gateway errors) is not.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 0
	}

	return true
}

// retry runs call until it succeeds, returns a final error, or attempts are exhausted
func retry(ctx context.Context, attempts int, call func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	b := setupBackoffRetry()
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = call(); err == nil || !isRetryable(err) || attempt == attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Duration()):
		}
	}

	return err
}
