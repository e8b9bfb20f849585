package binance

import (
	"context"
	"net/http"

	"github.com/raykavin/greenscan/pkg/logger"
)

// Config represents the configuration of the public market data client
type Config struct {
	// Custom REST endpoint, empty for the Binance default
	BaseURL string

	// Attempts per request, including the first one
	Retries int

	// HTTP client used for every request, nil for the library default
	HTTPClient *http.Client
}

// NewExchange creates a spot market data client from the configuration
func NewExchange(ctx context.Context, log logger.Logger, config Config) (*Spot, error) {
	options := []SpotOption{}

	if config.BaseURL != "" {
		options = append(options, WithBaseURL(config.BaseURL))
	}

	if config.Retries > 0 {
		options = append(options, WithRetries(config.Retries))
	}

	if config.HTTPClient != nil {
		options = append(options, WithHTTPClient(config.HTTPClient))
	}

	return NewSpot(ctx, log, options...)
}
