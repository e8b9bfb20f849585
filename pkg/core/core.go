package core

import (
	"context"
)

// Feeder lists tradable pairs and their candle history
type Feeder interface {
	Pairs(ctx context.Context, quote string) ([]Pair, error)
	CandlesByLimit(ctx context.Context, pair, period string, limit int) ([]Candle, error)
}

// Notifier delivers text to every recipient
type Notifier interface {
	Notify(string)
	OnError(err error)
}

type NotifierWithStart interface {
	Notifier
	Start()
	Stop()
}
