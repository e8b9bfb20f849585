package core

// Pair is a tradable symbol restricted to a quote currency
type Pair struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Volume     float64 // 24h volume in the quote asset
}

// String returns the pair symbol
func (p Pair) String() string { return p.Symbol }
