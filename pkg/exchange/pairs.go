package exchange

import "strings"

// quoteAssets are the quote currencies recognised when splitting a bare symbol
var quoteAssets = []string{"USDT", "FDUSD", "BUSD", "USDC", "TUSD", "BTC", "ETH", "BNB"}

// SplitAssetQuote splits a trading pair into asset and quote parts
func SplitAssetQuote(pair string) (asset, quote string) {
	pair = strings.ToUpper(pair)
	for _, quote = range quoteAssets {
		if len(pair) > len(quote) && strings.HasSuffix(pair, quote) {
			return pair[:len(pair)-len(quote)], quote
		}
	}

	return pair, ""
}
