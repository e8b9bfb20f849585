package core

import "time"

// Settings represents the read-only configuration shared by scans and the bot
type Settings struct {
	Scan     ScanSettings     // Defaults for every scan
	Schedule []string         // UTC times of day (HH:MM) for automatic scans
	Telegram TelegramSettings // Telegram notification settings
}

// ScanSettings holds the default scan parameters
type ScanSettings struct {
	Days         int           // Candles fetched per pair
	Window       int           // Moving average window
	Quote        string        // Quote currency of the scanned pairs
	Timeframe    string        // Candle timeframe, e.g. 1d
	Pace         time.Duration // Delay between per-pair fetches
	FetchTimeout time.Duration // Timeout of a single candle fetch
	MaxResults   int           // Signals listed per message, 0 lists all
}

// TelegramSettings holds configuration for Telegram integration
type TelegramSettings struct {
	Token string  // Telegram bot token
	Users []int64 // List of authorized user IDs
}

// MinDays returns the smallest lookback able to produce a signal for the window
func (s ScanSettings) MinDays() int { return s.Window + 2 }
