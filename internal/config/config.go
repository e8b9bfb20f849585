// Package config handles application configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/raykavin/greenscan/pkg/core"
	"github.com/raykavin/greenscan/pkg/schedule"
	"github.com/raykavin/greenscan/pkg/scanner"
	"github.com/raykavin/greenscan/pkg/strategy"
	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"
	"golang.org/x/term"
)

// Constants for configuration
const (
	EnvPrefix          = "GREENSCAN"
	DefaultStoragePath = "greenscan.db"
	DefaultSchedule    = "00:05"
)

var (
	ErrMissingToken  = errors.New("telegram token not found, set TELEGRAM_TOKEN or API_KEY")
	ErrInvalidToken  = errors.New("telegram token must contain a ':' separator")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds the application configuration
type Config struct {
	Settings       core.Settings
	StoragePath    string
	BinanceBaseURL string
	Log            LogConfig
}

// LogConfig selects and tunes the logging backend
type LogConfig struct {
	Level   string
	Backend string // zerolog or logrus
	Colored bool
	JSON    bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.users", []string{})
	v.SetDefault("scan.days", scanner.DefaultDays)
	v.SetDefault("scan.window", strategy.DefaultWindow)
	v.SetDefault("scan.quote", scanner.DefaultQuote)
	v.SetDefault("scan.timeframe", scanner.DefaultTimeframe)
	v.SetDefault("scan.pace", scanner.DefaultPace)
	v.SetDefault("scan.fetch_timeout", scanner.DefaultFetchTimeout)
	v.SetDefault("scan.max_results", 0)
	v.SetDefault("schedule.times", []string{DefaultSchedule})
	v.SetDefault("storage.path", DefaultStoragePath)
	v.SetDefault("binance.base_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.backend", "zerolog")
	v.SetDefault("log.colored", true)
	v.SetDefault("log.json", false)
}

// Load reads the optional .env file, the optional YAML file at path and the
// GREENSCAN_ environment, in increasing order of precedence
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("telegram.token", EnvPrefix+"_TELEGRAM_TOKEN", "TELEGRAM_TOKEN", "API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind token environment: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	users, err := parseUsers(list(v.GetStringSlice("telegram.users")))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Settings: core.Settings{
			Scan: core.ScanSettings{
				Days:         v.GetInt("scan.days"),
				Window:       v.GetInt("scan.window"),
				Quote:        strings.ToUpper(v.GetString("scan.quote")),
				Timeframe:    v.GetString("scan.timeframe"),
				Pace:         v.GetDuration("scan.pace"),
				FetchTimeout: v.GetDuration("scan.fetch_timeout"),
				MaxResults:   v.GetInt("scan.max_results"),
			},
			Schedule: list(v.GetStringSlice("schedule.times")),
			Telegram: core.TelegramSettings{
				Token: strings.TrimSpace(v.GetString("telegram.token")),
				Users: users,
			},
		},
		StoragePath:    v.GetString("storage.path"),
		BinanceBaseURL: v.GetString("binance.base_url"),
		Log: LogConfig{
			Level:   v.GetString("log.level"),
			Backend: v.GetString("log.backend"),
			Colored: v.GetBool("log.colored"),
			JSON:    v.GetBool("log.json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// list flattens comma separated entries
func list(values []string) []string {
	items := make([]string, 0, len(values))
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

func parseUsers(values []string) ([]int64, error) {
	users := make([]int64, 0, len(values))
	for _, value := range values {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: telegram user %q is not a numeric id", ErrInvalidConfig, value)
		}
		users = append(users, id)
	}
	return users, nil
}

// Validate checks the scan defaults and the schedule
func (c *Config) Validate() error {
	scan := c.Settings.Scan

	if scan.Window < 1 {
		return fmt.Errorf("%w: scan.window must be positive, got %d", ErrInvalidConfig, scan.Window)
	}

	if scan.Days < scan.MinDays() {
		return fmt.Errorf("%w: scan.days must be at least %d for window %d, got %d",
			ErrInvalidConfig, scan.MinDays(), scan.Window, scan.Days)
	}

	if scan.Quote == "" {
		return fmt.Errorf("%w: scan.quote is empty", ErrInvalidConfig)
	}

	if interval, err := str2duration.ParseDuration(scan.Timeframe); err != nil || interval <= 0 {
		return fmt.Errorf("%w: scan.timeframe %q", ErrInvalidConfig, scan.Timeframe)
	}

	if scan.Pace < 0 || scan.FetchTimeout < 0 || scan.MaxResults < 0 {
		return fmt.Errorf("%w: scan.pace, scan.fetch_timeout and scan.max_results cannot be negative", ErrInvalidConfig)
	}

	if _, err := schedule.ParseTimes(c.Settings.Schedule); err != nil {
		return fmt.Errorf("%w: schedule.times: %w", ErrInvalidConfig, err)
	}

	switch c.Log.Backend {
	case "zerolog", "logrus":
	default:
		return fmt.Errorf("%w: log.backend %q", ErrInvalidConfig, c.Log.Backend)
	}

	return nil
}

// ValidateToken checks the minimal shape of a bot token
func ValidateToken(token string) error {
	if token == "" {
		return ErrMissingToken
	}
	if !strings.Contains(token, ":") {
		return ErrInvalidToken
	}
	return nil
}

// Prompt asks for a secret without echoing it
type Prompt func() (string, error)

// TerminalPrompt reads the token from the terminal fd, writing the question to out.
// It returns ErrMissingToken when fd is not a terminal.
func TerminalPrompt(fd int, out io.Writer) Prompt {
	return func() (string, error) {
		if !term.IsTerminal(fd) {
			return "", ErrMissingToken
		}

		fmt.Fprint(out, "Telegram bot token: ")
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		return strings.TrimSpace(string(secret)), nil
	}
}

// RequireToken prompts for the token when it is not configured and validates it
func (c *Config) RequireToken(prompt Prompt) error {
	if c.Settings.Telegram.Token == "" && prompt != nil {
		token, err := prompt()
		if err != nil {
			return err
		}
		c.Settings.Telegram.Token = token
	}

	return ValidateToken(c.Settings.Telegram.Token)
}

// HTTPTimeout bounds a single Binance request
func (c *Config) HTTPTimeout() time.Duration {
	if c.Settings.Scan.FetchTimeout > 0 {
		return c.Settings.Scan.FetchTimeout
	}
	return scanner.DefaultFetchTimeout
}
