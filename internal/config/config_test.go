package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"TELEGRAM_TOKEN", "API_KEY", "GREENSCAN_TELEGRAM_TOKEN",
		"GREENSCAN_TELEGRAM_USERS", "GREENSCAN_SCAN_DAYS", "GREENSCAN_SCAN_WINDOW",
		"GREENSCAN_SCHEDULE_TIMES", "GREENSCAN_LOG_BACKEND"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "greenscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	config, err := Load("")
	require.NoError(t, err)

	scan := config.Settings.Scan
	assert.Equal(t, 30, scan.Days)
	assert.Equal(t, 28, scan.Window)
	assert.Equal(t, "USDT", scan.Quote)
	assert.Equal(t, "1d", scan.Timeframe)
	assert.Equal(t, 50*time.Millisecond, scan.Pace)
	assert.Equal(t, 10*time.Second, scan.FetchTimeout)
	assert.Zero(t, scan.MaxResults)
	assert.Equal(t, []string{"00:05"}, config.Settings.Schedule)
	assert.Empty(t, config.Settings.Telegram.Users)
	assert.Empty(t, config.Settings.Telegram.Token)
	assert.Equal(t, "greenscan.db", config.StoragePath)
	assert.Equal(t, LogConfig{Level: "info", Backend: "zerolog", Colored: true}, config.Log)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
telegram:
  token: "123:abc"
  users: [1001, 1002]
scan:
  days: 60
  window: 20
  quote: fdusd
  pace: 200ms
  max_results: 10
schedule:
  times: ["00:05", "12:00"]
storage:
  path: /tmp/scan.db
log:
  backend: logrus
  json: true
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", config.Settings.Telegram.Token)
	assert.Equal(t, []int64{1001, 1002}, config.Settings.Telegram.Users)
	assert.Equal(t, 60, config.Settings.Scan.Days)
	assert.Equal(t, 20, config.Settings.Scan.Window)
	assert.Equal(t, "FDUSD", config.Settings.Scan.Quote)
	assert.Equal(t, 200*time.Millisecond, config.Settings.Scan.Pace)
	assert.Equal(t, 10, config.Settings.Scan.MaxResults)
	assert.Equal(t, []string{"00:05", "12:00"}, config.Settings.Schedule)
	assert.Equal(t, "/tmp/scan.db", config.StoragePath)
	assert.Equal(t, "logrus", config.Log.Backend)
	assert.True(t, config.Log.JSON)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "111:legacy")
	t.Setenv("GREENSCAN_TELEGRAM_USERS", "1001,1002")
	t.Setenv("GREENSCAN_SCAN_DAYS", "45")
	t.Setenv("GREENSCAN_SCHEDULE_TIMES", "01:00,13:30")

	config, err := Load(writeFile(t, "scan:\n  days: 60\n"))
	require.NoError(t, err)

	assert.Equal(t, "111:legacy", config.Settings.Telegram.Token)
	assert.Equal(t, []int64{1001, 1002}, config.Settings.Telegram.Users)
	assert.Equal(t, 45, config.Settings.Scan.Days)
	assert.Equal(t, []string{"01:00", "13:30"}, config.Settings.Schedule)

	t.Setenv("TELEGRAM_TOKEN", "222:preferred")
	config, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "222:preferred", config.Settings.Telegram.Token)
}

func TestLoad_Invalid(t *testing.T) {
	tt := []struct {
		name    string
		content string
	}{
		{"days below window", "scan:\n  days: 29\n"},
		{"zero window", "scan:\n  window: 0\n"},
		{"timeframe", "scan:\n  timeframe: daily\n"},
		{"schedule", "schedule:\n  times: [\"25:00\"]\n"},
		{"user id", "telegram:\n  users: [alice]\n"},
		{"backend", "log:\n  backend: stdout\n"},
		{"negative max results", "scan:\n  max_results: -1\n"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeFile(t, tc.content))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateToken(t *testing.T) {
	assert.NoError(t, ValidateToken("123456:ABC-DEF"))
	assert.ErrorIs(t, ValidateToken(""), ErrMissingToken)
	assert.ErrorIs(t, ValidateToken("no-separator"), ErrInvalidToken)
}

func TestRequireToken(t *testing.T) {
	config := &Config{}
	require.NoError(t, config.RequireToken(func() (string, error) { return "123:abc", nil }))
	assert.Equal(t, "123:abc", config.Settings.Telegram.Token)

	config = &Config{}
	config.Settings.Telegram.Token = "999:zzz"
	require.NoError(t, config.RequireToken(func() (string, error) {
		t.Fatal("prompt must not run when a token is configured")
		return "", nil
	}))

	config = &Config{}
	assert.ErrorIs(t, config.RequireToken(nil), ErrMissingToken)

	config = &Config{}
	promptErr := errors.New("closed")
	assert.ErrorIs(t, config.RequireToken(func() (string, error) { return "", promptErr }), promptErr)

	config = &Config{}
	assert.ErrorIs(t, config.RequireToken(func() (string, error) { return "plain", nil }), ErrInvalidToken)
}

func TestTerminalPrompt_NotATerminal(t *testing.T) {
	file, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer file.Close()

	_, err = TerminalPrompt(int(file.Fd()), os.Stderr)()
	assert.ErrorIs(t, err, ErrMissingToken)
}
