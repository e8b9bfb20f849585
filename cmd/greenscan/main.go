package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/raykavin/greenscan"
	"github.com/raykavin/greenscan/internal/config"
	"github.com/raykavin/greenscan/pkg/core"
	"github.com/raykavin/greenscan/pkg/exchange"
	"github.com/raykavin/greenscan/pkg/exchange/binance"
	"github.com/raykavin/greenscan/pkg/logger"
	zerologadapter "github.com/raykavin/greenscan/pkg/logger/zerolog"
	"github.com/raykavin/greenscan/pkg/report"
	"github.com/raykavin/greenscan/pkg/scanner"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Command line flags
var (
	configPath string
	logLevel   string
	once       bool
	days       int
	limit      int
	csvDir     string
	chartPair  string
	outDir     string
)

// log starts as a plain stderr logger and is replaced once the configuration is loaded
var log logger.Logger = bootstrapLogger()

func bootstrapLogger() logger.Logger {
	startup := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	return zerologadapter.NewAdapter(&startup)
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "greenscan",
		Short:        "Telegram bot scanning the market for two green candles above the moving average",
		Version:      "1.0.0",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (e.g. ./greenscan.yaml)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&once, "once", false, "Run a single scan, print it and exit")
	rootCmd.Flags().IntVarP(&days, "days", "d", 0, "Candles fetched per pair in --once and --chart modes (default from config)")
	rootCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of pairs scanned in --once mode")
	rootCmd.Flags().StringVar(&csvDir, "csv", "", "Read candles from <PAIR>.csv files in this directory instead of Binance")
	rootCmd.Flags().StringVar(&chartPair, "chart", "", "Write the chart and the candles of this pair to --out and exit")
	rootCmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory receiving the --chart files")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	configured, err := greenscan.NewLogger(greenscan.LogOptions{
		Backend: cfg.Log.Backend,
		Level:   cfg.Log.Level,
		Colored: cfg.Log.Colored,
		JSON:    cfg.Log.JSON,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	if logLevel != "" {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		configured.SetLevel(level)
	}
	log = configured

	feeder, err := initializeFeeder(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	if chartPair != "" {
		return runChart(cmd, cfg, feeder, log)
	}

	if once {
		return runOnce(cmd, cfg, feeder, log)
	}

	if err := cfg.RequireToken(config.TerminalPrompt(int(os.Stdin.Fd()), os.Stderr)); err != nil {
		return err
	}

	if len(cfg.Settings.Telegram.Users) == 0 {
		log.Warn("no telegram users configured, every command will be denied")
	}

	bot := greenscan.New(cfg.Settings, feeder,
		greenscan.WithLogger(log),
		greenscan.WithDatabase(cfg.StoragePath),
	)

	return bot.Run(cmd.Context())
}

func initializeFeeder(ctx context.Context, cfg *config.Config, log logger.Logger) (core.Feeder, error) {
	if csvDir != "" {
		return exchange.NewCSVFeedFromDir(csvDir)
	}

	return binance.NewExchange(ctx, log, binance.Config{
		BaseURL:    cfg.BinanceBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout()},
	})
}

func validateDays(cfg *config.Config) error {
	if days != 0 && days < cfg.Settings.Scan.MinDays() {
		return fmt.Errorf("--days must be at least %d for MA%d", cfg.Settings.Scan.MinDays(), cfg.Settings.Scan.Window)
	}
	return nil
}

func runOnce(cmd *cobra.Command, cfg *config.Config, feeder core.Feeder, log logger.Logger) error {
	if err := validateDays(cfg); err != nil {
		return err
	}

	bot := greenscan.New(cfg.Settings, feeder, greenscan.WithLogger(log))
	params := scanner.Params{Days: days, Limit: limit}

	// Debug lines would be interleaved with the bar redraws
	var bar *progressbar.ProgressBar
	if log.GetLevel() > logger.DebugLevel {
		bar = progressbar.Default(-1, "scanning pairs")
		params.Progress = bar
	}

	signals, err := bot.Scan(cmd.Context(), params)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	report.Table(cmd.OutOrStdout(), signals, cfg.Settings.Scan.Window)
	return nil
}

func runChart(cmd *cobra.Command, cfg *config.Config, feeder core.Feeder, log logger.Logger) error {
	if err := validateDays(cfg); err != nil {
		return err
	}

	bot := greenscan.New(cfg.Settings, feeder, greenscan.WithLogger(log))
	chartPath, csvPath, err := bot.ExportPair(cmd.Context(), chartPair, outDir, scanner.Params{Days: days})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "chart:   %s\ncandles: %s\n", chartPath, csvPath)
	return nil
}
