// Package greenscan wires the market scanner, the Telegram dispatcher and the
// daily schedule into one long running bot
package greenscan

import (
	"context"
	"fmt"

	"github.com/raykavin/greenscan/pkg/core"
	"github.com/raykavin/greenscan/pkg/logger"
	"github.com/raykavin/greenscan/pkg/notification"
	"github.com/raykavin/greenscan/pkg/scanner"
	"github.com/raykavin/greenscan/pkg/schedule"
	"github.com/raykavin/greenscan/pkg/storage"
	"github.com/samber/lo"
)

const defaultDatabase = "greenscan.db"

// Storage persists subscriptions and is closed when the bot stops
type Storage interface {
	core.SubscriptionStore
	Subscriptions() ([]core.Subscription, error)
	Close() error
}

// Dispatcher serves bot commands and delivers scheduled scans
type Dispatcher interface {
	core.NotifierWithStart
	Broadcast(ctx context.Context) error
}

type Greenscan struct {
	settings   core.Settings
	scanner    *scanner.Scanner
	storage    Storage
	dispatcher Dispatcher
	logger     logger.Logger

	databasePath    string
	scheduleOptions []schedule.Option
}

type Option func(*Greenscan)

// WithStorage replaces the file storage
func WithStorage(storage Storage) Option {
	return func(g *Greenscan) {
		g.storage = storage
	}
}

// WithDatabase sets the path of the subscription database
func WithDatabase(path string) Option {
	return func(g *Greenscan) {
		g.databasePath = path
	}
}

// WithLogger sets the logger used by every component
func WithLogger(log logger.Logger) Option {
	return func(g *Greenscan) {
		g.logger = log
	}
}

// WithDispatcher replaces the Telegram dispatcher built by Run
func WithDispatcher(dispatcher Dispatcher) Option {
	return func(g *Greenscan) {
		g.dispatcher = dispatcher
	}
}

// WithScheduleOptions configures the scheduler created by Run
func WithScheduleOptions(options ...schedule.Option) Option {
	return func(g *Greenscan) {
		g.scheduleOptions = append(g.scheduleOptions, options...)
	}
}

// New creates a bot scanning the market data of feeder with the given settings
func New(settings core.Settings, feeder core.Feeder, options ...Option) *Greenscan {
	g := &Greenscan{
		settings:     settings,
		logger:       logger.Discard(),
		databasePath: defaultDatabase,
	}

	for _, option := range options {
		option(g)
	}

	g.scanner = scanner.New(feeder, g.logger,
		scanner.WithPace(settings.Scan.Pace),
		scanner.WithFetchTimeout(settings.Scan.FetchTimeout),
		scanner.WithDefaults(scanner.Params{
			Days:      settings.Scan.Days,
			Window:    settings.Scan.Window,
			Quote:     settings.Scan.Quote,
			Timeframe: settings.Scan.Timeframe,
		}),
	)

	return g
}

// Scan runs a single scan, fields of params left empty use the configured defaults
func (g *Greenscan) Scan(ctx context.Context, params scanner.Params) ([]core.Signal, error) {
	return g.scanner.Scan(ctx, params)
}

// Scanner returns the scanner shared by commands and scheduled scans
func (g *Greenscan) Scanner() *scanner.Scanner {
	return g.scanner
}

// initializeStorage opens the subscription database unless one was provided
func (g *Greenscan) initializeStorage() error {
	if g.storage != nil {
		return nil
	}

	store, err := storage.FromFile(g.databasePath)
	if err != nil {
		return err
	}

	g.storage = store
	return nil
}

// initializeDispatcher connects to Telegram unless a dispatcher was provided
func (g *Greenscan) initializeDispatcher(ctx context.Context) error {
	if g.dispatcher != nil {
		return nil
	}

	telegram, err := notification.NewTelegram(g.settings, g.scanner, g.storage, g.logger,
		notification.WithContext(ctx))
	if err != nil {
		return err
	}

	g.dispatcher = telegram
	return nil
}

// Run serves commands and scheduled scans until ctx is cancelled
func (g *Greenscan) Run(ctx context.Context) error {
	if err := g.initializeStorage(); err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := g.storage.Close(); err != nil {
			g.logger.WithError(err).Error("failed to close storage")
		}
	}()

	scheduler, err := schedule.New(g.settings.Schedule, g.broadcast, g.logger, g.scheduleOptions...)
	if err != nil {
		return err
	}

	if err := g.initializeDispatcher(ctx); err != nil {
		return err
	}

	subscriptions, err := g.storage.Subscriptions()
	if err != nil {
		return fmt.Errorf("failed to read subscriptions: %w", err)
	}
	unsubscribed := lo.CountBy(subscriptions, func(s core.Subscription) bool {
		return !s.Active
	})

	g.logger.WithFields(map[string]any{
		"users":        len(g.settings.Telegram.Users),
		"unsubscribed": unsubscribed,
		"schedule":     g.settings.Schedule,
		"quote":        g.settings.Scan.Quote,
	}).Info("bot started")

	g.dispatcher.Start()
	defer g.dispatcher.Stop()

	scheduler.Run(ctx)

	g.logger.Info("bot stopped")
	return nil
}

func (g *Greenscan) broadcast(ctx context.Context) {
	if err := g.dispatcher.Broadcast(ctx); err != nil {
		g.logger.WithError(err).Error("scheduled broadcast failed")
	}
}
