package notification

import (
	"fmt"
	"time"

	"github.com/raykavin/greenscan/pkg/core"
	"github.com/raykavin/greenscan/pkg/logger"
	tb "gopkg.in/tucnak/telebot.v2"
)

// Telegram implements the core.NotifierWithStart interface on top of a telebot client
type Telegram struct {
	*Dispatcher
	client *tb.Bot
}

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(settings core.Settings, scanner SignalScanner, store core.SubscriptionStore,
	log logger.Logger, options ...DispatcherOption) (*Telegram, error) {

	poller := &tb.LongPoller{Timeout: 10 * time.Second}

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Telegram.Token,
		Poller:    createSenderMiddleware(poller, log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	dispatcher := NewDispatcher(settings, client, scanner, store, log, options...)

	if err := client.SetCommands(dispatcher.Commands()); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	for endpoint, handler := range dispatcher.Handlers() {
		client.Handle(endpoint, handler)
	}

	return &Telegram{
		Dispatcher: dispatcher,
		client:     client,
	}, nil
}

// createSenderMiddleware drops updates that carry no message sender
func createSenderMiddleware(poller tb.Poller, log logger.Logger) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.WithField("update", u.ID).Debug("message or sender is nil")
			return false
		}
		return true
	})
}

// Start begins polling and notifies all authorized users
func (t *Telegram) Start() {
	go t.client.Start()
	t.Notify("Bot initialized.")
}

// Stop ends polling
func (t *Telegram) Stop() {
	t.client.Stop()
}

var _ core.NotifierWithStart = (*Telegram)(nil)
