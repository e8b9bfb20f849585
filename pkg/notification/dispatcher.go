// Package notification exposes scans over Telegram commands and scheduled pushes
package notification

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/greenscan/pkg/core"
	"github.com/raykavin/greenscan/pkg/logger"
	"github.com/raykavin/greenscan/pkg/report"
	"github.com/raykavin/greenscan/pkg/scanner"
	"github.com/samber/lo"
	tb "gopkg.in/tucnak/telebot.v2"
)

const (
	deniedText = "⛔ You are not authorized to use this bot."
	usageText  = "Usage: `/scan [days]`, e.g. `/scan 30`"
)

const helpText = "Available commands:\n\n" +
	"`/scan [days]` - Scan the market now, optionally with a custom lookback\n" +
	"/settings - Show current settings\n" +
	"/subscribe - Subscribe to daily notifications\n" +
	"/unsubscribe - Unsubscribe from notifications\n" +
	"/help - Show this help message"

// Sender delivers messages to a recipient, *tb.Bot satisfies it
type Sender interface {
	Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error)
}

// SignalScanner runs one market scan
type SignalScanner interface {
	Scan(ctx context.Context, params scanner.Params) ([]core.Signal, error)
}

// Dispatcher answers bot commands and pushes scheduled scan results to
// authorized recipients
type Dispatcher struct {
	settings core.Settings
	sender   Sender
	scanner  SignalScanner
	store    core.SubscriptionStore
	log      logger.Logger
	ctx      context.Context
	now      func() time.Time
}

// DispatcherOption is a function that configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithContext sets the context of the scans started by commands
func WithContext(ctx context.Context) DispatcherOption {
	return func(d *Dispatcher) {
		d.ctx = ctx
	}
}

// WithClock replaces the time source used for message headers
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher creates a dispatcher. settings is copied and never modified.
func NewDispatcher(settings core.Settings, sender Sender, scanner SignalScanner,
	store core.SubscriptionStore, log logger.Logger, options ...DispatcherOption) *Dispatcher {

	settings.Telegram.Users = append([]int64(nil), settings.Telegram.Users...)
	settings.Schedule = append([]string(nil), settings.Schedule...)

	d := &Dispatcher{
		settings: settings,
		sender:   sender,
		scanner:  scanner,
		store:    store,
		log:      log,
		ctx:      context.Background(),
		now:      time.Now,
	}

	for _, option := range options {
		option(d)
	}

	return d
}

// Commands returns the bot command list
func (d *Dispatcher) Commands() []tb.Command {
	return []tb.Command{
		{Text: "/scan", Description: "Scan the market now"},
		{Text: "/settings", Description: "Show current settings"},
		{Text: "/subscribe", Description: "Subscribe to daily notifications"},
		{Text: "/unsubscribe", Description: "Unsubscribe from notifications"},
		{Text: "/help", Description: "Display help instructions"},
	}
}

// Handlers returns every command handler keyed by endpoint, each one guarded
// by the allow-list
func (d *Dispatcher) Handlers() map[string]func(*tb.Message) {
	return map[string]func(*tb.Message){
		"/start":       d.authorized(d.StartHandle),
		"/help":        d.authorized(d.HelpHandle),
		"/scan":        d.authorized(d.ScanHandle),
		"/settings":    d.authorized(d.SettingsHandle),
		"/subscribe":   d.authorized(d.SubscribeHandle),
		"/unsubscribe": d.authorized(d.UnsubscribeHandle),
	}
}

// IsAuthorized reports whether id belongs to the allow-list
func (d *Dispatcher) IsAuthorized(id int64) bool {
	return lo.Contains(d.settings.Telegram.Users, id)
}

func (d *Dispatcher) authorized(handler func(*tb.Message)) func(*tb.Message) {
	return func(m *tb.Message) {
		if m == nil || m.Sender == nil {
			return
		}

		if !d.IsAuthorized(m.Sender.ID) {
			d.log.WithField("user", m.Sender.ID).Warn("unauthorized user")
			d.sendMessage(replyTo(m), deniedText)
			return
		}

		handler(m)
	}
}

// replyTo returns the chat the command came from, falling back to the sender
func replyTo(m *tb.Message) tb.Recipient {
	if m.Chat != nil {
		return m.Chat
	}
	return m.Sender
}

// sendMessage sends a message to a specific recipient
func (d *Dispatcher) sendMessage(to tb.Recipient, text string, options ...interface{}) bool {
	if _, err := d.sender.Send(to, text, options...); err != nil {
		d.log.WithError(err).WithField("recipient", to.Recipient()).Error("failed to send message")
		return false
	}
	return true
}

// StartHandle greets the user and subscribes it to scheduled scans
func (d *Dispatcher) StartHandle(m *tb.Message) {
	if err := d.store.Subscribe(m.Sender.ID, m.Sender.Username); err != nil {
		d.log.WithError(err).WithField("user", m.Sender.ID).Error("failed to subscribe")
	}

	d.sendMessage(replyTo(m), fmt.Sprintf(
		"🤖 Welcome to the two green candles scanner!\n\n"+
			"Every day at %s UTC the bot scans all %s pairs for two consecutive green candles "+
			"closing above the MA%d and sends you the results.\n\n"+
			"Use /help to see available commands.",
		d.scheduleText(), d.settings.Scan.Quote, d.settings.Scan.Window,
	))
}

// HelpHandle displays available commands
func (d *Dispatcher) HelpHandle(m *tb.Message) {
	d.sendMessage(replyTo(m), helpText)
}

// SettingsHandle shows the read-only scan configuration
func (d *Dispatcher) SettingsHandle(m *tb.Message) {
	status := "Subscribed"
	active, err := d.store.IsActive(m.Sender.ID)
	switch {
	case err != nil:
		d.log.WithError(err).WithField("user", m.Sender.ID).Error("failed to read subscription")
		status = "Unknown"
	case !active:
		status = "Unsubscribed"
	}

	d.sendMessage(replyTo(m), fmt.Sprintf(
		"⚙️ Current settings:\n"+
			"Moving average: `MA%d`\n"+
			"Lookback: `%d` days\n"+
			"Quote currency: `%s`\n"+
			"Timeframe: `%s`\n"+
			"Scheduled scans (UTC): `%s`\n"+
			"Status: %s",
		d.settings.Scan.Window, d.settings.Scan.Days, d.settings.Scan.Quote,
		d.settings.Scan.Timeframe, d.scheduleText(), status,
	))
}

// SubscribeHandle enables scheduled scans for the user
func (d *Dispatcher) SubscribeHandle(m *tb.Message) {
	if err := d.store.Subscribe(m.Sender.ID, m.Sender.Username); err != nil {
		d.log.WithError(err).WithField("user", m.Sender.ID).Error("failed to subscribe")
		d.sendMessage(replyTo(m), "❌ Failed to subscribe. Please try again later.")
		return
	}

	d.sendMessage(replyTo(m), "✅ Successfully subscribed to notifications!")
}

// UnsubscribeHandle disables scheduled scans for the user
func (d *Dispatcher) UnsubscribeHandle(m *tb.Message) {
	if err := d.store.Unsubscribe(m.Sender.ID); err != nil {
		d.log.WithError(err).WithField("user", m.Sender.ID).Error("failed to unsubscribe")
		d.sendMessage(replyTo(m), "❌ Failed to unsubscribe. Please try again later.")
		return
	}

	d.sendMessage(replyTo(m), "✅ Successfully unsubscribed from notifications.")
}

// ScanHandle runs a scan with the optional lookback argument and replies with the result
func (d *Dispatcher) ScanHandle(m *tb.Message) {
	days, usage := d.parseDays(m.Payload)
	if usage != "" {
		d.sendMessage(replyTo(m), usage)
		return
	}

	log := d.log.WithFields(map[string]any{"user": m.Sender.ID, "days": days})
	log.Info("scan requested")

	signals, err := d.scanner.Scan(d.ctx, d.params(days))
	if err != nil {
		log.WithError(err).Error("scan failed")
		d.sendMessage(replyTo(m), errorText("❌ Scan failed", err))
		return
	}

	d.deliver(replyTo(m), signals)
}

// parseDays validates the /scan argument, returning a usage reply when it is rejected
func (d *Dispatcher) parseDays(payload string) (int, string) {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return d.settings.Scan.Days, ""
	}

	days, err := strconv.Atoi(fields[0])
	if err != nil || days <= 0 || len(fields) > 1 {
		return 0, "Please provide a positive whole number of days.\n" + usageText
	}

	if minDays := d.settings.Scan.MinDays(); days < minDays {
		return 0, fmt.Sprintf("At least %d days are required for the MA%d.\n%s",
			minDays, d.settings.Scan.Window, usageText)
	}

	return days, ""
}

func (d *Dispatcher) params(days int) scanner.Params {
	return scanner.Params{
		Days:      days,
		Window:    d.settings.Scan.Window,
		Quote:     d.settings.Scan.Quote,
		Timeframe: d.settings.Scan.Timeframe,
	}
}

// deliver sends the formatted signals, split on Telegram's message limit
func (d *Dispatcher) deliver(to tb.Recipient, signals []core.Signal) bool {
	messages := report.Messages(signals, report.Options{
		Window:     d.settings.Scan.Window,
		MaxResults: d.settings.Scan.MaxResults,
		At:         d.now().UTC(),
	})

	for _, message := range messages {
		if !d.sendMessage(to, message) {
			return false
		}
	}
	return true
}

// Broadcast runs a scan with the default parameters and pushes the result to
// every authorized recipient with an active subscription
func (d *Dispatcher) Broadcast(ctx context.Context) error {
	recipients := make([]int64, 0, len(d.settings.Telegram.Users))
	for _, id := range d.settings.Telegram.Users {
		active, err := d.store.IsActive(id)
		if err != nil {
			d.log.WithError(err).WithField("user", id).Error("failed to read subscription")
			continue
		}
		if active {
			recipients = append(recipients, id)
		}
	}

	if len(recipients) == 0 {
		d.log.Info("no active subscribers, scheduled scan skipped")
		return nil
	}

	signals, err := d.scanner.Scan(ctx, d.params(d.settings.Scan.Days))
	if err != nil {
		d.log.WithError(err).Error("scheduled scan failed")
		for _, id := range recipients {
			d.sendMessage(&tb.User{ID: id}, errorText("❌ Error during scheduled scan", err))
		}
		return fmt.Errorf("scheduled scan: %w", err)
	}

	d.log.WithFields(map[string]any{
		"signals":    len(signals),
		"recipients": len(recipients),
	}).Info("delivering scheduled scan")

	for _, id := range recipients {
		if !d.deliver(&tb.User{ID: id}, signals) {
			continue
		}
		if err := d.store.MarkNotified(id, d.now().UTC()); err != nil {
			d.log.WithError(err).WithField("user", id).Error("failed to record notification")
		}
	}

	return nil
}

// Notify sends a message to all authorized users
func (d *Dispatcher) Notify(text string) {
	for _, id := range d.settings.Telegram.Users {
		d.sendMessage(&tb.User{ID: id}, text)
	}
}

// OnError notifies users about errors
func (d *Dispatcher) OnError(err error) {
	d.Notify(errorText("🛑 ERROR", err))
}

func (d *Dispatcher) scheduleText() string {
	if len(d.settings.Schedule) == 0 {
		return "never"
	}
	return strings.Join(d.settings.Schedule, ", ")
}

// errorText places the error inside a code span so Markdown in it is not parsed
func errorText(title string, err error) string {
	return fmt.Sprintf("%s\n-----\n`%s`", title, strings.ReplaceAll(err.Error(), "`", "'"))
}
