package core

import "time"

// Subscription tracks whether an authorized recipient receives scheduled scans
type Subscription struct {
	ChatID           int64     `json:"chat_id"`
	Username         string    `json:"username"`
	Active           bool      `json:"active"`
	SubscribedAt     time.Time `json:"subscribed_at"`
	LastNotification time.Time `json:"last_notification"`
}

// SubscriptionStore persists recipient subscriptions
type SubscriptionStore interface {
	Subscribe(chatID int64, username string) error
	Unsubscribe(chatID int64) error
	IsActive(chatID int64) (bool, error)
	MarkNotified(chatID int64, at time.Time) error
}
