package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/raykavin/greenscan/pkg/core"
	"github.com/tidwall/buntdb"
)

const keyPrefix = "subscription:"

// BuntStorage implements core.SubscriptionStore using BuntDB
type BuntStorage struct {
	db  *buntdb.DB
	now func() time.Time
}

// FromMemory creates an in-memory storage
func FromMemory() (*BuntStorage, error) {
	return NewBuntStorage(":memory:")
}

// FromFile creates a file-based storage
func FromFile(file string) (*BuntStorage, error) {
	return NewBuntStorage(file)
}

// NewBuntStorage creates a new BuntDB storage instance
func NewBuntStorage(sourceFile string) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex("active_index", keyPrefix+"*", buntdb.IndexJSON("active"))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BuntStorage{
		db:  db,
		now: time.Now,
	}, nil
}

func key(chatID int64) string {
	return keyPrefix + strconv.FormatInt(chatID, 10)
}

func get(tx *buntdb.Tx, chatID int64) (core.Subscription, bool, error) {
	value, err := tx.Get(key(chatID))
	if errors.Is(err, buntdb.ErrNotFound) {
		return core.Subscription{ChatID: chatID}, false, nil
	}
	if err != nil {
		return core.Subscription{}, false, err
	}

	var subscription core.Subscription
	if err := json.Unmarshal([]byte(value), &subscription); err != nil {
		return core.Subscription{}, false, fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	return subscription, true, nil
}

func set(tx *buntdb.Tx, subscription core.Subscription) error {
	content, err := json.Marshal(subscription)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	if _, _, err = tx.Set(key(subscription.ChatID), string(content), nil); err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}

	return nil
}

// update applies change to the stored subscription of chatID, creating it when absent
func (b *BuntStorage) update(chatID int64, change func(*core.Subscription)) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		subscription, _, err := get(tx, chatID)
		if err != nil {
			return err
		}

		change(&subscription)
		return set(tx, subscription)
	})
}

// Subscribe activates scheduled notifications for chatID
func (b *BuntStorage) Subscribe(chatID int64, username string) error {
	return b.update(chatID, func(s *core.Subscription) {
		s.Active = true
		s.SubscribedAt = b.now()
		if username != "" {
			s.Username = username
		}
	})
}

// Unsubscribe stops scheduled notifications for chatID
func (b *BuntStorage) Unsubscribe(chatID int64) error {
	return b.update(chatID, func(s *core.Subscription) {
		s.Active = false
	})
}

// MarkNotified records the time of the last scheduled notification
func (b *BuntStorage) MarkNotified(chatID int64, at time.Time) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		subscription, found, err := get(tx, chatID)
		if err != nil {
			return err
		}

		if !found {
			subscription.Active = true
		}

		subscription.LastNotification = at
		return set(tx, subscription)
	})
}

// Subscription returns the stored subscription of chatID. found is false when
// the recipient never changed its subscription.
func (b *BuntStorage) Subscription(chatID int64) (subscription core.Subscription, found bool, err error) {
	err = b.db.View(func(tx *buntdb.Tx) error {
		subscription, found, err = get(tx, chatID)
		return err
	})
	return subscription, found, err
}

// IsActive reports whether chatID receives scheduled notifications.
// Recipients without a stored subscription are active.
func (b *BuntStorage) IsActive(chatID int64) (bool, error) {
	subscription, found, err := b.Subscription(chatID)
	if err != nil {
		return false, err
	}
	return !found || subscription.Active, nil
}

// Subscriptions returns every stored subscription
func (b *BuntStorage) Subscriptions() ([]core.Subscription, error) {
	subscriptions := make([]core.Subscription, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		var decodeErr error
		err := tx.Ascend("active_index", func(_, value string) bool {
			var subscription core.Subscription
			if decodeErr = json.Unmarshal([]byte(value), &subscription); decodeErr != nil {
				return false
			}
			subscriptions = append(subscriptions, subscription)
			return true
		})
		if err != nil {
			return fmt.Errorf("failed to iterate over subscriptions: %w", err)
		}
		return decodeErr
	})
	if err != nil {
		return nil, err
	}

	return subscriptions, nil
}

// Close closes the database connection
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
