// Package notify maintains the bounded cache of recent console
// notifications, persisted through an injected key-value capability.
package notify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hervehildenbrand/waf-console/pkg/models"
)

const (
	notificationsKey = "waf:notifications"
	clearedKey       = "waf:notifications:cleared"

	// capacity bounds the store; the oldest entry is evicted on overflow.
	capacity = 10
)

// Store is a bounded, ordered cache of recent notifications with
// read/unread state. The most recent entry is always at index 0. All
// mutations persist immediately through the backing KeyValueStore and are
// broadcast over the ChangeSignal so other consumers can reload.
type Store struct {
	kv     KeyValueStore
	signal ChangeSignal
	id     string

	mu            sync.Mutex
	notifications []models.Notification
	unread        int
}

// NewStore loads persisted notifications from kv. Unreadable persisted
// data is discarded and the store resets to empty. On first run (no data
// and no cleared marker) the store seeds a small set of illustrative
// entries. Changes made by other consumers of the same backing store
// trigger a reload.
func NewStore(ctx context.Context, kv KeyValueStore, signal ChangeSignal) *Store {
	s := &Store{
		kv:     kv,
		signal: signal,
		id:     newStoreID(),
	}
	s.load(ctx, true)

	signal.Subscribe(ctx, func(origin string) {
		if origin == s.id {
			return
		}
		// Reload skips seeding: an external change means the data exists.
		s.load(context.Background(), false)
	})
	return s
}

// Add inserts a notification at the front, evicting the oldest entry when
// the store is at capacity.
func (s *Store) Add(ctx context.Context, n models.Notification) {
	s.mu.Lock()
	s.notifications = append([]models.Notification{n}, s.notifications...)
	if len(s.notifications) > capacity {
		s.notifications = s.notifications[:capacity]
	}
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.broadcast(ctx)
}

// MarkRead marks a single notification as read.
func (s *Store) MarkRead(ctx context.Context, id string) {
	s.mu.Lock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			break
		}
	}
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.broadcast(ctx)
}

// MarkAllRead marks every notification as read. Idempotent.
func (s *Store) MarkAllRead(ctx context.Context) {
	s.mu.Lock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.broadcast(ctx)
}

// Clear empties the store and sets the cleared marker so that seeding is
// not repeated on the next load.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.notifications = nil
	s.unread = 0
	if err := s.kv.Remove(ctx, notificationsKey); err != nil {
		log.Printf("[notify] remove failed: %v", err)
	}
	if err := s.kv.Set(ctx, clearedKey, "1"); err != nil {
		log.Printf("[notify] set cleared marker failed: %v", err)
	}
	s.mu.Unlock()
	s.broadcast(ctx)
}

// Notifications returns a copy of the current entries, newest first.
func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

func (s *Store) load(ctx context.Context, seed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(ctx, notificationsKey)
	if err != nil {
		log.Printf("[notify] load failed: %v", err)
		return
	}

	if raw == "" {
		cleared, err := s.kv.Get(ctx, clearedKey)
		if err != nil {
			log.Printf("[notify] load cleared marker failed: %v", err)
		}
		s.notifications = nil
		if seed && cleared == "" {
			s.notifications = seedNotifications()
			s.persistLocked(ctx)
		}
		s.recountLocked()
		return
	}

	var loaded []models.Notification
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		// Corrupt persisted data: discard and reset to a valid empty state.
		log.Printf("[notify] corrupt persisted data, resetting: %v", err)
		if err := s.kv.Remove(ctx, notificationsKey); err != nil {
			log.Printf("[notify] remove failed: %v", err)
		}
		s.notifications = nil
		s.recountLocked()
		return
	}

	s.notifications = loaded
	s.recountLocked()
}

func (s *Store) persistLocked(ctx context.Context) {
	data, err := json.Marshal(s.notifications)
	if err != nil {
		log.Printf("[notify] marshal failed: %v", err)
		return
	}
	if err := s.kv.Set(ctx, notificationsKey, string(data)); err != nil {
		log.Printf("[notify] persist failed: %v", err)
	}
	s.recountLocked()
}

func (s *Store) recountLocked() {
	unread := 0
	for _, n := range s.notifications {
		if !n.Read {
			unread++
		}
	}
	s.unread = unread
}

func (s *Store) broadcast(ctx context.Context) {
	if err := s.signal.Notify(ctx, s.id); err != nil {
		log.Printf("[notify] change broadcast failed: %v", err)
	}
}

// FromEvent builds the notification for a high-severity event.
func FromEvent(e models.Event) models.Notification {
	typ := models.NotifyInfo
	title := "Security event"
	switch {
	case e.Severity == models.SeverityCritical:
		typ = models.NotifyCritical
		title = "Critical security event"
	case e.Blocked:
		typ = models.NotifyBlocked
		title = "Request blocked"
	case e.IsAttack():
		typ = models.NotifyAttack
		title = "Attack detected"
	}

	message := fmt.Sprintf("Event from %s", e.SourceAddress)
	if e.IsAttack() {
		message = fmt.Sprintf("%s attack from %s", e.AttackType, e.SourceAddress)
	}
	if e.Blocked {
		message += " (blocked)"
	}

	return models.Notification{
		ID:        "n-" + e.ID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Timestamp: e.Timestamp,
		EventID:   e.ID,
	}
}

func seedNotifications() []models.Notification {
	now := time.Now()
	return []models.Notification{
		{
			ID:        "seed-1",
			Type:      models.NotifyCritical,
			Title:     "Critical attack blocked",
			Message:   "SQL injection attempt from 198.51.100.23 was blocked",
			Timestamp: now,
		},
		{
			ID:        "seed-2",
			Type:      models.NotifyBlocked,
			Title:     "Scanner activity",
			Message:   "Repeated probing from 203.0.113.7 exceeded rate limits",
			Timestamp: now.Add(-5 * time.Minute),
		},
		{
			ID:        "seed-3",
			Type:      models.NotifyInfo,
			Title:     "Console connected",
			Message:   "Critical security events will appear here",
			Timestamp: now.Add(-10 * time.Minute),
			Read:      true,
		},
	}
}

func newStoreID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("store-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
