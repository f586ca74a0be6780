package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kopikita/backend-kopi/internal/events"
	"github.com/kopikita/backend-kopi/internal/order"
)

// Notification is one entry of the in-app notification feed.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	DeepLink  string    `json:"deepLink,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Feed holds the notification list, seeded at startup and appended to by
// domain events. The feed is broadcast: every member sees the same list,
// with read state tracked per process.
type Feed struct {
	Now func() time.Time

	mu      sync.Mutex
	entries []Notification
}

// NewFeed builds a feed from the seeded notifications.
func NewFeed(seeded []Notification) *Feed {
	entries := make([]Notification, len(seeded))
	copy(entries, seeded)
	return &Feed{entries: entries}
}

func (f *Feed) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// List returns the notifications, newest first.
func (f *Feed) List() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.entries))
	copy(out, f.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Push appends a notification.
func (f *Feed) Push(n Notification) Notification {
	if n.ID == "" {
		n.ID = "n_" + uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = f.now()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, n)
	return n
}

// MarkRead flags a notification as read. Unknown ids are a silent no-op.
func (f *Feed) MarkRead(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].Read = true
			return
		}
	}
}

// EventNotifier converts domain events into feed notifications. It plugs
// into the event bus as a Notifier.
type EventNotifier struct {
	Feed *Feed
}

// Notify renders an event into a notification. Unknown topics are ignored.
func (n EventNotifier) Notify(_ context.Context, ev events.Event) error {
	if n.Feed == nil {
		return nil
	}
	switch ev.Topic {
	case events.TopicOrderCreated:
		var payload struct {
			OrderID    string `json:"orderId"`
			EtaMinutes int    `json:"etaMinutes"`
		}
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return fmt.Errorf("notify: decode %s payload: %w", ev.Topic, err)
		}
		n.Feed.Push(Notification{
			Title:     "Order placed",
			Body:      fmt.Sprintf("We're on it. Your order will be ready in about %d minutes.", payload.EtaMinutes),
			DeepLink:  "kopikita://order/" + payload.OrderID,
			CreatedAt: ev.OccurredAt,
		})
	case events.TopicOrderStatusChanged:
		var payload struct {
			OrderID string `json:"orderId"`
			Status  string `json:"status"`
		}
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return fmt.Errorf("notify: decode %s payload: %w", ev.Topic, err)
		}
		n.Feed.Push(Notification{
			Title:     statusTitle(order.Status(payload.Status)),
			Body:      fmt.Sprintf("Order %s is now %s.", payload.OrderID, payload.Status),
			DeepLink:  "kopikita://orderStatus/" + payload.OrderID,
			CreatedAt: ev.OccurredAt,
		})
	}
	return nil
}

func statusTitle(s order.Status) string {
	switch s {
	case order.StatusPreparing:
		return "Your order is being prepared"
	case order.StatusReady:
		return "Your order is ready"
	case order.StatusCompleted:
		return "Order completed"
	default:
		return "Order update"
	}
}
