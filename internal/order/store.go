package order

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when an order id has no record.
var ErrNotFound = errors.New("order not found")

// Store keeps placed orders and their status feed in memory. Orders are
// immutable once saved; only the external status feed grows.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]Order
	byUser map[string][]string
	events map[string][]StatusEvent
}

// NewStore returns an empty order store.
func NewStore() *Store {
	return &Store{
		byID:   make(map[string]Order),
		byUser: make(map[string][]string),
		events: make(map[string][]StatusEvent),
	}
}

// Save records a placed order.
func (s *Store) Save(o Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[o.ID]; !exists {
		s.byUser[o.UserID] = append(s.byUser[o.UserID], o.ID)
	}
	s.byID[o.ID] = o
}

// Get returns an order by id with its feed-resolved status applied.
func (s *Store) Get(id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byID[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	o.Status = ResolveStatus(s.events[id], o.Status)
	return o, nil
}

// ListByUser returns a user's orders, most recent first, with feed-resolved
// statuses applied.
func (s *Store) ListByUser(userID string) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byUser[userID]
	orders := make([]Order, 0, len(ids))
	for _, id := range ids {
		o := s.byID[id]
		o.Status = ResolveStatus(s.events[id], o.Status)
		orders = append(orders, o)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].PlacedAt.After(orders[j].PlacedAt)
	})
	return orders
}

// AppendEvent ingests one status feed entry. The order need not exist yet;
// the feed is external and may race ahead of order persistence.
func (s *Store) AppendEvent(ev StatusEvent) error {
	if !ev.Status.Valid() {
		return errors.New("unknown status: " + string(ev.Status))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.OrderID] = append(s.events[ev.OrderID], ev)
	return nil
}

// Events returns the raw feed entries for an order in arrival order.
func (s *Store) Events(orderID string) []StatusEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	evs := s.events[orderID]
	out := make([]StatusEvent, len(evs))
	copy(out, evs)
	return out
}
