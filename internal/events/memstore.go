package events

import (
	"context"
	"sync"
)

// MemStore is an in-memory append-only event log. Good enough for a
// single-process deployment; the log is bounded to protect memory.
type MemStore struct {
	Cap int

	mu     sync.Mutex
	events []Event
}

// Append records an event, dropping the oldest entry when the cap is hit.
func (s *MemStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if s.Cap > 0 && len(s.events) > s.Cap {
		s.events = s.events[len(s.events)-s.Cap:]
	}
	return nil
}

// Recent returns up to n most recent events, newest last.
func (s *MemStore) Recent(n int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.events) {
		n = len(s.events)
	}
	out := make([]Event, n)
	copy(out, s.events[len(s.events)-n:])
	return out
}
