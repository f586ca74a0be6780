package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kopikita/backend-kopi/internal/obs"
	"github.com/kopikita/backend-kopi/internal/pricing"
	"github.com/kopikita/backend-kopi/internal/rewards"
)

// ErrCartNotFound is returned for unknown or expired cart ids.
var ErrCartNotFound = errors.New("cart not found")

const defaultIdleTTL = 2 * time.Hour

// Store is the session registry mapping cart ids to live ledgers. Carts
// idle past the TTL are evicted by the janitor; cart state is memory only
// and does not survive a restart.
type Store struct {
	Schedule pricing.Schedule
	Policy   rewards.Policy
	IdleTTL  time.Duration
	Now      func() time.Time

	mu      sync.Mutex
	carts   map[string]*Ledger
	touched map[string]time.Time
}

// NewStore builds a cart registry with the given pricing configuration.
func NewStore(schedule pricing.Schedule, policy rewards.Policy, idleTTL time.Duration) *Store {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &Store{
		Schedule: schedule,
		Policy:   policy,
		IdleTTL:  idleTTL,
		carts:    make(map[string]*Ledger),
		touched:  make(map[string]time.Time),
	}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create opens a new cart for a user at a store.
func (s *Store) Create(userID, storeID string) *Ledger {
	id := "cart_" + uuid.NewString()
	ledger := NewLedger(id, userID, storeID, s.Schedule, s.Policy, s.Now)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[id] = ledger
	s.touched[id] = s.now()
	return ledger
}

// Get returns a live cart and refreshes its idle timer.
func (s *Store) Get(id string) (*Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger, ok := s.carts[id]
	if !ok {
		return nil, ErrCartNotFound
	}
	s.touched[id] = s.now()
	return ledger, nil
}

// Delete drops a cart immediately.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
	delete(s.touched, id)
}

// Sweep evicts carts idle past the TTL and returns how many were dropped.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.IdleTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, last := range s.touched {
		if last.Before(cutoff) {
			delete(s.carts, id)
			delete(s.touched, id)
			evicted++
		}
	}
	return evicted
}

// Janitor sweeps on an interval until the context is cancelled.
func (s *Store) Janitor(ctx context.Context, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				if obs.CartsSweptTotal != nil {
					obs.CartsSweptTotal.Add(float64(n))
				}
				log.Debug().Int("evicted", n).Msg("cart janitor sweep")
			}
		}
	}
}
