package rewards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kopikita/backend-kopi/internal/kv"
)

// TransactionType discriminates ledger entries.
type TransactionType string

const (
	TransactionEarn   TransactionType = "earn"
	TransactionRedeem TransactionType = "redeem"
)

// Transaction is one signed entry in a member's points ledger.
type Transaction struct {
	ID      string          `json:"id"`
	Type    TransactionType `json:"type"`
	Date    time.Time       `json:"date"`
	OrderID string          `json:"orderId,omitempty"`
	Amount  float64         `json:"amount,omitempty"`
	Points  int             `json:"points"`
}

// Service keeps per-member reward ledgers in the key-value store and derives
// balances and tiers from them.
type Service struct {
	Store kv.Store
	Rules []Rule
	Policy
	// SeedPoints returns the starting balance for a member, typically from
	// the seeded user record.
	SeedPoints func(userID string) int
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func ledgerKey(userID string) string {
	return "rewards:ledger:" + userID
}

func (s *Service) load(ctx context.Context, userID string) ([]Transaction, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("rewards service not configured")
	}
	raw, ok, err := s.Store.Get(ctx, ledgerKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load rewards ledger: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var entries []Transaction
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode rewards ledger: %w", err)
	}
	return entries, nil
}

func (s *Service) save(ctx context.Context, userID string, entries []Transaction) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode rewards ledger: %w", err)
	}
	return s.Store.Set(ctx, ledgerKey(userID), raw)
}

// Balance derives the member's current point balance: seed points plus the
// signed sum of ledger entries. Redeem entries count negative.
func (s *Service) Balance(ctx context.Context, userID string) (int, error) {
	entries, err := s.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	balance := 0
	if s.SeedPoints != nil {
		balance = s.SeedPoints(userID)
	}
	for _, entry := range entries {
		switch entry.Type {
		case TransactionRedeem:
			balance -= abs(entry.Points)
		default:
			balance += entry.Points
		}
	}
	if balance < 0 {
		balance = 0
	}
	return balance, nil
}

// Activity returns the member's ledger, newest first.
func (s *Service) Activity(ctx context.Context, userID string) ([]Transaction, error) {
	entries, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries, nil
}

// RecordEarn appends an earn entry for an order's spend and returns the
// points granted under the rule in effect now.
func (s *Service) RecordEarn(ctx context.Context, userID, orderID string, amount float64) (int, error) {
	if amount <= 0 {
		return 0, nil
	}
	now := s.now()
	points := PointsForSpend(amount, s.Rules, now)
	if points <= 0 {
		return 0, nil
	}
	entries, err := s.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	entries = append(entries, Transaction{
		ID:      "rt_" + uuid.NewString(),
		Type:    TransactionEarn,
		Date:    now,
		OrderID: orderID,
		Amount:  amount,
		Points:  points,
	})
	if err := s.save(ctx, userID, entries); err != nil {
		return 0, err
	}
	return points, nil
}

// RecordRedeem appends a redeem entry. The caller is responsible for having
// clamped points to the member's balance beforehand.
func (s *Service) RecordRedeem(ctx context.Context, userID, orderID string, points int) error {
	if points <= 0 {
		return nil
	}
	entries, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	entries = append(entries, Transaction{
		ID:      "rt_" + uuid.NewString(),
		Type:    TransactionRedeem,
		Date:    s.now(),
		OrderID: orderID,
		Points:  points,
	})
	return s.save(ctx, userID, entries)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
