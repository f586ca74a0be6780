package ratings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kopikita/backend-kopi/internal/common"
	"github.com/kopikita/backend-kopi/internal/kv"
	"github.com/kopikita/backend-kopi/internal/order"
)

// Rating is a member's score for a completed order.
type Rating struct {
	OrderID   string    `json:"orderId"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrNotRated is returned when an order has no rating yet.
var ErrNotRated = errors.New("order not rated")

// Service stores one rating per order in the key-value store. Only
// completed orders can be rated; scores clamp into 1..5.
type Service struct {
	Store  kv.Store
	Orders *order.Store
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func key(orderID string) string { return "rating:" + orderID }

// Rate records the member's score for their completed order. Re-rating
// overwrites the previous score.
func (s *Service) Rate(ctx context.Context, userID, orderID string, score int, comment string) (Rating, error) {
	if s == nil || s.Store == nil || s.Orders == nil {
		return Rating{}, errors.New("ratings service not configured")
	}
	o, err := s.Orders.Get(orderID)
	if err != nil || o.UserID != userID {
		return Rating{}, common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, err)
	}
	if o.Status != order.StatusCompleted {
		return Rating{}, common.NewAppError("ORDER_NOT_COMPLETED", "only completed orders can be rated", http.StatusUnprocessableEntity, nil)
	}
	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	rating := Rating{
		OrderID:   orderID,
		Score:     score,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: s.now(),
	}
	raw, err := json.Marshal(rating)
	if err != nil {
		return Rating{}, fmt.Errorf("encode rating: %w", err)
	}
	if err := s.Store.Set(ctx, key(orderID), raw); err != nil {
		return Rating{}, fmt.Errorf("save rating: %w", err)
	}
	return rating, nil
}

// Get returns the member's rating for their order.
func (s *Service) Get(ctx context.Context, userID, orderID string) (Rating, error) {
	if s == nil || s.Store == nil || s.Orders == nil {
		return Rating{}, errors.New("ratings service not configured")
	}
	o, err := s.Orders.Get(orderID)
	if err != nil || o.UserID != userID {
		return Rating{}, common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, err)
	}
	raw, ok, err := s.Store.Get(ctx, key(orderID))
	if err != nil {
		return Rating{}, fmt.Errorf("load rating: %w", err)
	}
	if !ok {
		return Rating{}, ErrNotRated
	}
	var rating Rating
	if err := json.Unmarshal(raw, &rating); err != nil {
		return Rating{}, fmt.Errorf("decode rating: %w", err)
	}
	return rating, nil
}
