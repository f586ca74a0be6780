package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kopikita/backend-kopi/internal/cart"
	"github.com/kopikita/backend-kopi/internal/catalog"
	"github.com/kopikita/backend-kopi/internal/events"
	"github.com/kopikita/backend-kopi/internal/lock"
	"github.com/kopikita/backend-kopi/internal/obs"
	"github.com/kopikita/backend-kopi/internal/order"
	"github.com/kopikita/backend-kopi/internal/rewards"
)

var (
	// ErrFulfillmentUnavailable means the store does not offer the chosen
	// fulfillment type.
	ErrFulfillmentUnavailable = errors.New("fulfillment type not available at this store")
	// ErrInvalidSlot means the requested pickup time is not a scheduable slot.
	ErrInvalidSlot = errors.New("pickup slot not available")
	// ErrUnknownPayment means the payment method id is not on file.
	ErrUnknownPayment = errors.New("payment method not found")
)

// Input is a checkout request for an existing cart.
type Input struct {
	CartID          string                `json:"cartId"`
	FulfillmentType order.FulfillmentType `json:"fulfillmentType"`
	// ScheduledAt is an "HH:MM" pickup slot; empty means as soon as possible.
	ScheduledAt     string `json:"scheduledAt"`
	PaymentMethodID string `json:"paymentMethodId"`
}

// Output is the placed order plus the loyalty points it earned.
type Output struct {
	Order        order.Order `json:"order"`
	PointsEarned int         `json:"pointsEarned"`
}

// Service turns a cart into an order: it validates the fulfillment choices,
// freezes the ledger totals, records the loyalty movements, clears the
// cart, and announces the order.
type Service struct {
	Carts   *cart.Store
	Catalog *catalog.Service
	Orders  *order.Store
	Factory order.Factory
	Rewards *rewards.Service
	Events  *events.Bus
	Slots   SlotConfig
	// Lock serializes checkouts of the same cart across instances. A zero
	// value runs unlocked.
	Lock lock.Locker
	Log  zerolog.Logger
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create places an order from the user's cart.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Output, error) {
	if s == nil || s.Carts == nil || s.Catalog == nil || s.Orders == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	var out Output
	err := s.Lock.WithLock(ctx, "checkout:"+in.CartID, 10*time.Second, func(ctx context.Context) error {
		var err error
		out, err = s.create(ctx, userID, in)
		return err
	})
	return out, err
}

func (s *Service) create(ctx context.Context, userID string, in Input) (Output, error) {
	started := time.Now()
	ledger, err := s.Carts.Get(in.CartID)
	if err != nil || ledger.UserID() != userID {
		return Output{}, cart.ErrCartNotFound
	}

	store, err := s.Catalog.Store(ledger.StoreID())
	if err != nil {
		return Output{}, fmt.Errorf("checkout: load store: %w", err)
	}
	if !in.FulfillmentType.Valid() {
		return Output{}, ErrFulfillmentUnavailable
	}
	if in.FulfillmentType == order.FulfillmentPickup && !store.IsPickupEnabled {
		return Output{}, ErrFulfillmentUnavailable
	}
	if in.FulfillmentType == order.FulfillmentDelivery && !store.IsDeliveryEnabled {
		return Output{}, ErrFulfillmentUnavailable
	}
	if in.ScheduledAt != "" && in.FulfillmentType == order.FulfillmentPickup {
		if !slotAvailable(PickupSlots(store.Hours, s.now(), s.Slots), in.ScheduledAt) {
			return Output{}, ErrInvalidSlot
		}
	}
	if in.PaymentMethodID != "" {
		if _, err := s.Catalog.PaymentMethod(in.PaymentMethodID); err != nil {
			return Output{}, ErrUnknownPayment
		}
	}

	snap := ledger.Snapshot()
	items := make([]order.Item, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		items = append(items, order.Item{
			ID:        line.ID,
			ItemID:    line.ItemID,
			Name:      line.Name,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice,
			Customizations: order.Customizations{
				SizeLabel:   line.Customizations.SizeLabel,
				SugarLabel:  line.Customizations.SugarLabel,
				AddOnLabels: line.Customizations.AddOnLabels,
			},
			Notes: line.Notes,
		})
	}

	placed, err := s.Factory.Create(order.Input{
		UserID:          userID,
		StoreID:         ledger.StoreID(),
		Items:           items,
		Total:           snap.Totals.Total,
		FulfillmentType: in.FulfillmentType,
		ScheduledAt:     in.ScheduledAt,
	})
	if err != nil {
		return Output{}, err
	}

	s.Orders.Save(placed)
	ledger.Clear()

	// The order is committed; loyalty movements and event fan-out are
	// best-effort from here so a storage hiccup never strands deducted
	// points without an order.
	if s.Rewards != nil && snap.Totals.RedeemedPoints > 0 {
		if err := s.Rewards.RecordRedeem(ctx, userID, placed.ID, snap.Totals.RedeemedPoints); err != nil {
			s.Log.Warn().Err(err).Str("order_id", placed.ID).Msg("record redeem failed")
		} else if s.Events != nil {
			if _, err := s.Events.Emit(ctx, events.TopicPointsRedeemed, placed.ID, map[string]any{
				"orderId": placed.ID,
				"userId":  userID,
				"points":  snap.Totals.RedeemedPoints,
			}); err != nil {
				s.Log.Warn().Err(err).Str("order_id", placed.ID).Msg("points redeemed fan-out failed")
			}
		}
	}
	earned := 0
	if s.Rewards != nil {
		earned, err = s.Rewards.RecordEarn(ctx, userID, placed.ID, placed.Total)
		if err != nil {
			s.Log.Warn().Err(err).Str("order_id", placed.ID).Msg("record earn failed")
			earned = 0
		}
	}

	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicOrderCreated, placed.ID, map[string]any{
			"orderId":    placed.ID,
			"userId":     userID,
			"storeId":    placed.StoreID,
			"total":      placed.Total,
			"etaMinutes": placed.EtaMinutes,
		}); err != nil {
			// the order is already placed; fan-out failures are log-only
			s.Log.Warn().Err(err).Str("order_id", placed.ID).Msg("order.created fan-out failed")
		}
	}

	if obs.OrdersPlacedTotal != nil {
		obs.OrdersPlacedTotal.WithLabelValues(string(placed.FulfillmentType)).Inc()
	}
	if obs.PointsRedeemedTotal != nil && snap.Totals.RedeemedPoints > 0 {
		obs.PointsRedeemedTotal.Add(float64(snap.Totals.RedeemedPoints))
	}
	if obs.PointsEarnedTotal != nil && earned > 0 {
		obs.PointsEarnedTotal.Add(float64(earned))
	}
	if obs.CheckoutDuration != nil {
		obs.CheckoutDuration.Observe(obs.DurationMillis(time.Since(started)))
	}

	return Output{Order: placed, PointsEarned: earned}, nil
}

func slotAvailable(slots []string, want string) bool {
	for _, s := range slots {
		if s == want {
			return true
		}
	}
	return false
}
