package order

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyCart is returned when checkout is attempted with no line items.
var ErrEmptyCart = errors.New("cart is empty")

const (
	defaultPickupBaseMinutes   = 20
	defaultDeliveryBaseMinutes = 35
	defaultEtaPerItemMinutes   = 2
	defaultEtaIncrementCap     = 12
)

// Factory turns finalized cart snapshots into immutable orders.
type Factory struct {
	PickupBaseMinutes   int
	DeliveryBaseMinutes int
	EtaPerItemMinutes   int
	EtaIncrementCap     int
	Now                 func() time.Time
}

func (f Factory) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Input is a finalized cart snapshot plus fulfillment choices.
type Input struct {
	UserID          string
	StoreID         string
	Items           []Item
	Total           float64
	FulfillmentType FulfillmentType
	ScheduledAt     string
}

// Create produces an order from the snapshot. The only failure mode is an
// empty item list. Items are deep-copied so the order never aliases the
// live cart; the caller still owns clearing the source ledger.
func (f Factory) Create(in Input) (Order, error) {
	if len(in.Items) == 0 {
		return Order{}, ErrEmptyCart
	}
	now := f.now()
	items := make([]Item, 0, len(in.Items))
	for _, it := range in.Items {
		copied := it
		copied.Customizations.AddOnLabels = append([]string(nil), it.Customizations.AddOnLabels...)
		items = append(items, copied)
	}
	return Order{
		ID:              f.newID(now),
		UserID:          in.UserID,
		StoreID:         in.StoreID,
		Items:           items,
		Status:          StatusReceived,
		Total:           in.Total,
		EtaMinutes:      f.eta(in.FulfillmentType, len(items)),
		FulfillmentType: in.FulfillmentType,
		PlacedAt:        now,
		ScheduledAt:     in.ScheduledAt,
	}, nil
}

// eta is a fulfillment-type base plus an increment per item beyond the
// first, capped.
func (f Factory) eta(fulfillment FulfillmentType, itemCount int) int {
	base := f.PickupBaseMinutes
	if base <= 0 {
		base = defaultPickupBaseMinutes
	}
	if fulfillment == FulfillmentDelivery {
		base = f.DeliveryBaseMinutes
		if base <= 0 {
			base = defaultDeliveryBaseMinutes
		}
	}
	perItem := f.EtaPerItemMinutes
	if perItem <= 0 {
		perItem = defaultEtaPerItemMinutes
	}
	maxIncrement := f.EtaIncrementCap
	if maxIncrement <= 0 {
		maxIncrement = defaultEtaIncrementCap
	}
	increment := (itemCount - 1) * perItem
	if increment < 0 {
		increment = 0
	}
	if increment > maxIncrement {
		increment = maxIncrement
	}
	return base + increment
}

// newID generates an identifier unique with overwhelming probability:
// base36 millis plus a random suffix.
func (f Factory) newID(now time.Time) string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		// fall back to the nanosecond clock; collisions stay negligible
		return "ord_" + strconv.FormatInt(now.UnixNano(), 36)
	}
	return strings.Join([]string{
		"ord",
		strconv.FormatInt(now.UnixMilli(), 36),
		hex.EncodeToString(suffix),
	}, "_")
}
