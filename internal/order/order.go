package order

import (
	"sort"
	"time"
)

// Status is an order's fulfillment stage.
type Status string

const (
	StatusReceived  Status = "received"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
)

// Statuses lists the stages in fulfillment order.
var Statuses = []Status{StatusReceived, StatusPreparing, StatusReady, StatusCompleted}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// FulfillmentType says how the order reaches the customer.
type FulfillmentType string

const (
	FulfillmentPickup   FulfillmentType = "pickup"
	FulfillmentDelivery FulfillmentType = "delivery"
)

// Valid reports whether f is a known fulfillment type.
func (f FulfillmentType) Valid() bool {
	return f == FulfillmentPickup || f == FulfillmentDelivery
}

// Customizations is the configuration snapshot on an order line.
type Customizations struct {
	SizeLabel   string   `json:"sizeLabel"`
	SugarLabel  string   `json:"sugarLabel"`
	AddOnLabels []string `json:"addOnLabels"`
}

// Item is a frozen order line. It never aliases live cart state.
type Item struct {
	ID             string         `json:"id"`
	ItemID         string         `json:"itemId"`
	Name           string         `json:"name"`
	Qty            int            `json:"qty"`
	UnitPrice      float64        `json:"unitPrice"`
	Customizations Customizations `json:"customizations"`
	Notes          string         `json:"notes,omitempty"`
}

// Order is the immutable record produced at checkout.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	StoreID         string          `json:"storeId"`
	Items           []Item          `json:"items"`
	Status          Status          `json:"status"`
	Total           float64         `json:"total"`
	EtaMinutes      int             `json:"etaMinutes"`
	FulfillmentType FulfillmentType `json:"fulfillmentType"`
	PlacedAt        time.Time       `json:"placedAt"`
	ScheduledAt     string          `json:"scheduledAt,omitempty"`
}

// StatusEvent is one entry of the external status feed, keyed by order id.
type StatusEvent struct {
	OrderID   string    `json:"orderId"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ResolveStatus returns the order's authoritative status given its feed
// events: the chronologically last event wins. With no events the order's
// own status stands.
func ResolveStatus(events []StatusEvent, fallback Status) Status {
	if len(events) == 0 {
		return fallback
	}
	latest := events[0]
	for _, ev := range events[1:] {
		if !ev.Timestamp.Before(latest.Timestamp) {
			latest = ev
		}
	}
	return latest.Status
}

// SortEvents orders feed events chronologically.
func SortEvents(events []StatusEvent) []StatusEvent {
	sorted := make([]StatusEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// TimelineStep pairs a fulfillment stage with the moment its event arrived.
type TimelineStep struct {
	Status    Status     `json:"status"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Reached   bool       `json:"reached"`
}

// Timeline renders the four-stage progress view for an order: every stage up
// to the furthest-reached one is marked reached, with event timestamps where
// the feed supplied them.
func Timeline(events []StatusEvent, fallback Status) []TimelineStep {
	sorted := SortEvents(events)
	byStatus := make(map[Status]time.Time, len(sorted))
	for _, ev := range sorted {
		byStatus[ev.Status] = ev.Timestamp
	}
	current := ResolveStatus(sorted, fallback)
	currentIdx := 0
	for i, s := range Statuses {
		if s == current {
			currentIdx = i
			break
		}
	}
	steps := make([]TimelineStep, 0, len(Statuses))
	for i, s := range Statuses {
		step := TimelineStep{Status: s, Reached: i <= currentIdx}
		if ts, ok := byStatus[s]; ok {
			t := ts
			step.Timestamp = &t
		}
		steps = append(steps, step)
	}
	return steps
}
