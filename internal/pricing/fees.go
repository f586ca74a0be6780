package pricing

import "math"

// Schedule holds the fee configuration applied to every cart.
type Schedule struct {
	TaxRate       float64
	DeliveryFee   float64
	SmallOrderMin float64
	SmallOrderFee float64
}

// Fees aggregates the derived fee components for a subtotal.
type Fees struct {
	Tax        float64 `json:"tax"`
	Delivery   float64 `json:"delivery"`
	SmallOrder float64 `json:"smallOrder"`
	Total      float64 `json:"total"`
}

// Compute derives tax, delivery, and small-order surcharge from a subtotal.
// An empty cart carries no fees.
func (s Schedule) Compute(subtotal float64) Fees {
	if subtotal <= 0 {
		return Fees{}
	}
	delivery := s.DeliveryFee
	var smallOrder float64
	if subtotal < s.SmallOrderMin {
		smallOrder = s.SmallOrderFee
	}
	tax := subtotal * s.TaxRate
	return Fees{
		Tax:        tax,
		Delivery:   delivery,
		SmallOrder: smallOrder,
		Total:      tax + delivery + smallOrder,
	}
}

// Round2 rounds a currency amount to two decimal places, half away from zero
// on the scaled integer so float drift does not leak into displayed totals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
