package rewards

import (
	"math"

	"github.com/kopikita/backend-kopi/internal/pricing"
)

// Policy controls how loyalty points convert into a checkout discount.
type Policy struct {
	// PointValue is the currency value of a single point.
	PointValue float64
	// RedeemStep is the increment the client UI adjusts redemption by. The
	// computations below accept any non-negative count and clamp; they do
	// not require step alignment.
	RedeemStep int
	// MaxRedeemFraction caps the rewards discount at this fraction of the
	// post-promo subtotal.
	MaxRedeemFraction float64
}

// MaxRedeemable returns the largest point count that may be redeemed against
// the post-promo subtotal, bounded by both the member's balance and the
// policy's discount-fraction cap.
func (p Policy) MaxRedeemable(availablePoints int, subtotalAfterPromo float64) int {
	if p.PointValue <= 0 {
		return 0
	}
	maxDiscountByRule := pricing.Round2(subtotalAfterPromo * p.MaxRedeemFraction)
	maxPointsByRule := int(math.Floor(maxDiscountByRule / p.PointValue))
	max := availablePoints
	if maxPointsByRule < max {
		max = maxPointsByRule
	}
	if max < 0 {
		return 0
	}
	return max
}

// Discount converts a redeemed point count into a currency discount. The
// count is re-clamped to maxRedeemable and the result never exceeds the
// post-promo subtotal.
func (p Policy) Discount(redeemedPoints, maxRedeemable int, subtotalAfterPromo float64) float64 {
	points := redeemedPoints
	if points > maxRedeemable {
		points = maxRedeemable
	}
	if points < 0 {
		points = 0
	}
	raw := float64(points) * p.PointValue
	if raw > subtotalAfterPromo {
		raw = subtotalAfterPromo
	}
	if raw < 0 {
		raw = 0
	}
	return pricing.Round2(raw)
}
