package rewards

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var policy = Policy{
	PointValue:        0.10,
	RedeemStep:        10,
	MaxRedeemFraction: 0.5,
}

func TestMaxRedeemable(t *testing.T) {
	cases := []struct {
		name      string
		available int
		subtotal  float64
		want      int
	}{
		{"balance is the binding cap", 200, 45.00, 200},
		{"fraction rule is the binding cap", 1000, 45.00, 225},
		{"zero subtotal", 200, 0, 0},
		{"negative balance", -5, 45.00, 0},
		{"empty balance", 0, 45.00, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, policy.MaxRedeemable(tc.available, tc.subtotal))
		})
	}
}

func TestMaxRedeemableZeroPointValue(t *testing.T) {
	broken := Policy{PointValue: 0, MaxRedeemFraction: 0.5}
	require.Zero(t, broken.MaxRedeemable(500, 100))
}

func TestDiscount(t *testing.T) {
	// 200 points at RM0.10 each discount RM20.00, not the RM22.50 the
	// fraction rule alone would allow
	max := policy.MaxRedeemable(200, 45.00)
	require.Equal(t, 200, max)
	require.InDelta(t, 20.00, policy.Discount(200, max, 45.00), 1e-9)
}

func TestDiscountClampsToMaxAndSubtotal(t *testing.T) {
	require.InDelta(t, 20.00, policy.Discount(999, 200, 45.00), 1e-9)
	require.InDelta(t, 3.00, policy.Discount(100, 100, 3.00), 1e-9)
	require.Zero(t, policy.Discount(-10, 200, 45.00))
}
