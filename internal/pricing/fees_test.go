package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testSchedule = Schedule{
	TaxRate:       0.06,
	DeliveryFee:   5,
	SmallOrderMin: 20,
	SmallOrderFee: 2,
}

func TestComputeZeroSubtotal(t *testing.T) {
	for _, subtotal := range []float64{0, -1, -37.5} {
		fees := testSchedule.Compute(subtotal)
		require.Zero(t, fees.Tax)
		require.Zero(t, fees.Delivery)
		require.Zero(t, fees.SmallOrder)
		require.Zero(t, fees.Total)
	}
}

func TestComputeSmallOrder(t *testing.T) {
	fees := testSchedule.Compute(15)
	require.InDelta(t, 0.90, fees.Tax, 1e-9)
	require.InDelta(t, 5, fees.Delivery, 1e-9)
	require.InDelta(t, 2, fees.SmallOrder, 1e-9)
	require.InDelta(t, 7.90, fees.Total, 1e-9)
}

func TestComputeAboveThreshold(t *testing.T) {
	fees := testSchedule.Compute(50)
	require.InDelta(t, 3, fees.Tax, 1e-9)
	require.InDelta(t, 5, fees.Delivery, 1e-9)
	require.Zero(t, fees.SmallOrder)
	require.InDelta(t, 8, fees.Total, 1e-9)
}

func TestSmallOrderBoundary(t *testing.T) {
	// Exactly at the threshold the surcharge no longer applies.
	require.Zero(t, testSchedule.Compute(20).SmallOrder)
	require.InDelta(t, 2, testSchedule.Compute(19.99).SmallOrder, 1e-9)
}

func TestRound2(t *testing.T) {
	require.InDelta(t, 22.50, Round2(22.499999999999996), 1e-12)
	require.InDelta(t, 0.90, Round2(0.9000000000000001), 1e-12)
	require.InDelta(t, 20.00, Round2(200*0.1), 1e-12)
	require.Zero(t, Round2(0))
}
