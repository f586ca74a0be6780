package promo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.Local)

func testCatalog() []Promo {
	return []Promo{
		{ID: "p_1", Code: "BREW10", Kind: KindPercent, Amount: 10, MinSpend: 20, Expiry: NewDate(2027, time.December, 31)},
		{ID: "p_2", Code: "FLAT5", Kind: KindFixed, Amount: 5, MinSpend: 30, Expiry: NewDate(2027, time.June, 30)},
		{ID: "p_3", Code: "OLDCODE", Kind: KindFixed, Amount: 3, MinSpend: 0, Expiry: NewDate(2025, time.January, 1)},
	}
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "BREW10", Normalize("  brew 10  "))
	require.Equal(t, "FLAT5", Normalize("fLaT\t5"))
	require.Equal(t, "", Normalize("   "))
}

func TestEvaluateMatchesCaseAndWhitespaceInsensitive(t *testing.T) {
	p, err := Evaluate(" brew 10 ", 50, testCatalog(), testNow)
	require.NoError(t, err)
	require.Equal(t, "p_1", p.ID)
}

func TestEvaluateRejections(t *testing.T) {
	catalog := testCatalog()

	_, err := Evaluate("   ", 50, catalog, testNow)
	require.ErrorIs(t, err, ErrMissingCode)

	_, err = Evaluate("NOPE", 50, catalog, testNow)
	require.ErrorIs(t, err, ErrNotRecognized)

	_, err = Evaluate("OLDCODE", 50, catalog, testNow)
	require.ErrorIs(t, err, ErrExpired)

	_, err = Evaluate("FLAT5", 25, catalog, testNow)
	require.ErrorIs(t, err, ErrMinimumSpendUnmet)
	// the message tells the member how much they need to spend
	require.Contains(t, err.Error(), "RM30.00")
}

func TestExpiryInclusiveThroughEndOfDay(t *testing.T) {
	p := Promo{Code: "X", Expiry: NewDate(2026, time.March, 10)}
	lastMoment := time.Date(2026, time.March, 10, 23, 59, 59, 0, time.Local)
	require.False(t, p.Expired(lastMoment))
	nextMidnight := time.Date(2026, time.March, 11, 0, 0, 0, 0, time.Local)
	require.True(t, p.Expired(nextMidnight))
}

func TestDiscountPercent(t *testing.T) {
	p := testCatalog()[0]
	require.InDelta(t, 5.00, Discount(p, 50, testNow), 1e-9)
}

func TestDiscountFixedClampedToSubtotal(t *testing.T) {
	p := Promo{Code: "BIG", Kind: KindFixed, Amount: 100, Expiry: NewDate(2027, time.January, 1)}
	require.InDelta(t, 40, Discount(p, 40, testNow), 1e-9)
}

func TestDiscountIneligibleIsZero(t *testing.T) {
	catalog := testCatalog()
	// Below min spend.
	require.Zero(t, Discount(catalog[1], 10, testNow))
	// Expired.
	require.Zero(t, Discount(catalog[2], 100, testNow))
}

func TestDiscountClampProperty(t *testing.T) {
	promos := []Promo{
		{Kind: KindPercent, Amount: 150, Expiry: NewDate(2030, time.January, 1)},
		{Kind: KindFixed, Amount: 999, Expiry: NewDate(2030, time.January, 1)},
		{Kind: KindPercent, Amount: -5, Expiry: NewDate(2030, time.January, 1)},
	}
	for _, p := range promos {
		for _, subtotal := range []float64{0.01, 1, 19.99, 20, 100, 1234.56} {
			d := Discount(p, subtotal, testNow)
			require.GreaterOrEqual(t, d, 0.0)
			require.LessOrEqual(t, d, subtotal)
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d, err := ParseDate("2027-12-31")
	require.NoError(t, err)
	encoded, err := d.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `"2027-12-31"`, string(encoded))

	var decoded Date
	require.NoError(t, decoded.UnmarshalJSON(encoded))
	require.Equal(t, d.String(), decoded.String())
}
