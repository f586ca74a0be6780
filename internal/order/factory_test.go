package order

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	f := Factory{}
	_, err := f.Create(Input{UserID: "u_001", StoreID: "s_001"})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateSnapshotsItems(t *testing.T) {
	placed := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)
	f := Factory{Now: fixedClock(placed)}
	source := []Item{{
		ID:        "line_1",
		ItemID:    "m_latte_003",
		Name:      "Kopi Latte",
		Qty:       2,
		UnitPrice: 11.50,
		Customizations: Customizations{
			SizeLabel:   "Large",
			SugarLabel:  "Less sugar",
			AddOnLabels: []string{"Oat milk"},
		},
	}}

	o, err := f.Create(Input{
		UserID:          "u_001",
		StoreID:         "s_001",
		Items:           source,
		Total:           23.00,
		FulfillmentType: FulfillmentPickup,
	})
	require.NoError(t, err)
	require.Equal(t, StatusReceived, o.Status)
	require.Equal(t, placed, o.PlacedAt)

	// mutating the source must not reach the frozen order
	source[0].Qty = 99
	source[0].Customizations.AddOnLabels[0] = "changed"
	require.Equal(t, 2, o.Items[0].Qty)
	require.Equal(t, "Oat milk", o.Items[0].Customizations.AddOnLabels[0])
}

func TestCreateEta(t *testing.T) {
	f := Factory{}
	oneLine := []Item{{ID: "l1", ItemID: "m1", Qty: 3, UnitPrice: 10}}
	fourLines := make([]Item, 4)
	for i := range fourLines {
		fourLines[i] = Item{ID: string(rune('a' + i)), ItemID: "m1", Qty: 1, UnitPrice: 5}
	}
	tenLines := make([]Item, 10)
	for i := range tenLines {
		tenLines[i] = Item{ID: string(rune('a' + i)), ItemID: "m1", Qty: 1, UnitPrice: 5}
	}

	cases := []struct {
		name        string
		items       []Item
		fulfillment FulfillmentType
		want        int
	}{
		{"pickup single line", oneLine, FulfillmentPickup, 20},
		{"delivery single line", oneLine, FulfillmentDelivery, 35},
		{"pickup four lines", fourLines, FulfillmentPickup, 26},
		{"delivery increment capped", tenLines, FulfillmentDelivery, 47},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o, err := f.Create(Input{UserID: "u", StoreID: "s", Items: tc.items, FulfillmentType: tc.fulfillment})
			require.NoError(t, err)
			require.Equal(t, tc.want, o.EtaMinutes)
		})
	}
}

func TestCreateIDsAreUnique(t *testing.T) {
	f := Factory{}
	items := []Item{{ID: "l1", ItemID: "m1", Qty: 1, UnitPrice: 8}}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		o, err := f.Create(Input{UserID: "u", StoreID: "s", Items: items, FulfillmentType: FulfillmentPickup})
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(o.ID, "ord_"))
		require.False(t, seen[o.ID], "duplicate id %s", o.ID)
		seen[o.ID] = true
	}
}
