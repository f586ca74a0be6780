package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kopikita/backend-kopi/internal/cart"
	"github.com/kopikita/backend-kopi/internal/catalog"
	"github.com/kopikita/backend-kopi/internal/events"
	"github.com/kopikita/backend-kopi/internal/kv"
	"github.com/kopikita/backend-kopi/internal/order"
	"github.com/kopikita/backend-kopi/internal/pricing"
	"github.com/kopikita/backend-kopi/internal/rewards"
)

func testCatalog(t *testing.T) *catalog.Service {
	t.Helper()
	svc, err := catalog.NewService(catalog.Config{
		Menu: []catalog.MenuItem{{ID: "m_latte", Name: "Kopi Latte", BasePrice: 10}},
		Stores: []catalog.Store{{
			ID:              "s_001",
			Name:            "KopiKita Pavilion",
			Hours:           catalog.StoreHours{Open: "08:00", Close: "22:00"},
			IsPickupEnabled: true,
		}},
		PaymentMethods: []catalog.PaymentMethod{{ID: "pm_001", Type: "card"}},
	})
	require.NoError(t, err)
	return svc
}

func testFixture(t *testing.T) (*Service, *cart.Ledger, *events.MemStore) {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC) }
	schedule := pricing.Schedule{TaxRate: 0.06, DeliveryFee: 5, SmallOrderMin: 20, SmallOrderFee: 2}
	policy := rewards.Policy{PointValue: 0.10, MaxRedeemFraction: 0.5}

	carts := cart.NewStore(schedule, policy, time.Hour)
	carts.Now = clock
	ledger := carts.Create("u_001", "s_001")

	store := &events.MemStore{}
	svc := &Service{
		Carts:   carts,
		Catalog: testCatalog(t),
		Orders:  order.NewStore(),
		Factory: order.Factory{Now: clock},
		Rewards: &rewards.Service{
			Store:      kv.NewMemory(),
			Policy:     policy,
			SeedPoints: func(string) int { return 120 },
			Now:        clock,
		},
		Events: &events.Bus{Store: store, Now: clock},
		Log:    zerolog.Nop(),
		Now:    clock,
	}
	return svc, ledger, store
}

func TestCheckoutHappyPath(t *testing.T) {
	svc, ledger, eventLog := testFixture(t)
	ledger.AddItem(cart.AddInput{ItemID: "m_latte", Name: "Kopi Latte", Qty: 3, UnitPrice: 10})

	out, err := svc.Create(context.Background(), "u_001", Input{
		CartID:          ledger.ID(),
		FulfillmentType: order.FulfillmentPickup,
		PaymentMethodID: "pm_001",
	})
	require.NoError(t, err)
	require.Equal(t, order.StatusReceived, out.Order.Status)
	require.Len(t, out.Order.Items, 1)
	// subtotal 30, tax 1.80, delivery 5 → 36.80
	require.InDelta(t, 36.80, out.Order.Total, 1e-9)
	require.Equal(t, 37, out.PointsEarned)

	// the cart is cleared and the order is announced
	require.Empty(t, ledger.Snapshot().Lines)
	recent := eventLog.Recent(0)
	require.Len(t, recent, 1)
	require.Equal(t, events.TopicOrderCreated, recent[0].Topic)

	saved, err := svc.Orders.Get(out.Order.ID)
	require.NoError(t, err)
	require.Equal(t, "u_001", saved.UserID)
}

func TestCheckoutRecordsRedeem(t *testing.T) {
	svc, ledger, _ := testFixture(t)
	ledger.AddItem(cart.AddInput{ItemID: "m_latte", Name: "Kopi Latte", Qty: 5, UnitPrice: 10})
	ledger.SetAvailablePoints(120)
	ledger.RedeemPoints(100)

	out, err := svc.Create(context.Background(), "u_001", Input{
		CartID:          ledger.ID(),
		FulfillmentType: order.FulfillmentPickup,
	})
	require.NoError(t, err)

	balance, err := svc.Rewards.Balance(context.Background(), "u_001")
	require.NoError(t, err)
	require.Equal(t, 120-100+out.PointsEarned, balance)
}

func TestCheckoutAnnouncesRedeemedPoints(t *testing.T) {
	svc, ledger, eventLog := testFixture(t)
	ledger.AddItem(cart.AddInput{ItemID: "m_latte", Name: "Kopi Latte", Qty: 5, UnitPrice: 10})
	ledger.SetAvailablePoints(120)
	ledger.RedeemPoints(100)

	out, err := svc.Create(context.Background(), "u_001", Input{
		CartID:          ledger.ID(),
		FulfillmentType: order.FulfillmentPickup,
	})
	require.NoError(t, err)

	recent := eventLog.Recent(0)
	require.Len(t, recent, 2)
	require.Equal(t, events.TopicPointsRedeemed, recent[0].Topic)
	require.Equal(t, out.Order.ID, recent[0].AggregateID)
	require.Equal(t, events.TopicOrderCreated, recent[1].Topic)
}

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("kv unavailable")
}
func (brokenKV) Set(context.Context, string, []byte) error { return errors.New("kv unavailable") }

func (brokenKV) Delete(context.Context, string) error { return errors.New("kv unavailable") }

func TestCheckoutSurvivesLoyaltyStorageFailure(t *testing.T) {
	svc, ledger, eventLog := testFixture(t)
	svc.Rewards.Store = brokenKV{}
	ledger.AddItem(cart.AddInput{ItemID: "m_latte", Name: "Kopi Latte", Qty: 5, UnitPrice: 10})
	ledger.SetAvailablePoints(120)
	ledger.RedeemPoints(100)

	out, err := svc.Create(context.Background(), "u_001", Input{
		CartID:          ledger.ID(),
		FulfillmentType: order.FulfillmentPickup,
	})
	require.NoError(t, err, "the committed order stands even when the loyalty store is down")
	require.Zero(t, out.PointsEarned)

	saved, err := svc.Orders.Get(out.Order.ID)
	require.NoError(t, err)
	require.Equal(t, "u_001", saved.UserID)

	// no redeem was recorded, so no redeem announcement either
	recent := eventLog.Recent(0)
	require.Len(t, recent, 1)
	require.Equal(t, events.TopicOrderCreated, recent[0].Topic)
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, ledger, _ := testFixture(t)
	_, err := svc.Create(context.Background(), "u_001", Input{
		CartID:          ledger.ID(),
		FulfillmentType: order.FulfillmentPickup,
	})
	require.ErrorIs(t, err, order.ErrEmptyCart)
}

func TestCheckoutRejections(t *testing.T) {
	svc, ledger, _ := testFixture(t)
	ledger.AddItem(cart.AddInput{ItemID: "m_latte", Name: "Kopi Latte", Qty: 1, UnitPrice: 10})

	_, err := svc.Create(context.Background(), "u_002", Input{CartID: ledger.ID(), FulfillmentType: order.FulfillmentPickup})
	require.ErrorIs(t, err, cart.ErrCartNotFound, "foreign cart reads as not found")

	_, err = svc.Create(context.Background(), "u_001", Input{CartID: ledger.ID(), FulfillmentType: order.FulfillmentDelivery})
	require.ErrorIs(t, err, ErrFulfillmentUnavailable)

	_, err = svc.Create(context.Background(), "u_001", Input{CartID: ledger.ID(), FulfillmentType: "drone"})
	require.ErrorIs(t, err, ErrFulfillmentUnavailable)

	_, err = svc.Create(context.Background(), "u_001", Input{
		CartID:          ledger.ID(),
		FulfillmentType: order.FulfillmentPickup,
		ScheduledAt:     "10:10", // inside the lead window
	})
	require.ErrorIs(t, err, ErrInvalidSlot)

	_, err = svc.Create(context.Background(), "u_001", Input{
		CartID:          ledger.ID(),
		FulfillmentType: order.FulfillmentPickup,
		PaymentMethodID: "pm_missing",
	})
	require.ErrorIs(t, err, ErrUnknownPayment)

	// the cart survives every rejection
	require.Len(t, ledger.Snapshot().Lines, 1)
}
