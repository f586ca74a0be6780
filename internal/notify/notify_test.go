package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kopikita/backend-kopi/internal/events"
)

func TestFeedListNewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	feed := NewFeed([]Notification{
		{ID: "n_old", Title: "old", CreatedAt: base},
		{ID: "n_new", Title: "new", CreatedAt: base.Add(time.Hour)},
	})

	list := feed.List()
	require.Len(t, list, 2)
	require.Equal(t, "n_new", list[0].ID)
}

func TestFeedMarkRead(t *testing.T) {
	feed := NewFeed([]Notification{{ID: "n_1"}})
	feed.MarkRead("n_1")
	feed.MarkRead("n_missing")
	require.True(t, feed.List()[0].Read)
}

func TestEventNotifierOrderCreated(t *testing.T) {
	feed := NewFeed(nil)
	bus := &events.Bus{Store: &events.MemStore{}, Notifiers: []events.Notifier{EventNotifier{Feed: feed}}}

	_, err := bus.Emit(context.Background(), events.TopicOrderCreated, "ord_1", map[string]any{
		"orderId":    "ord_1",
		"etaMinutes": 24,
	})
	require.NoError(t, err)

	list := feed.List()
	require.Len(t, list, 1)
	require.Equal(t, "kopikita://order/ord_1", list[0].DeepLink)

	link, err := ParseDeepLink(list[0].DeepLink)
	require.NoError(t, err)
	require.Equal(t, "ord_1", link.ID)
}

func TestEventNotifierStatusChanged(t *testing.T) {
	feed := NewFeed(nil)
	notifier := EventNotifier{Feed: feed}

	err := notifier.Notify(context.Background(), events.Event{
		Topic:      events.TopicOrderStatusChanged,
		Payload:    []byte(`{"orderId":"ord_1","status":"ready"}`),
		OccurredAt: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	list := feed.List()
	require.Len(t, list, 1)
	require.Equal(t, "Your order is ready", list[0].Title)
	require.Equal(t, "kopikita://orderStatus/ord_1", list[0].DeepLink)
}

func TestEventNotifierIgnoresUnknownTopics(t *testing.T) {
	feed := NewFeed(nil)
	err := EventNotifier{Feed: feed}.Notify(context.Background(), events.Event{Topic: "payment.failed", Payload: []byte(`{}`)})
	require.NoError(t, err)
	require.Empty(t, feed.List())
}
