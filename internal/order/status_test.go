package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveStatusLatestWins(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	events := []StatusEvent{
		{OrderID: "o1", Status: StatusReady, Timestamp: base.Add(20 * time.Minute)},
		{OrderID: "o1", Status: StatusReceived, Timestamp: base},
		{OrderID: "o1", Status: StatusPreparing, Timestamp: base.Add(5 * time.Minute)},
	}
	require.Equal(t, StatusReady, ResolveStatus(events, StatusReceived))
}

func TestResolveStatusNoEvents(t *testing.T) {
	require.Equal(t, StatusPreparing, ResolveStatus(nil, StatusPreparing))
}

func TestResolveStatusTimestampTie(t *testing.T) {
	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	events := []StatusEvent{
		{OrderID: "o1", Status: StatusPreparing, Timestamp: ts},
		{OrderID: "o1", Status: StatusReady, Timestamp: ts},
	}
	// equal timestamps: the later feed entry is authoritative
	require.Equal(t, StatusReady, ResolveStatus(events, StatusReceived))
}

func TestTimeline(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	events := []StatusEvent{
		{OrderID: "o1", Status: StatusReceived, Timestamp: base},
		{OrderID: "o1", Status: StatusPreparing, Timestamp: base.Add(4 * time.Minute)},
	}
	steps := Timeline(events, StatusReceived)
	require.Len(t, steps, 4)

	require.True(t, steps[0].Reached)
	require.True(t, steps[1].Reached)
	require.False(t, steps[2].Reached)
	require.False(t, steps[3].Reached)

	require.NotNil(t, steps[0].Timestamp)
	require.Equal(t, base, *steps[0].Timestamp)
	require.Nil(t, steps[2].Timestamp)
}

func TestStoreResolvesStatusFromFeed(t *testing.T) {
	s := NewStore()
	placed := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	s.Save(Order{ID: "ord_1", UserID: "u_001", Status: StatusReceived, PlacedAt: placed})
	s.Save(Order{ID: "ord_2", UserID: "u_001", Status: StatusReceived, PlacedAt: placed.Add(time.Hour)})

	require.NoError(t, s.AppendEvent(StatusEvent{OrderID: "ord_1", Status: StatusCompleted, Timestamp: placed.Add(30 * time.Minute)}))
	require.Error(t, s.AppendEvent(StatusEvent{OrderID: "ord_1", Status: "teleported", Timestamp: placed}))

	got, err := s.Get("ord_1")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)

	_, err = s.Get("ord_missing")
	require.ErrorIs(t, err, ErrNotFound)

	list := s.ListByUser("u_001")
	require.Len(t, list, 2)
	require.Equal(t, "ord_2", list[0].ID, "newest order first")
	require.Equal(t, StatusCompleted, list[1].Status)

	require.Empty(t, s.ListByUser("u_stranger"))
}
