package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	seen []Event
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) error {
	n.seen = append(n.seen, ev)
	return n.err
}

func TestEmitRecordsAndFansOut(t *testing.T) {
	store := &MemStore{}
	notifier := &recordingNotifier{}
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}}

	ev, err := bus.Emit(context.Background(), TopicOrderCreated, "ord_1", map[string]any{"total": 22.90})
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	require.Equal(t, TopicOrderCreated, ev.Topic)
	require.JSONEq(t, `{"total":22.9}`, string(ev.Payload))

	require.Len(t, store.Recent(0), 1)
	require.Len(t, notifier.seen, 1)
}

func TestEmitValidation(t *testing.T) {
	bus := &Bus{Store: &MemStore{}}

	_, err := bus.Emit(context.Background(), " ", "ord_1", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), TopicOrderCreated, "", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), TopicOrderCreated, "ord_1", []byte("{not json"))
	require.Error(t, err)
}

func TestEmitNotifierFailureKeepsEvent(t *testing.T) {
	store := &MemStore{}
	bus := &Bus{Store: store, Notifiers: []Notifier{&recordingNotifier{err: errors.New("push down")}}}

	_, err := bus.Emit(context.Background(), TopicOrderCreated, "ord_1", nil)
	require.Error(t, err)
	require.Len(t, store.Recent(0), 1, "event stays recorded despite notifier failure")
}

func TestMemStoreCap(t *testing.T) {
	store := &MemStore{Cap: 2}
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(context.Background(), Event{ID: string(rune('a' + i))}))
	}
	recent := store.Recent(0)
	require.Len(t, recent, 2)
	require.Equal(t, "d", recent[0].ID)
	require.Equal(t, "e", recent[1].ID)
}
