package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
)

func click(messageID, customID string) entity.InteractionEvent {
	return entity.InteractionEvent{
		Type:        entity.EventInteractionCreate,
		ChannelID:   "c1",
		MessageID:   messageID,
		UserID:      "u1",
		CustomID:    customID,
		HasCustomID: true,
	}
}

func onMessage(messageID string) func(entity.InteractionEvent) bool {
	return func(evt entity.InteractionEvent) bool {
		return evt.IsButtonClickOn("c1", messageID)
	}
}

func TestBus_PublishFiltersPerSubscription(t *testing.T) {
	bus := New()
	a := bus.Subscribe(onMessage("m1"))
	defer a.Close()
	b := bus.Subscribe(onMessage("m2"))
	defer b.Close()

	assert.Equal(t, 2, bus.Len())
	assert.Equal(t, 1, bus.Publish(click("m1", "x")))
	assert.Equal(t, 1, bus.Publish(click("m2", "y")))
	assert.Equal(t, 0, bus.Publish(click("m3", "z")))

	deadline := time.Now().Add(time.Second)

	res, err := a.Next(context.Background(), deadline)
	require.NoError(t, err)
	require.False(t, res.TimedOut)
	assert.Equal(t, "x", res.Event.CustomID)
	assert.False(t, res.Event.ReceivedAt.IsZero())

	res, err = b.Next(context.Background(), deadline)
	require.NoError(t, err)
	assert.Equal(t, "y", res.Event.CustomID)
}

func TestBus_BroadcastToAllMatching(t *testing.T) {
	bus := New()
	a := bus.Subscribe(nil)
	defer a.Close()
	b := bus.Subscribe(onMessage("m1"))
	defer b.Close()

	assert.Equal(t, 2, bus.Publish(click("m1", "x")))
}

func TestSubscription_PreservesOrder(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(onMessage("m1"))
	defer sub.Close()

	for _, id := range []string{"1", "2", "3"} {
		bus.Publish(click("m1", id))
	}

	deadline := time.Now().Add(time.Second)
	for _, want := range []string{"1", "2", "3"} {
		res, err := sub.Next(context.Background(), deadline)
		require.NoError(t, err)
		assert.Equal(t, want, res.Event.CustomID)
	}
}

func TestSubscription_TimeoutIsAResult(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(onMessage("m1"))
	defer sub.Close()

	start := time.Now()
	res, err := sub.Next(context.Background(), start.Add(30*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestSubscription_PastDeadlineStillDrainsQueue(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(onMessage("m1"))
	defer sub.Close()

	bus.Publish(click("m1", "queued"))

	res, err := sub.Next(context.Background(), time.Now().Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, res.TimedOut)
	assert.Equal(t, "queued", res.Event.CustomID)
}

func TestSubscription_WakesOnPublish(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(onMessage("m1"))
	defer sub.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		bus.Publish(click("m1", "late"))
	}()

	res, err := sub.Next(context.Background(), time.Now().Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "late", res.Event.CustomID)
}

func TestSubscription_ContextCancel(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(onMessage("m1"))
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sub.Next(ctx, time.Now().Add(time.Second))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubscription_Close(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(onMessage("m1"))
	bus.Publish(click("m1", "dropped"))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, bus.Len())
	assert.Equal(t, 0, bus.Publish(click("m1", "after")))

	_, err := sub.Next(context.Background(), time.Now().Add(time.Second))
	assert.ErrorIs(t, err, ErrClosed)
}
