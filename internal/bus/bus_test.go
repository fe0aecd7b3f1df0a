package bus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainctl/throttle/internal/bus"
)

func TestSubscribeAndInjectDeliversToHandler(t *testing.T) {
	b := bus.NewMemoryBus()

	var received []bus.CommandMessage
	err := b.Subscribe(context.Background(), "train/throttle/command", func(msg bus.CommandMessage) {
		received = append(received, msg)
	})
	require.NoError(t, err)

	b.Inject(bus.CommandMessage{Topic: "train/throttle/command", Payload: []byte(`{"speed":0.5}`)})

	require.Len(t, received, 1)
	assert.Equal(t, "train/throttle/command", received[0].Topic)
}

func TestInjectOnUnsubscribedTopicIsNoop(t *testing.T) {
	b := bus.NewMemoryBus()
	assert.NotPanics(t, func() {
		b.Inject(bus.CommandMessage{Topic: "nobody/listens", Payload: []byte(`{}`)})
	})
}

func TestPublishRecordsMessage(t *testing.T) {
	b := bus.NewMemoryBus()
	err := b.Publish(context.Background(), bus.StateMessage{Topic: "train/throttle/state", Payload: []byte(`{"current_speed":0}`)})
	require.NoError(t, err)

	last, ok := b.LastPublished()
	require.True(t, ok)
	assert.Equal(t, "train/throttle/state", last.Topic)
}

func TestLastPublishedEmptyReturnsFalse(t *testing.T) {
	b := bus.NewMemoryBus()
	_, ok := b.LastPublished()
	assert.False(t, ok)
}

func TestCloseReturnsNoError(t *testing.T) {
	b := bus.NewMemoryBus()
	assert.NoError(t, b.Close())
}

func TestMultipleHandlersOnSameTopicAllReceive(t *testing.T) {
	b := bus.NewMemoryBus()

	var a, c int
	_ = b.Subscribe(context.Background(), "t", func(bus.CommandMessage) { a++ })
	_ = b.Subscribe(context.Background(), "t", func(bus.CommandMessage) { c++ })

	b.Inject(bus.CommandMessage{Topic: "t"})

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, c)
}
