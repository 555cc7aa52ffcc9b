package eventbus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessEventBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := NewEventBus(ctx, Config{}, slog.Default())
	require.NoError(t, err)
	defer bus.Close()

	messages, err := bus.Subscribe(ctx, "scorekeeper.test.v1")
	require.NoError(t, err)

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"ok":true}`))
	require.NoError(t, bus.Publish("scorekeeper.test.v1", msg))

	select {
	case got := <-messages:
		assert.Equal(t, msg.UUID, got.UUID)
		assert.JSONEq(t, `{"ok":true}`, string(got.Payload))
		got.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPublishAssignsMissingUUID(t *testing.T) {
	bus, err := NewEventBus(context.Background(), Config{}, nil)
	require.NoError(t, err)
	defer bus.Close()

	msg := message.NewMessage("", []byte(`{}`))
	require.NoError(t, bus.Publish("scorekeeper.nobody.listens.v1", msg))
	assert.NotEmpty(t, msg.UUID)
}
