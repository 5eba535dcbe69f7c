package channel

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/hookbus/internal/runtime/config"
	"github.com/drblury/hookbus/transport"
)

func TestRegister(t *testing.T) {
	original := transport.DefaultRegistry
	t.Cleanup(func() { transport.DefaultRegistry = original })
	transport.DefaultRegistry = transport.NewRegistry()
	Register()

	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "channel", caps.Name)
	assert.True(t, caps.Ordered)
	assert.False(t, caps.Remote)
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, transport.ChannelCapabilities, Capabilities())
}

func TestBuild(t *testing.T) {
	t.Run("late subscribers receive earlier messages", func(t *testing.T) {
		pub, err := Build(context.Background(), &config.RelayConfig{System: TransportName}, watermill.NopLogger{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = pub.Close() })

		require.NoError(t, pub.Publish("hookbus.log.chat", message.NewMessage("1", []byte("hello"))))

		sub, ok := pub.(message.Subscriber)
		require.True(t, ok)
		msgs, err := sub.Subscribe(t.Context(), "hookbus.log.chat")
		require.NoError(t, err)

		select {
		case msg := <-msgs:
			assert.Equal(t, "hello", string(msg.Payload))
			msg.Ack()
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	})

	t.Run("uses custom factory", func(t *testing.T) {
		originalFactory := Factory
		t.Cleanup(func() { Factory = originalFactory })

		var got gochannel.Config
		Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) *gochannel.GoChannel {
			got = cfg
			return gochannel.NewGoChannel(cfg, logger)
		}

		pub, err := Build(context.Background(), &config.RelayConfig{}, watermill.NopLogger{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = pub.Close() })
		assert.True(t, got.Persistent)
	})
}
