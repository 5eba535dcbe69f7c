package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/hookbus/internal/runtime/actor"
	configpkg "github.com/drblury/hookbus/internal/runtime/config"
	"github.com/drblury/hookbus/internal/runtime/envelope"
	"github.com/drblury/hookbus/internal/runtime/events"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
	metadatapkg "github.com/drblury/hookbus/internal/runtime/metadata"
	relaypkg "github.com/drblury/hookbus/internal/runtime/relay"
	"github.com/drblury/hookbus/transport/channel"
)

func nextMessage(t *testing.T, msgs <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-msgs:
		msg.Ack()
		return msg
	case <-time.After(time.Second):
		t.Fatal("nothing relayed")
		return nil
	}
}

func TestEnableRelayDisabled(t *testing.T) {
	d, _ := newTestDispatcher(t)

	r, err := d.EnableRelay(context.Background())
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestEnableRelayChannelSink(t *testing.T) {
	originalFactory := channel.Factory
	t.Cleanup(func() { channel.Factory = originalFactory })

	var pubSub *gochannel.GoChannel
	channel.Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) *gochannel.GoChannel {
		pubSub = gochannel.NewGoChannel(cfg, logger)
		return pubSub
	}

	d, _ := newTestDispatcher(t, func(c *configpkg.Config, _ *Dependencies) {
		c.Relay.Enabled = true
		c.Relay.System = channel.TransportName
		c.Relay.Source = "lobby-1"
	})

	r, err := d.EnableRelay(context.Background())
	require.NoError(t, err)
	require.NotNil(t, r)
	require.NotNil(t, pubSub)

	logs, err := pubSub.Subscribe(t.Context(), d.Conf.Relay.Topic)
	require.NoError(t, err)
	exceptions, err := pubSub.Subscribe(t.Context(), d.Conf.Relay.ExceptionTopic)
	require.NoError(t, err)

	d.Dispatch(context.Background(), events.NewChatEvent(actor.NewPlayer("steve"), "", "hi"))

	msg := nextMessage(t, logs)
	assert.Equal(t, "hookbus-CHAT", msg.Metadata.Get(metadatapkg.KeyCategory))
	env, err := envelope.JSONCodec{}.Unmarshal(msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, "hookbus.log.ChatEvent", env.Type)
	assert.Equal(t, "lobby-1", env.Source)

	d.HandleException(context.Background(), "Module crashed", errors.New("boom"))
	msg = nextMessage(t, exceptions)
	env, err = envelope.JSONCodec{}.Unmarshal(msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, envelope.TypeException, env.Type)

	assert.Equal(t, relaypkg.Stats{Published: 2}, d.RelayStats())

	require.NoError(t, d.Close())
	_, err = pubSub.Subscribe(t.Context(), "after-close")
	assert.Error(t, err)
}

func TestEnableRelayUnknownSystem(t *testing.T) {
	d, _ := newTestDispatcher(t, func(c *configpkg.Config, _ *Dependencies) {
		c.Relay.Enabled = true
		c.Relay.System = "carrier-pigeon"
	})

	_, err := d.EnableRelay(context.Background())
	assert.ErrorContains(t, err, `relay "carrier-pigeon"`)
}

func TestAttachRelayAfterClose(t *testing.T) {
	d, _ := newTestDispatcher(t)
	require.NoError(t, d.Close())

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	r, err := relaypkg.New(pubSub, loggingpkg.NewNopServiceLogger(), relaypkg.Options{Topic: "t"})
	require.NoError(t, err)

	assert.Error(t, d.AttachRelay(r))
}
