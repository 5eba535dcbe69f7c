// Package channel relays messages onto an in-process Go channel pub/sub.
// Other components of the same server can subscribe through Factory's
// returned subscriber, which makes this sink handy for tests.
package channel

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/drblury/hookbus/transport"
)

// TransportName is the relay system value selecting this sink.
const TransportName = "channel"

// Factory allows overriding the pub/sub creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(cfg, logger)
}

func init() {
	Register()
}

// Register adds the sink to the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.ChannelCapabilities)
}

// Build creates the channel publisher. Messages published before any
// subscriber exists are kept so late subscribers still see them.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return Factory(gochannel.Config{
		OutputChannelBuffer:            64,
		Persistent:                     true,
		BlockPublishUntilSubscriberAck: false,
	}, logger), nil
}

// Capabilities returns the capabilities of this sink.
func Capabilities() transport.Capabilities {
	return transport.ChannelCapabilities
}
