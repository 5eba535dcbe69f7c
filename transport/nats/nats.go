// Package nats relays messages to NATS Core subjects.
package nats

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/drblury/hookbus/transport"
)

// TransportName is the relay system value selecting this sink.
const TransportName = "nats"

// DefaultClientName is announced to the server when none is configured.
const DefaultClientName = "hookbus"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return nats.NewPublisher(cfg, logger)
}

func init() {
	Register()
}

// Register adds the sink to the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.NATSCapabilities)
}

// Build creates a NATS publisher.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	name := cfg.GetNATSClientName()
	if name == "" {
		name = DefaultClientName
	}

	return PublisherFactory(
		nats.PublisherConfig{
			URL:         cfg.GetNATSURL(),
			NatsOptions: []nc.Option{nc.Name(name)},
			Marshaler:   &nats.NATSMarshaler{},
		},
		logger,
	)
}

// Capabilities returns the capabilities of this sink.
func Capabilities() transport.Capabilities {
	return transport.NATSCapabilities
}
