// Package transport holds the registry of relay sinks. Each sink (kafka,
// nats, rabbitmq, ...) lives in its own sub-package and registers a Builder
// that turns relay configuration into a watermill publisher.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Builder creates the publisher for one sink.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (message.Publisher, error)

// Config provides the values sinks need without depending on the full
// config package.
type Config interface {
	// GetRelaySystem returns the sink name.
	GetRelaySystem() string

	// Kafka
	GetKafkaBrokers() []string

	// RabbitMQ
	GetRabbitMQURL() string

	// NATS and JetStream
	GetNATSURL() string
	GetNATSClientName() string
	GetJetStreamStream() string

	// HTTP
	GetHTTPPublisherURL() string

	// IO
	GetIOFile() string

	// AWS SNS
	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}

// CapabilitiesProvider is implemented by publishers that can report their
// capabilities at runtime.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
