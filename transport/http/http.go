// Package http relays messages as HTTP POST requests. The topic is appended
// to the configured base URL.
package http

import (
	"context"
	nethttp "net/http"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/transport"
)

// TransportName is the relay system value selecting this sink.
const TransportName = "http"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(config http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return http.NewPublisher(config, logger)
}

func init() {
	Register()
}

// Register adds the sink to the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.HTTPCapabilities)
}

// Build creates an HTTP publisher posting to <base URL><topic>.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	base := cfg.GetHTTPPublisherURL()
	if base == "" {
		return nil, errspkg.ErrConfigRequired
	}

	return PublisherFactory(
		http.PublisherConfig{
			MarshalMessageFunc: MarshalMessageFunc(base),
		},
		logger,
	)
}

// MarshalMessageFunc builds requests against base with the topic appended.
func MarshalMessageFunc(base string) http.MarshalMessageFunc {
	return func(topic string, msg *message.Message) (*nethttp.Request, error) {
		return http.DefaultMarshalMessageFunc(base+topic, msg)
	}
}

// Capabilities returns the capabilities of this sink.
func Capabilities() transport.Capabilities {
	return transport.HTTPCapabilities
}
