// Package jetstream relays messages into a NATS JetStream stream so they
// outlive the server process.
package jetstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/transport"
)

// TransportName is the relay system value selecting this sink.
const TransportName = "nats-jetstream"

const (
	// DefaultStreamName is used when no stream is configured.
	DefaultStreamName = "HOOKBUS"

	// DefaultMaxAge bounds how long relayed entries are retained.
	DefaultMaxAge = 7 * 24 * time.Hour

	// DefaultClientName is announced to the server when none is configured.
	DefaultClientName = "hookbus"
)

func init() {
	Register()
}

// Register adds the sink to the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.NATSJetStreamCapabilities)
}

// Build connects to NATS and makes sure the stream exists.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return New(Config{
		URL:        cfg.GetNATSURL(),
		ClientName: cfg.GetNATSClientName(),
		StreamName: cfg.GetJetStreamStream(),
	}, logger)
}

// Capabilities returns the capabilities of this sink.
func Capabilities() transport.Capabilities {
	return transport.NATSJetStreamCapabilities
}

// Config holds JetStream specific settings.
type Config struct {
	URL        string
	ClientName string

	// StreamName is the stream receiving relayed messages. Subjects are
	// "<StreamName>.<topic>".
	StreamName string

	// MaxAge bounds retention.
	MaxAge time.Duration

	// Replicas is the number of stream replicas (for clustering).
	Replicas int

	// RetentionPolicy is "limits" (default), "interest" or "workqueue".
	RetentionPolicy string
}

func (c Config) withDefaults() Config {
	if c.StreamName == "" {
		c.StreamName = DefaultStreamName
	}
	if c.ClientName == "" {
		c.ClientName = DefaultClientName
	}
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	if c.Replicas <= 0 {
		c.Replicas = 1
	}
	return c
}

func (c Config) streamConfig() *nats.StreamConfig {
	sc := &nats.StreamConfig{
		Name:     c.StreamName,
		Subjects: []string{c.StreamName + ".>"},
		MaxAge:   c.MaxAge,
		Replicas: c.Replicas,
	}

	switch c.RetentionPolicy {
	case "interest":
		sc.Retention = nats.InterestPolicy
	case "workqueue":
		sc.Retention = nats.WorkQueuePolicy
	default:
		sc.Retention = nats.LimitsPolicy
	}
	return sc
}

// Publisher implements message.Publisher on a JetStream context.
type Publisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	config Config
	logger watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// New connects to the server and creates or updates the stream.
func New(cfg Config, logger watermill.LoggerAdapter) (*Publisher, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	nc, err := nats.Connect(cfg.URL, nats.Name(cfg.ClientName))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{
		nc:     nc,
		js:     js,
		config: cfg,
		logger: logger,
	}

	if err := p.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	return p, nil
}

func (p *Publisher) ensureStream() error {
	sc := p.config.streamConfig()

	if _, err := p.js.AddStream(sc); err == nil {
		return nil
	}
	if _, err := p.js.UpdateStream(sc); err != nil {
		return err
	}
	p.logger.Info("JetStream stream updated", watermill.LogFields{
		"stream": p.config.StreamName,
	})
	return nil
}

// Publish stores messages in the stream. Metadata travels as headers.
func (p *Publisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errspkg.ErrPublisherClosed
	}

	subject := p.subject(topic)
	for _, msg := range messages {
		headers := nats.Header{}
		for k, v := range msg.Metadata {
			headers.Set(k, v)
		}

		_, err := p.js.PublishMsg(&nats.Msg{
			Subject: subject,
			Data:    msg.Payload,
			Header:  headers,
		}, nats.MsgId(msg.UUID))
		if err != nil {
			return fmt.Errorf("failed to publish to JetStream: %w", err)
		}
	}
	return nil
}

func (p *Publisher) subject(topic string) string {
	return p.config.StreamName + "." + topic
}

// Close drains the connection. Calling it twice is harmless.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.nc.Drain()
}

// Capabilities reports the sink capabilities.
func (p *Publisher) Capabilities() transport.Capabilities {
	return transport.NATSJetStreamCapabilities
}
