// Package io relays messages as JSON lines to a file or to standard output.
package io

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/internal/runtime/jsoncodec"
	"github.com/drblury/hookbus/transport"
)

// TransportName is the relay system value selecting this sink.
const TransportName = "io"

// DefaultFilePath is used when no file is configured.
const DefaultFilePath = "hookbus-relay.log"

// Stdout selects standard output instead of a file.
const Stdout = "-"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(filePath string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	if filePath == Stdout {
		return NewWriterPublisher(os.Stdout, logger), nil
	}
	return &Publisher{filePath: filePath, logger: logger}, nil
}

func init() {
	Register()
}

// Register adds the sink to the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.IOCapabilities)
}

// Build creates a JSON lines publisher.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	filePath := cfg.GetIOFile()
	if filePath == "" {
		filePath = DefaultFilePath
	}
	return PublisherFactory(filePath, logger)
}

// Capabilities returns the capabilities of this sink.
func Capabilities() transport.Capabilities {
	return transport.IOCapabilities
}

// Line is one persisted message.
type Line struct {
	UUID     string            `json:"uuid"`
	Topic    string            `json:"topic"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// Publisher appends messages to a file, or writes them to w when built
// with NewWriterPublisher.
type Publisher struct {
	filePath string
	w        io.Writer
	logger   watermill.LoggerAdapter

	mu     sync.Mutex
	closed bool
}

// NewWriterPublisher writes JSON lines to w.
func NewWriterPublisher(w io.Writer, logger watermill.LoggerAdapter) *Publisher {
	return &Publisher{w: w, logger: logger}
}

// Publish writes one line per message.
func (p *Publisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errspkg.ErrPublisherClosed
	}

	w := p.w
	if w == nil {
		f, err := os.OpenFile(p.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	for _, msg := range messages {
		b, err := jsoncodec.Marshal(Line{
			UUID:     msg.UUID,
			Topic:    topic,
			Metadata: msg.Metadata,
			Payload:  msg.Payload,
		})
		if err != nil {
			return err
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// Close marks the publisher closed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
