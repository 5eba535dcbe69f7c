// Package relay forwards log entries and reported errors to a watermill
// publisher. It implements the dispatcher's log and exception listener
// interfaces structurally, so it has no dependency on the dispatcher.
package relay

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/hookbus/internal/runtime/envelope"
	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/internal/runtime/events"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
	metadatapkg "github.com/drblury/hookbus/internal/runtime/metadata"
	"github.com/drblury/hookbus/transport"
)

// Options configures a Relay.
type Options struct {
	// Topic receives log entries.
	Topic string
	// ExceptionTopic receives reported errors; defaults to Topic.
	ExceptionTopic string
	// Source is the envelope source attribute.
	Source string
	// Codec defaults to JSON.
	Codec envelope.Codec
	// Category maps an event kind to its log category.
	Category func(kind string) string
	// Capabilities of the sink; oversized payloads are dropped.
	Capabilities transport.Capabilities
}

// Stats counts relay outcomes.
type Stats struct {
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
	Failed    uint64 `json:"failed"`
}

// Relay publishes one message per log entry or exception. Failures are
// logged and counted, never returned to the dispatcher.
type Relay struct {
	publisher message.Publisher
	logger    loggingpkg.ServiceLogger
	opts      Options

	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
	closed    atomic.Bool
}

func New(publisher message.Publisher, logger loggingpkg.ServiceLogger, opts Options) (*Relay, error) {
	if publisher == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if opts.Topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	if opts.ExceptionTopic == "" {
		opts.ExceptionTopic = opts.Topic
	}
	if opts.Source == "" {
		opts.Source = "hookbus"
	}
	if opts.Codec == nil {
		opts.Codec = envelope.JSONCodec{}
	}
	if opts.Category == nil {
		opts.Category = func(string) string { return opts.Source }
	}

	return &Relay{
		publisher: publisher,
		logger:    logger.With(loggingpkg.LogFields{"component": "relay", "sink": opts.Capabilities.Name}),
		opts:      opts,
	}, nil
}

// OnLogEntry relays entry. Entries without a message are skipped.
func (r *Relay) OnLogEntry(ctx context.Context, entry *events.LogEvent) {
	if entry == nil || entry.Message == "" {
		return
	}

	kind := string(entry.Source.Kind())
	data := map[string]any{
		"message":  entry.Message,
		"event_id": entry.Source.ID(),
	}
	env := envelope.New(envelope.LogType(kind), r.opts.Source, data).
		WithExtension(envelope.ExtCategory, r.opts.Category(kind)).
		WithExtension(envelope.ExtImportant, entry.Important()).
		WithExtension(envelope.ExtEventKind, kind).
		WithExtension(envelope.ExtEventID, entry.Source.ID())
	if a := entry.Actor(); a != nil {
		env = env.WithSubject(a.Name()).WithExtension(envelope.ExtActor, a.Name())
	}

	md := metadatapkg.New(
		metadatapkg.KeyCategory, r.opts.Category(kind),
		metadatapkg.KeyEventKind, kind,
	).WithBool(metadatapkg.KeyImportant, entry.Important())

	r.publish(ctx, r.opts.Topic, env, md)
}

// OnException relays a reported error.
func (r *Relay) OnException(ctx context.Context, reason string, err error) {
	data := map[string]any{"reason": reason}
	if err != nil {
		data["error"] = err.Error()
		data["error_type"] = fmt.Sprintf("%T", err)
	}
	env := envelope.New(envelope.TypeException, r.opts.Source, data).
		WithExtension(envelope.ExtReason, reason).
		WithExtension(envelope.ExtImportant, true)

	md := metadatapkg.New(metadatapkg.KeyEventKind, string(events.KindThrowable)).
		WithBool(metadatapkg.KeyImportant, true)

	r.publish(ctx, r.opts.ExceptionTopic, env, md)
}

func (r *Relay) publish(ctx context.Context, topic string, env envelope.Envelope, md metadatapkg.Metadata) {
	if r.closed.Load() {
		return
	}

	md = md.WithTrace(ctx)
	if traceID := md[metadatapkg.KeyTraceID]; traceID != "" {
		env = env.WithExtension(envelope.ExtTraceID, traceID)
	}

	payload, err := r.opts.Codec.Marshal(env)
	if err != nil {
		r.failed.Add(1)
		r.logger.Error("Failed to encode relay envelope", err, loggingpkg.LogFields{"type": env.Type})
		return
	}
	if !r.opts.Capabilities.Accepts(len(payload)) {
		r.dropped.Add(1)
		r.logger.Info("Relay message exceeds sink limit", loggingpkg.LogFields{
			"type":  env.Type,
			"size":  len(payload),
			"limit": r.opts.Capabilities.MaxMessageSize,
		})
		return
	}

	msg := message.NewMessage(env.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata = metadatapkg.ToWatermill(md.WithAll(metadatapkg.Metadata{
		metadatapkg.KeyType:        env.Type,
		metadatapkg.KeySource:      env.Source,
		metadatapkg.KeyID:          env.ID,
		metadatapkg.KeyTime:        env.Time.Format(time.RFC3339Nano),
		metadatapkg.KeyContentType: r.opts.Codec.ContentType(),
	}))

	if err := r.publisher.Publish(topic, msg); err != nil {
		r.failed.Add(1)
		r.logger.Error("Failed to relay message", err, loggingpkg.LogFields{
			"topic": topic,
			"type":  env.Type,
		})
		return
	}
	r.published.Add(1)
}

// Stats returns the outcome counters.
func (r *Relay) Stats() Stats {
	return Stats{
		Published: r.published.Load(),
		Dropped:   r.dropped.Load(),
		Failed:    r.failed.Load(),
	}
}

// Close stops relaying and closes the publisher. Only the first call
// closes it.
func (r *Relay) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.publisher.Close()
}
