// Package metadata holds the headers attached to relayed messages.
package metadata

import (
	"context"
	"maps"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// Reserved header keys.
const (
	KeyType        = "ce_type"
	KeySource      = "ce_source"
	KeyID          = "ce_id"
	KeyTime        = "ce_time"
	KeyContentType = "content_type"
	KeyCategory    = "category"
	KeyImportant   = "important"
	KeyEventKind   = "event_kind"
	KeyTraceID     = "trace_id"
	KeySpanID      = "span_id"
)

// Metadata is a set of message headers.
type Metadata map[string]string

// New builds Metadata from alternating key/value pairs. A trailing key
// without a value is ignored.
func New(pairs ...string) Metadata {
	md := make(Metadata, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		md[pairs[i]] = pairs[i+1]
	}
	return md
}

// Clone returns a copy; never nil.
func (m Metadata) Clone() Metadata {
	cloned := make(Metadata, len(m))
	maps.Copy(cloned, m)
	return cloned
}

// With returns a copy with key set.
func (m Metadata) With(key, value string) Metadata {
	cloned := m.Clone()
	cloned[key] = value
	return cloned
}

// WithAll returns a copy with every entry of extra set.
func (m Metadata) WithAll(extra Metadata) Metadata {
	cloned := m.Clone()
	maps.Copy(cloned, extra)
	return cloned
}

// WithBool returns a copy with key set to "true" or "false".
func (m Metadata) WithBool(key string, value bool) Metadata {
	return m.With(key, strconv.FormatBool(value))
}

// Bool reads a boolean header; missing or malformed values are false.
func (m Metadata) Bool(key string) bool {
	b, _ := strconv.ParseBool(m[key])
	return b
}

// WithTrace copies the trace and span IDs of the span in ctx, if any.
func (m Metadata) WithTrace(ctx context.Context) Metadata {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return m.Clone()
	}
	return m.WithAll(Metadata{
		KeyTraceID: sc.TraceID().String(),
		KeySpanID:  sc.SpanID().String(),
	})
}

// FromWatermill copies watermill message metadata.
func FromWatermill(md message.Metadata) Metadata {
	return Metadata(md).Clone()
}

// ToWatermill copies m into watermill message metadata.
func ToWatermill(m Metadata) message.Metadata {
	return message.Metadata(m.Clone())
}
