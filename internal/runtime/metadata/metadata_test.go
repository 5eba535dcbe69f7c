package metadata

import (
	"context"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestCloneDoesNotAlias(t *testing.T) {
	original := Metadata{"a": "1", "b": "2"}
	clone := original.Clone()
	clone["a"] = "changed"

	assert.Equal(t, "1", original["a"])
	assert.Len(t, clone, 2)
}

func TestCloneNil(t *testing.T) {
	var m Metadata
	cloned := m.Clone()
	assert.NotNil(t, cloned)
	assert.Empty(t, cloned)
}

func TestWithAndWithAll(t *testing.T) {
	base := Metadata{KeyCategory: "hookbus"}

	enriched := base.With(KeyEventKind, "ChatEvent").WithAll(Metadata{KeyCategory: "hookbus-CHAT", "x": "y"})

	assert.Equal(t, Metadata{KeyCategory: "hookbus"}, base)
	assert.Equal(t, "hookbus-CHAT", enriched[KeyCategory])
	assert.Equal(t, "ChatEvent", enriched[KeyEventKind])
	assert.Equal(t, "y", enriched["x"])
}

func TestNew(t *testing.T) {
	assert.Equal(t, Metadata{"a": "1", "b": "2"}, New("a", "1", "b", "2", "dangling"))
	assert.Empty(t, New())
}

func TestBool(t *testing.T) {
	md := Metadata{}.WithBool(KeyImportant, true)
	assert.Equal(t, "true", md[KeyImportant])
	assert.True(t, md.Bool(KeyImportant))
	assert.False(t, Metadata{KeyImportant: "nope"}.Bool(KeyImportant))
	assert.False(t, Metadata{}.Bool(KeyImportant))
}

func TestWithTrace(t *testing.T) {
	t.Run("no span leaves metadata alone", func(t *testing.T) {
		md := Metadata{"a": "1"}.WithTrace(context.Background())
		assert.Equal(t, Metadata{"a": "1"}, md)
	})

	t.Run("copies ids from the span context", func(t *testing.T) {
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID: trace.TraceID{0x01, 0x02},
			SpanID:  trace.SpanID{0x03},
		})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)

		md := Metadata{}.WithTrace(ctx)
		assert.Equal(t, sc.TraceID().String(), md[KeyTraceID])
		assert.Equal(t, sc.SpanID().String(), md[KeySpanID])
	})
}

func TestWatermillRoundTrip(t *testing.T) {
	wm := message.Metadata{"a": "1"}
	md := FromWatermill(wm)
	md["b"] = "2"
	assert.Len(t, wm, 1)

	back := ToWatermill(md)
	assert.Equal(t, "2", back.Get("b"))
	assert.Empty(t, ToWatermill(nil))
}
