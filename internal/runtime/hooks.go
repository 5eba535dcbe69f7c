package runtime

import (
	"context"
	"time"

	"github.com/drblury/hookbus/internal/runtime/events"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
)

// Dispatch outcomes reported to hooks and metrics.
const (
	OutcomeHandled   = "handled"
	OutcomeUnhandled = "unhandled"
	OutcomeCanceled  = "canceled"
)

// DispatchContext describes one dispatch to hooks.
type DispatchContext struct {
	// Context is the context the dispatch was started with.
	Context context.Context
	// Kind is the kind of the dispatched event.
	Kind events.Kind
	// EventID is the event's ULID.
	EventID string
	// Event is the dispatched event itself.
	Event events.Event
	// StartedAt is when the dispatch began.
	StartedAt time.Time
	// Duration is how long the dispatch took (only set in OnDispatchDone).
	Duration time.Duration
	// Outcome is one of the Outcome constants (only set in OnDispatchDone).
	Outcome string
}

// DispatchHooks defines callbacks around a dispatch.
// All hooks are optional - nil hooks are simply not called.
type DispatchHooks struct {
	// OnDispatchStart is called before the first handler runs.
	OnDispatchStart func(ctx DispatchContext)

	// OnDispatchDone is called once the event has been through every phase.
	OnDispatchDone func(ctx DispatchContext)

	// OnListenerError is called for each handler that returned an error or
	// panicked. The handler keeps running for later events unless
	// DisableFailingHandlers is set.
	OnListenerError func(ctx DispatchContext, h *HandlerDescriptor, err error)
}

// Merge combines two DispatchHooks. The hooks from other are called after
// the hooks from h.
func (h DispatchHooks) Merge(other DispatchHooks) DispatchHooks {
	return DispatchHooks{
		OnDispatchStart: chainDispatchHooks(h.OnDispatchStart, other.OnDispatchStart),
		OnDispatchDone:  chainDispatchHooks(h.OnDispatchDone, other.OnDispatchDone),
		OnListenerError: chainListenerErrorHooks(h.OnListenerError, other.OnListenerError),
	}
}

func chainDispatchHooks(a, b func(DispatchContext)) func(DispatchContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DispatchContext) {
		a(ctx)
		b(ctx)
	}
}

func chainListenerErrorHooks(a, b func(DispatchContext, *HandlerDescriptor, error)) func(DispatchContext, *HandlerDescriptor, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DispatchContext, h *HandlerDescriptor, err error) {
		a(ctx, h, err)
		b(ctx, h, err)
	}
}

// LoggingHooks returns hooks that trace every dispatch at debug level and
// listener failures at error level.
func LoggingHooks(logger loggingpkg.ServiceLogger) DispatchHooks {
	return DispatchHooks{
		OnDispatchStart: func(ctx DispatchContext) {
			logger.Debug("Dispatch started", loggingpkg.LogFields{
				"event_kind": string(ctx.Kind),
				"event_id":   ctx.EventID,
			})
		},
		OnDispatchDone: func(ctx DispatchContext) {
			logger.Debug("Dispatch completed", loggingpkg.LogFields{
				"event_kind":  string(ctx.Kind),
				"event_id":    ctx.EventID,
				"outcome":     ctx.Outcome,
				"duration_ms": ctx.Duration.Milliseconds(),
			})
		},
		OnListenerError: func(ctx DispatchContext, h *HandlerDescriptor, err error) {
			logger.Error("Listener failed", err, loggingpkg.LogFields{
				"event_kind": string(ctx.Kind),
				"event_id":   ctx.EventID,
				"listener":   h.Name(),
			})
		},
	}
}

// MetricsHooks returns hooks that forward the kind and outcome to plain
// callbacks, for hosts that keep their own counters.
func MetricsHooks(onDone func(kind events.Kind, outcome string), onError func(kind events.Kind, listener string)) DispatchHooks {
	return DispatchHooks{
		OnDispatchDone: func(ctx DispatchContext) {
			if onDone != nil {
				onDone(ctx.Kind, ctx.Outcome)
			}
		},
		OnListenerError: func(ctx DispatchContext, h *HandlerDescriptor, err error) {
			if onError != nil {
				onError(ctx.Kind, h.Name())
			}
		},
	}
}

// AlertingHooks returns hooks that trigger alerts on listener failures.
func AlertingHooks(alertFunc func(ctx DispatchContext, h *HandlerDescriptor, err error)) DispatchHooks {
	return DispatchHooks{
		OnListenerError: alertFunc,
	}
}
