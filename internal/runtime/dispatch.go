package runtime

import (
	"context"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/internal/runtime/events"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
)

const (
	phasePrimary   = "primary"
	phaseSecondary = "secondary"
	phaseCore      = "core"
	phaseCanceled  = "canceled"
)

// Dispatch runs ev through its handlers and returns it.
//
// Primary handlers run first, then secondary ones, each phase in priority
// order. Canceling stops everything that follows, including the core
// listener and logging. Marking the event handled only ends the current
// phase; later phases still see the flag. The core listener runs last unless the event was canceled or asked
// to skip it. Events that arrive already canceled are shown only to handlers
// registered with IgnoreCancelled.
//
// Command events are routed to the command pipeline instead.
func (d *Dispatcher) Dispatch(ctx context.Context, ev events.Event, opts ...DispatchOption) events.Event {
	if ev == nil {
		d.Logger.Error("Dispatch called without event", errspkg.ErrEventRequired, nil)
		return nil
	}
	if ce, ok := ev.(*events.CommandEvent); ok {
		d.handleCommandEvent(ctx, ce, applyDispatchOptions(opts))
		return ce
	}
	if d.closed.Load() {
		return ev
	}
	o := applyDispatchOptions(opts)

	ctx, span := d.tracer.Start(ctx, "hookbus.dispatch "+string(ev.Kind()), trace.WithAttributes(
		attribute.String("event.kind", string(ev.Kind())),
		attribute.String("event.id", ev.ID()),
	))
	defer span.End()

	dc := DispatchContext{
		Context:   ctx,
		Kind:      ev.Kind(),
		EventID:   ev.ID(),
		Event:     ev,
		StartedAt: time.Now(),
	}
	if d.hooks.OnDispatchStart != nil {
		d.hooks.OnDispatchStart(dc)
	}

	if ev.Canceled() {
		d.runCanceled(dc, ev)
	} else {
		d.runPhases(dc, ev)
	}

	if o.log && shouldLog(ev) {
		d.LogEvent(ctx, ev, false)
	}

	dc.Duration = time.Since(dc.StartedAt)
	dc.Outcome = outcomeOf(ev)
	span.SetAttributes(attribute.String("dispatch.outcome", dc.Outcome))
	d.metrics.RecordDispatch(ev.Kind(), dc.Outcome, dc.Duration)
	if d.hooks.OnDispatchDone != nil {
		d.hooks.OnDispatchDone(dc)
	}
	return ev
}

func (d *Dispatcher) runPhases(dc DispatchContext, ev events.Event) {
	handlers := d.registry.handlersFor(ev.Kind())
	for _, phase := range []string{phasePrimary, phaseSecondary} {
		secondary := phase == phaseSecondary
		for _, h := range handlers {
			if h.Secondary() != secondary || !h.Enabled() || d.isCore(h) {
				continue
			}
			was := ev.Handled()
			d.invoke(dc, h, ev, phase)
			if ev.Canceled() {
				return
			}
			// A phase ends when one of its own handlers marks the event.
			if !was && ev.Handled() {
				break
			}
		}
	}

	if !ev.IgnoreCore() {
		d.invoke(dc, d.coreHandler, ev, phaseCore)
	}
}

// runCanceled shows an event that arrived canceled to the handlers that
// asked to see such events. Nothing they do changes the outcome.
func (d *Dispatcher) runCanceled(dc DispatchContext, ev events.Event) {
	handlers := d.registry.handlersFor(ev.Kind())
	for _, secondary := range []bool{false, true} {
		for _, h := range handlers {
			if h.Secondary() != secondary || !h.IgnoreCancelled() || !h.Enabled() || d.isCore(h) {
				continue
			}
			d.invoke(dc, h, ev, phaseCanceled)
		}
	}
}

func (d *Dispatcher) isCore(h *HandlerDescriptor) bool {
	return h.owner != nil && sameListener(h.owner, d.coreHandler.owner)
}

func (d *Dispatcher) invoke(dc DispatchContext, h *HandlerDescriptor, ev events.Event, phase string) {
	if err := callHandler(dc.Context, h, ev); err != nil {
		d.listenerFailed(dc, h, ev, phase, err)
	}
}

func callHandler(ctx context.Context, h *HandlerDescriptor, ev events.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &errspkg.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return h.call(ctx, ev)
}

// listenerFailed logs a failing handler and reports it. Failures while
// handling a ThrowableEvent are only logged so a broken exception handler
// cannot feed itself.
func (d *Dispatcher) listenerFailed(dc DispatchContext, h *HandlerDescriptor, ev events.Event, phase string, err error) {
	lerr := &errspkg.ListenerError{Listener: h.Name(), Kind: string(ev.Kind()), Err: err}

	d.Logger.Error("Listener failed", lerr, loggingpkg.LogFields{
		"event":       ev.String(),
		"event_kind":  string(ev.Kind()),
		"event_id":    ev.ID(),
		"listener":    h.String(),
		"listener_id": h.ID(),
		"phase":       phase,
	})
	span := trace.SpanFromContext(dc.Context)
	span.RecordError(lerr)
	span.SetStatus(codes.Error, "listener failed")
	d.metrics.RecordListenerFailure(ev.Kind())
	if d.hooks.OnListenerError != nil {
		d.hooks.OnListenerError(dc, h, lerr)
	}

	if d.Conf.DisableFailingHandlers && h != d.coreHandler {
		h.disable()
		d.Logger.Info("Handler disabled after failure", loggingpkg.LogFields{
			"listener":    h.String(),
			"listener_id": h.ID(),
		})
	}
	if ev.Kind() != events.KindThrowable {
		d.HandleException(dc.Context, "Error while dispatching "+string(ev.Kind())+" to "+h.Name(), lerr)
	}
}

// shouldLog excludes the log pipeline's own events to keep it from feeding
// itself.
func shouldLog(ev events.Event) bool {
	if ev.Canceled() {
		return false
	}
	switch ev.Kind() {
	case events.KindLog, events.KindThrowable:
		return false
	}
	return ev.LogMessage() != ""
}

func outcomeOf(ev events.Event) string {
	switch {
	case ev.Canceled():
		return OutcomeCanceled
	case ev.Handled():
		return OutcomeHandled
	default:
		return OutcomeUnhandled
	}
}

// ownerOf returns v when it can serve as a registry owner.
func ownerOf(v any) any {
	if isComparable(v) {
		return v
	}
	return nil
}
