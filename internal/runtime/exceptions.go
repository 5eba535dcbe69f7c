package runtime

import (
	"context"
	"errors"
	"runtime/debug"

	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/internal/runtime/events"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
)

// ExceptionListener is notified of every failure routed through
// HandleException.
type ExceptionListener interface {
	OnException(ctx context.Context, reason string, err error)
}

// ExceptionListenerFunc adapts a function to ExceptionListener.
type ExceptionListenerFunc func(ctx context.Context, reason string, err error)

func (f ExceptionListenerFunc) OnException(ctx context.Context, reason string, err error) {
	f(ctx, reason, err)
}

// HandleException reports err to every exception listener and then
// dispatches a ThrowableEvent. A failing exception listener is logged and
// never re-reported.
func (d *Dispatcher) HandleException(ctx context.Context, reason string, err error) {
	if err == nil {
		err = errors.New(reason)
	}
	if d.closed.Load() {
		return
	}

	for _, l := range d.registry.exceptionListeners() {
		d.callExceptionListener(ctx, l, reason, err)
	}
	d.Dispatch(ctx, events.NewThrowableEvent(reason, err), WithoutLog())
}

func (d *Dispatcher) callExceptionListener(ctx context.Context, l ExceptionListener, reason string, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.Logger.Error("Exception listener panicked", &errspkg.PanicError{Value: r, Stack: debug.Stack()}, loggingpkg.LogFields{
				"listener": describeOwner(l),
				"reason":   reason,
				"cause":    err.Error(),
			})
		}
	}()
	l.OnException(ctx, reason, err)
}
