package runtime

import (
	"context"
	"runtime/debug"

	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/internal/runtime/events"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
)

// LogListener receives every log entry the dispatcher produces.
type LogListener interface {
	OnLogEntry(ctx context.Context, entry *events.LogEvent)
}

// LogListenerFunc adapts a function to LogListener. Function values are not
// comparable, so register a pointer to one if it must be removed later.
type LogListenerFunc func(ctx context.Context, entry *events.LogEvent)

func (f LogListenerFunc) OnLogEntry(ctx context.Context, entry *events.LogEvent) { f(ctx, entry) }

// LogSink is the final destination of a log entry, after listeners and the
// LogEvent dispatch.
type LogSink interface {
	Write(ctx context.Context, category string, entry *events.LogEvent)
}

type loggerSink struct {
	logger loggingpkg.ServiceLogger
}

// NewLoggerSink writes entries through a ServiceLogger.
func NewLoggerSink(logger loggingpkg.ServiceLogger) LogSink {
	return &loggerSink{logger: logger}
}

func (s *loggerSink) Write(_ context.Context, category string, entry *events.LogEvent) {
	if entry.Message == "" {
		return
	}
	fields := loggingpkg.LogFields{
		"category": category,
		"kind":     string(entry.Source.Kind()),
	}
	if entry.Important() {
		fields["important"] = true
		fields["tag"] = "IMPORTANT"
	}
	s.logger.Info(entry.Message, fields)
}

// LogEvent runs ev through the log pipeline: registered log listeners, a
// LogEvent dispatch that is not itself logged, and finally the sink.
func (d *Dispatcher) LogEvent(ctx context.Context, ev events.Event, important bool) *events.LogEvent {
	entry := events.NewLogEvent(ev, important)
	if d.closed.Load() {
		return entry
	}

	for _, l := range d.registry.logListeners() {
		d.callLogListener(ctx, l, entry)
	}
	d.Dispatch(ctx, entry, WithoutLog())
	d.sink.Write(ctx, d.Conf.Category(string(ev.Kind())), entry)
	return entry
}

func (d *Dispatcher) callLogListener(ctx context.Context, l LogListener, entry *events.LogEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.Logger.Error("Log listener panicked", &errspkg.PanicError{Value: r, Stack: debug.Stack()}, loggingpkg.LogFields{
				"listener": describeOwner(l),
				"event_id": entry.ID(),
			})
		}
	}()
	l.OnLogEntry(ctx, entry)
}
