package logging

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// LogFields carries structured key/value pairs alongside a log line.
type LogFields map[string]any

// ServiceLogger is the logging contract used throughout the dispatcher, its
// fan-out pipelines and the relay transports. It is shaped after Watermill's
// LoggerAdapter so either side can be adapted to the other.
type ServiceLogger interface {
	With(fields LogFields) ServiceLogger
	Debug(msg string, fields LogFields)
	Info(msg string, fields LogFields)
	Error(msg string, err error, fields LogFields)
	Trace(msg string, fields LogFields)
}

// EntryLoggerAdapter is satisfied by logrus-style entry loggers whose
// WithField/WithError return their own concrete type.
type EntryLoggerAdapter[T any] interface {
	Error(args ...any)
	Info(args ...any)
	Debug(args ...any)
	Trace(args ...any)
	WithError(err error) T
	WithField(key string, value any) T
}

var slogLevels = map[slog.Level]slog.Level{
	slog.LevelDebug: slog.LevelDebug,
	slog.LevelInfo:  slog.LevelInfo,
	slog.LevelWarn:  slog.LevelWarn,
	slog.LevelError: slog.LevelError,
}

// NewSlogServiceLogger adapts a slog.Logger through Watermill's slog bridge.
func NewSlogServiceLogger(log *slog.Logger) ServiceLogger {
	if log == nil {
		panic("hookbus: slog logger cannot be nil")
	}
	return NewWatermillServiceLogger(watermill.NewSlogLoggerWithLevelMapping(log, slogLevels))
}

// NewWatermillServiceLogger wraps a Watermill LoggerAdapter.
func NewWatermillServiceLogger(logger watermill.LoggerAdapter) ServiceLogger {
	if logger == nil {
		panic("hookbus: watermill logger cannot be nil")
	}
	return &watermillLogger{inner: logger}
}

// NewEntryServiceLogger wraps an entry-style logger such as *logrus.Entry.
func NewEntryServiceLogger[T EntryLoggerAdapter[T]](entry T) ServiceLogger {
	if any(entry) == nil {
		panic("hookbus: entry logger cannot be nil")
	}
	return &entryLogger[T]{entry: entry}
}

// NewNopServiceLogger discards everything. Used when a collaborator is built
// without a logger.
func NewNopServiceLogger() ServiceLogger {
	return NewWatermillServiceLogger(watermill.NopLogger{})
}

// NewWatermillAdapter exposes a ServiceLogger as a Watermill LoggerAdapter so
// relay publishers log through the same sink as the dispatcher.
func NewWatermillAdapter(log ServiceLogger) watermill.LoggerAdapter {
	if log == nil {
		panic("hookbus: ServiceLogger cannot be nil")
	}
	return &adapter{base: log}
}

type watermillLogger struct {
	inner watermill.LoggerAdapter
}

func (w *watermillLogger) With(fields LogFields) ServiceLogger {
	return &watermillLogger{inner: w.inner.With(toWatermill(fields))}
}

func (w *watermillLogger) Debug(msg string, fields LogFields) { w.inner.Debug(msg, toWatermill(fields)) }
func (w *watermillLogger) Info(msg string, fields LogFields)  { w.inner.Info(msg, toWatermill(fields)) }
func (w *watermillLogger) Trace(msg string, fields LogFields) { w.inner.Trace(msg, toWatermill(fields)) }

func (w *watermillLogger) Error(msg string, err error, fields LogFields) {
	w.inner.Error(msg, err, toWatermill(fields))
}

type entryLogger[T EntryLoggerAdapter[T]] struct {
	entry T
}

func (e *entryLogger[T]) With(fields LogFields) ServiceLogger {
	if len(fields) == 0 {
		return e
	}
	return &entryLogger[T]{entry: withEntryFields(e.entry, fields)}
}

func (e *entryLogger[T]) Debug(msg string, fields LogFields) { withEntryFields(e.entry, fields).Debug(msg) }
func (e *entryLogger[T]) Info(msg string, fields LogFields)  { withEntryFields(e.entry, fields).Info(msg) }
func (e *entryLogger[T]) Trace(msg string, fields LogFields) { withEntryFields(e.entry, fields).Trace(msg) }

func (e *entryLogger[T]) Error(msg string, err error, fields LogFields) {
	entry := withEntryFields(e.entry, fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

type adapter struct {
	base ServiceLogger
}

func (a *adapter) Error(msg string, err error, fields watermill.LogFields) {
	a.base.Error(msg, err, fromWatermill(fields))
}
func (a *adapter) Info(msg string, fields watermill.LogFields)  { a.base.Info(msg, fromWatermill(fields)) }
func (a *adapter) Debug(msg string, fields watermill.LogFields) { a.base.Debug(msg, fromWatermill(fields)) }
func (a *adapter) Trace(msg string, fields watermill.LogFields) { a.base.Trace(msg, fromWatermill(fields)) }

func (a *adapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &adapter{base: a.base.With(fromWatermill(fields))}
}

func toWatermill(fields LogFields) watermill.LogFields {
	if len(fields) == 0 {
		return nil
	}
	return watermill.LogFields(fields)
}

func fromWatermill(fields watermill.LogFields) LogFields {
	if len(fields) == 0 {
		return nil
	}
	return LogFields(fields)
}

func withEntryFields[T EntryLoggerAdapter[T]](entry T, fields LogFields) T {
	if len(fields) == 0 {
		return entry
	}
	for key, value := range fields {
		entry = entry.WithField(key, value)
	}
	return entry
}
