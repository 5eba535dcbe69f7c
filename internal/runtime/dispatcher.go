package runtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/drblury/hookbus/internal/runtime/commands"
	configpkg "github.com/drblury/hookbus/internal/runtime/config"
	"github.com/drblury/hookbus/internal/runtime/core"
	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/internal/runtime/events"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
	relaypkg "github.com/drblury/hookbus/internal/runtime/relay"
)

const tracerName = "hookbus-dispatcher"

// EventHandler receives dispatched events.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev events.Event) error
}

// Listener is an EventHandler that declares the kinds it wants.
type Listener interface {
	EventHandler
	Kinds() []events.Kind
}

// PriorityListener supplies HandlerOptions.Priority for Register.
type PriorityListener interface {
	Priority() int
}

// SecondaryListener supplies HandlerOptions.Secondary for Register.
type SecondaryListener interface {
	Secondary() bool
}

// CancelObserver supplies HandlerOptions.IgnoreCancelled for Register.
type CancelObserver interface {
	IgnoreCancelled() bool
}

// Dependencies holds the optional collaborators of a Dispatcher. Nil fields
// fall back to the bundled core module, a logger-backed sink, the default
// Prometheus registerer and the global tracer provider.
type Dependencies struct {
	// Core is the forced-last event listener.
	Core EventHandler
	// CoreCommands is the final command fallback.
	CoreCommands commands.Listener
	// NativeCommands is consulted before CoreCommands.
	NativeCommands commands.Listener
	// Announcer is handed to the default core module.
	Announcer core.Announcer

	Catalog *events.Catalog
	Hooks   DispatchHooks
	Sink    LogSink
	// Registerer receives the dispatch metrics. When it is also a Gatherer
	// the introspection /metrics endpoint serves from it.
	Registerer     prometheus.Registerer
	TracerProvider trace.TracerProvider
}

// Dispatcher owns the listener registry for the life of the process. Pass
// it to every module that needs to publish or subscribe.
type Dispatcher struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	registry *registry
	catalog  *events.Catalog

	core           EventHandler
	coreHandler    *HandlerDescriptor
	coreCommands   commands.Listener
	nativeCommands commands.Listener

	// cmdMu serialises command handling end to end.
	cmdMu sync.Mutex

	hooks    DispatchHooks
	sink     LogSink
	metrics  *DispatchMetrics
	gatherer prometheus.Gatherer
	tracer   trace.Tracer

	relayMu sync.Mutex
	relays  []*relaypkg.Relay

	closed atomic.Bool
}

// NewDispatcher validates conf and wires the dispatcher.
func NewDispatcher(conf *configpkg.Config, log loggingpkg.ServiceLogger, deps Dependencies) (*Dispatcher, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if err := conf.Validate(); err != nil {
		return nil, errspkg.NewConfigValidationError(err)
	}

	d := &Dispatcher{
		Conf:           conf,
		Logger:         log,
		registry:       newRegistry(),
		catalog:        deps.Catalog,
		core:           deps.Core,
		coreCommands:   deps.CoreCommands,
		nativeCommands: deps.NativeCommands,
		hooks:          deps.Hooks,
		sink:           deps.Sink,
	}

	if d.catalog == nil {
		d.catalog = events.DefaultCatalog
	}
	if d.core == nil || d.coreCommands == nil {
		module := core.New(conf, log, deps.Announcer)
		if d.core == nil {
			d.core = module
		}
		if d.coreCommands == nil {
			d.coreCommands = module
		}
	}
	d.coreHandler = newDescriptor("", HandlerOptions{Owner: ownerOf(d.core), Name: "core"}, d.core.HandleEvent, "")
	if d.nativeCommands == nil {
		d.nativeCommands = core.NewNative()
	}
	if d.sink == nil {
		d.sink = NewLoggerSink(log)
	}

	tp := deps.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	d.tracer = tp.Tracer(tracerName)

	d.metrics = NewDispatchMetrics(conf.MetricsNamespace, deps.Registerer)
	d.gatherer = prometheus.DefaultGatherer
	if g, ok := deps.Registerer.(prometheus.Gatherer); ok {
		d.gatherer = g
	}
	if conf.MetricsEnabled {
		if err := d.metrics.Register(); err != nil {
			return nil, err
		}
	}

	log.Info("Creating dispatcher", loggingpkg.LogFields{
		"debug":   conf.Debug,
		"metrics": conf.MetricsEnabled,
		"config":  conf,
	})
	return d, nil
}

// MustNewDispatcher panics when NewDispatcher fails.
func MustNewDispatcher(conf *configpkg.Config, log loggingpkg.ServiceLogger, deps Dependencies) *Dispatcher {
	d, err := NewDispatcher(conf, log, deps)
	if err != nil {
		panic(err)
	}
	return d
}

// Catalog returns the kind catalog used to validate handlers.
func (d *Dispatcher) Catalog() *events.Catalog { return d.catalog }

// Metrics returns the dispatcher's metric collectors.
func (d *Dispatcher) Metrics() *DispatchMetrics { return d.metrics }

// Close clears every listener list and closes attached relays. Later
// dispatches return their event untouched and later registrations fail
// with ErrDispatcherClosed. A command already in flight finishes on the
// listener snapshot it started with, so Close may be called from a listener.
func (d *Dispatcher) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	d.registry.clear()
	d.closeRelays()
	d.Logger.Info("Dispatcher closed", nil)
	return nil
}

// Closed reports whether Close has been called.
func (d *Dispatcher) Closed() bool { return d.closed.Load() }

// Handlers returns the ordered descriptors registered for kind, including
// disabled ones.
func (d *Dispatcher) Handlers(kind events.Kind) []*HandlerDescriptor {
	return d.registry.handlersFor(kind)
}

// Kinds lists the kinds that currently have descriptors.
func (d *Dispatcher) Kinds() []events.Kind { return d.registry.kinds() }

// CommandTokens lists the tokens that currently have listeners.
func (d *Dispatcher) CommandTokens() []string { return d.registry.tokens() }

// CommandListeners returns the listeners registered under token in
// registration order.
func (d *Dispatcher) CommandListeners(token string) []commands.Listener {
	bindings := d.registry.commandsFor(commands.NormalizeToken(token))
	out := make([]commands.Listener, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, b.listener)
	}
	return out
}

// DispatchOption tunes a single Dispatch or HandleCommand call.
type DispatchOption func(*dispatchOptions)

type dispatchOptions struct {
	log bool
}

// WithoutLog skips the log fan-out for this call.
func WithoutLog() DispatchOption {
	return func(o *dispatchOptions) { o.log = false }
}

// WithLog sets whether the call is logged.
func WithLog(log bool) DispatchOption {
	return func(o *dispatchOptions) { o.log = log }
}

func applyDispatchOptions(opts []DispatchOption) dispatchOptions {
	o := dispatchOptions{log: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
