// Package hookbus is the event and command dispatch core of a multiplayer
// server extension host. Extensions register listeners on a Dispatcher;
// the host publishes events (connects, chat, commands, generic messages)
// and the dispatcher delivers them to every interested listener in a
// deterministic order.
//
// # Dispatch
//
// Each event kind has its own listener list. Primary listeners run first
// in ascending priority, secondary listeners after them, and the bundled
// core module (or Dependencies.Core) always runs last unless the event was
// marked IgnoreCore. A listener that cancels an event hides it from every
// later listener except those registered with IgnoreCancelled. Handler
// errors and panics never escape Dispatch; they are reported to the
// registered exception listeners instead, and DisableFailingHandlers turns
// a failing listener off for the rest of the process.
//
// Subscribe binds a typed callback and checks its parameter type against
// the event Catalog. Register accepts any Listener value and derives the
// priority, secondary and cancel-observing flags from optional interfaces.
//
// # Commands
//
// HandleInput parses a raw line such as "/kick bob spamming", then offers
// the command to listeners registered for its token in registration
// order, followed by native and core command fallbacks. Permission
// checks, the generated /help listing and the unknown command reply are
// handled by the dispatcher.
//
// # Logging and relay
//
// Dispatched events produce LogEvents that are fanned out to LogListeners
// with a category taken from Config.LogCategories. EnableRelay forwards
// those log lines and reported exceptions as CloudEvents-shaped envelopes
// to one of the Watermill sinks under transport/: channel, kafka, rabbitmq,
// nats, nats-jetstream, aws (SNS), http or io. Import the sink packages,
// or transport/transports for all of them, before enabling the relay.
//
// # Observability
//
// DispatchHooks receive per-dispatch callbacks (see LoggingHooks,
// MetricsHooks and AlertingHooks), dispatch counters are exported to
// Prometheus, every dispatch is traced through OpenTelemetry, and
// ServeIntrospection exposes the registry, metrics and relay statistics
// over HTTP.
package hookbus
