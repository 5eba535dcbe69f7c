package runtime

import (
	"context"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/drblury/hookbus/internal/runtime/actor"
	"github.com/drblury/hookbus/internal/runtime/commands"
	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/internal/runtime/events"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
	"github.com/drblury/hookbus/internal/runtime/markup"
)

const noActorMessage = "Commands must be issued by a player or the console."

// HandleCommand wraps cmd in a CommandEvent and runs it through the command
// pipeline. The returned event's Response is always set, even when no
// listener recognised the command.
func (d *Dispatcher) HandleCommand(ctx context.Context, cmd *commands.Command, opts ...DispatchOption) (*events.CommandEvent, error) {
	if cmd == nil {
		return nil, errspkg.ErrCommandRequired
	}
	ev := events.NewCommandEvent(cmd)
	d.handleCommandEvent(ctx, ev, applyDispatchOptions(opts))
	return ev, nil
}

// HandleInput parses a raw command line issued by a and handles it.
func (d *Dispatcher) HandleInput(ctx context.Context, a actor.Actor, raw string, opts ...DispatchOption) (*events.CommandEvent, error) {
	if a == nil {
		return nil, errspkg.ErrActorRequired
	}
	cmd, err := commands.Parse(raw)
	if err != nil {
		return nil, err
	}
	cmd.SetActor(a)
	return d.HandleCommand(ctx, cmd, opts...)
}

const noCommandMessage = "No command was given."

// commandLockKey marks a context whose command pipeline already holds cmdMu.
type commandLockKey struct{}

// lockCommands acquires cmdMu unless ctx descends from a pipeline of d that
// already holds it, so listeners can issue nested commands with the context
// they were given.
func (d *Dispatcher) lockCommands(ctx context.Context) (context.Context, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	if owner, _ := ctx.Value(commandLockKey{}).(*Dispatcher); owner == d {
		return ctx, func() {}
	}
	d.cmdMu.Lock()
	return context.WithValue(ctx, commandLockKey{}, d), d.cmdMu.Unlock
}

// handleCommandEvent holds cmdMu for the whole pipeline, logging included,
// so commands and their log lines are totally ordered.
func (d *Dispatcher) handleCommandEvent(ctx context.Context, ev *events.CommandEvent, o dispatchOptions) {
	ctx, unlock := d.lockCommands(ctx)
	defer unlock()

	if d.closed.Load() {
		return
	}
	if ev.Response == nil {
		ev.Response = commands.NewResponse()
	}
	if ev.Command == nil {
		ev.Response.Set(commands.ResultFailure, noCommandMessage)
		d.Logger.Error("Command event without command", errspkg.ErrCommandRequired, loggingpkg.LogFields{"event_id": ev.ID()})
		return
	}
	cmd, resp := ev.Command, ev.Response

	ctx, span := d.tracer.Start(ctx, "hookbus.command "+cmd.Token(), trace.WithAttributes(
		attribute.String("command.token", cmd.Token()),
		attribute.String("event.id", ev.ID()),
	))
	defer span.End()

	dc := DispatchContext{
		Context:   ctx,
		Kind:      events.KindCommand,
		EventID:   ev.ID(),
		Event:     ev,
		StartedAt: time.Now(),
	}
	if d.hooks.OnDispatchStart != nil {
		d.hooks.OnDispatchStart(dc)
	}

	a := cmd.Actor()
	switch {
	case a == nil:
		resp.Set(commands.ResultFailure, noActorMessage)
		d.Logger.Debug("Command without actor rejected", loggingpkg.LogFields{"token": cmd.Token()})
	case cmd.Token() == commands.HelpToken:
		d.help(a, resp)
	default:
		d.runCommandChain(ctx, ev, a)
	}
	ev.SetHandled(resp.Handled())

	if o.log && resp.LogMessage() != "" {
		d.LogEvent(ctx, ev, resp.Important())
	}
	if a != nil && !a.Connected() {
		resp.SetMessage(markup.Strip(resp.Message()))
	}

	dc.Duration = time.Since(dc.StartedAt)
	dc.Outcome = outcomeOf(ev)
	span.SetAttributes(attribute.String("command.result", resp.Result().String()))
	d.metrics.RecordCommand(cmd.Token(), resp.Result().String())
	d.metrics.RecordDispatch(events.KindCommand, dc.Outcome, dc.Duration)
	if d.hooks.OnDispatchDone != nil {
		d.hooks.OnDispatchDone(dc)
	}
}

// runCommandChain offers the command to token listeners, then "*" listeners,
// then the native fallback and finally core, stopping once the response is
// handled.
func (d *Dispatcher) runCommandChain(ctx context.Context, ev *events.CommandEvent, a actor.Actor) {
	resp := ev.Response
	token := ev.Command.Token()

	ran, denied := d.offerCommand(ctx, ev, a, d.registry.commandsFor(token))
	if !resp.Handled() && denied && !ran {
		resp.Deny(d.Conf.PermissionDeniedMessage)
		return
	}
	if !resp.Handled() {
		d.offerCommand(ctx, ev, a, d.registry.commandsFor(commands.WildcardToken))
	}
	for _, fallback := range []commands.Listener{d.nativeCommands, d.coreCommands} {
		if resp.Handled() {
			return
		}
		d.callCommand(ctx, ev, fallback, nil)
	}
}

// offerCommand invokes bindings in order until the response is handled. It
// reports whether any listener ran and whether any was skipped for lack of
// permission.
func (d *Dispatcher) offerCommand(ctx context.Context, ev *events.CommandEvent, a actor.Actor, bindings []*commandBinding) (ran, denied bool) {
	for _, b := range bindings {
		if ev.Response.Handled() {
			return ran, denied
		}
		if b.disabled.Load() {
			continue
		}
		if !a.HasPermission(b.permissions...) {
			denied = true
			continue
		}
		ran = true
		d.callCommand(ctx, ev, b.listener, b)
	}
	return ran, denied
}

func (d *Dispatcher) callCommand(ctx context.Context, ev *events.CommandEvent, l commands.Listener, b *commandBinding) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &errspkg.PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		return l.OnCommand(ctx, ev.Command, ev.Response)
	}()
	if err == nil {
		return
	}

	name := describeOwner(l)
	lerr := &errspkg.ListenerError{Listener: name, Kind: string(events.KindCommand), Err: err}
	d.Logger.Error("Command listener failed", lerr, loggingpkg.LogFields{
		"event":    ev.String(),
		"event_id": ev.ID(),
		"token":    ev.Command.Token(),
		"listener": name,
	})
	span := trace.SpanFromContext(ctx)
	span.RecordError(lerr)
	span.SetStatus(codes.Error, "command listener failed")
	d.metrics.RecordListenerFailure(events.KindCommand)

	if b != nil && d.Conf.DisableFailingHandlers {
		b.disabled.Store(true)
		d.Logger.Info("Command listener disabled after failure", loggingpkg.LogFields{
			"listener": name,
			"token":    b.token,
		})
	}
	d.HandleException(ctx, "Error while handling command "+ev.Command.Token()+" in "+name, lerr)
}
