package runtime

import (
	"context"
	"fmt"
	"reflect"

	"github.com/drblury/hookbus/internal/runtime/commands"
	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/internal/runtime/events"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
)

// Register binds l to every kind it declares.
func (d *Dispatcher) Register(l Listener) ([]*HandlerDescriptor, error) {
	if l == nil {
		return nil, errspkg.ErrListenerRequired
	}
	kinds := l.Kinds()
	if len(kinds) == 0 {
		return nil, errspkg.ErrKindsRequired
	}
	out := make([]*HandlerDescriptor, 0, len(kinds))
	for _, kind := range kinds {
		h, err := d.RegisterFor(kind, l)
		if err != nil {
			return out, err
		}
		out = append(out, h)
	}
	return out, nil
}

// RegisterFor binds l to a single kind. Options come from the optional
// PriorityListener, SecondaryListener and CancelObserver interfaces.
func (d *Dispatcher) RegisterFor(kind events.Kind, l EventHandler) (*HandlerDescriptor, error) {
	if l == nil {
		return nil, errspkg.ErrListenerRequired
	}
	opts := HandlerOptions{Owner: l}
	if p, ok := l.(PriorityListener); ok {
		opts.Priority = p.Priority()
	}
	if s, ok := l.(SecondaryListener); ok {
		opts.Secondary = s.Secondary()
	}
	if c, ok := l.(CancelObserver); ok {
		opts.IgnoreCancelled = c.IgnoreCancelled()
	}
	return d.addHandler(kind, opts, l.HandleEvent, "")
}

// RegisterFunc binds an arbitrary function to kind. fn must take one event,
// optionally preceded by a context.Context, and return nothing or an error.
// Other shapes are stored disabled rather than rejected.
func (d *Dispatcher) RegisterFunc(kind events.Kind, fn any, opts HandlerOptions) (*HandlerDescriptor, error) {
	if kind == "" {
		return nil, errspkg.ErrKindRequired
	}
	call, invalid, err := bindFunc(d.catalog, kind, fn)
	if err != nil {
		return nil, err
	}
	if opts.Name == "" && opts.Owner == nil {
		opts.Name = fmt.Sprintf("%T", fn)
	}
	return d.addHandler(kind, opts, call, invalid)
}

// Subscribe binds a typed callback to kind. The descriptor is stored
// disabled when the catalog says kind carries a type other than E.
func Subscribe[E events.Event](d *Dispatcher, kind events.Kind, fn func(context.Context, E) error, opts HandlerOptions) (*HandlerDescriptor, error) {
	if d == nil {
		return nil, errspkg.ErrDispatcherRequired
	}
	if kind == "" {
		return nil, errspkg.ErrKindRequired
	}
	if fn == nil {
		return nil, errspkg.ErrHandlerRequired
	}

	var zero E
	invalid := ""
	if typ, ok := d.catalog.Lookup(kind); ok {
		if param := reflect.TypeFor[E](); !typ.AssignableTo(param) {
			invalid = fmt.Sprintf("handler parameter %T does not accept %s (%s)", zero, kind, typ)
		}
	}
	if opts.Name == "" && opts.Owner == nil {
		opts.Name = fmt.Sprintf("func(%T)", zero)
	}

	call := func(ctx context.Context, ev events.Event) error {
		typed, ok := ev.(E)
		if !ok {
			return fmt.Errorf("hookbus: %T cannot be passed as %T", ev, zero)
		}
		return fn(ctx, typed)
	}
	return d.addHandler(kind, opts, call, invalid)
}

func (d *Dispatcher) addHandler(kind events.Kind, opts HandlerOptions, call EventHandlerFunc, invalid string) (*HandlerDescriptor, error) {
	if d.closed.Load() {
		return nil, errspkg.ErrDispatcherClosed
	}
	if kind == "" {
		return nil, errspkg.ErrKindRequired
	}
	if !isComparable(opts.Owner) {
		return nil, errspkg.ErrOwnerNotComparable
	}

	h := newDescriptor(kind, opts, call, invalid)
	d.registry.addHandler(h)

	fields := loggingpkg.LogFields{
		"kind":       string(kind),
		"handler":    h.Name(),
		"handler_id": h.ID(),
		"priority":   h.Priority(),
		"secondary":  h.Secondary(),
	}
	if invalid != "" {
		fields["reason"] = invalid
		if d.Conf.Debug {
			d.Logger.Info("Handler registered disabled", fields)
		} else {
			d.Logger.Debug("Handler registered disabled", fields)
		}
		return h, nil
	}
	d.Logger.Debug("Handler registered", fields)
	return h, nil
}

// Unregister removes everything owned by owner: event descriptors, command
// bindings and log or exception registrations. Unknown owners are a no-op.
func (d *Dispatcher) Unregister(owner any) error {
	if owner == nil {
		return errspkg.ErrListenerRequired
	}
	if !isComparable(owner) {
		return errspkg.ErrOwnerNotComparable
	}

	removed := d.registry.removeHandlers(func(h *HandlerDescriptor) bool { return h.owner == owner })
	removed += d.registry.removeCommands(func(b *commandBinding) bool { return sameListener(b.listener, owner) })
	if l, ok := owner.(LogListener); ok {
		d.registry.removeLog(l)
	}
	if l, ok := owner.(ExceptionListener); ok {
		d.registry.removeException(l)
	}

	if removed > 0 {
		d.Logger.Debug("Listener unregistered", loggingpkg.LogFields{"owner": describeOwner(owner), "removed": removed})
	}
	return nil
}

// UnregisterHandler removes a single descriptor.
func (d *Dispatcher) UnregisterHandler(h *HandlerDescriptor) bool {
	if h == nil {
		return false
	}
	return d.registry.removeHandlers(func(x *HandlerDescriptor) bool { return x == h }) > 0
}

// CommandOption tunes a command registration.
type CommandOption func(*commandOptions)

type commandOptions struct {
	permissions []string
}

// WithPermissions requires the actor to hold every node before the listener
// is invoked.
func WithPermissions(nodes ...string) CommandOption {
	return func(o *commandOptions) { o.permissions = append(o.permissions, nodes...) }
}

// RegisterCommandListener adds l under token. Tokens are case-insensitive;
// "*" registers for every command.
func (d *Dispatcher) RegisterCommandListener(token string, l commands.Listener, opts ...CommandOption) error {
	if l == nil {
		return errspkg.ErrListenerRequired
	}
	token = commands.NormalizeToken(token)
	if token == "" {
		return errspkg.ErrCommandTokenRequired
	}
	if d.closed.Load() {
		return errspkg.ErrDispatcherClosed
	}

	var o commandOptions
	for _, opt := range opts {
		opt(&o)
	}
	d.registry.addCommand(token, l, o.permissions)
	d.Logger.Debug("Command listener registered", loggingpkg.LogFields{
		"token":       token,
		"listener":    describeOwner(l),
		"permissions": o.permissions,
	})
	return nil
}

// RegisterCommands adds l under every token it declares.
func (d *Dispatcher) RegisterCommands(l commands.Listener, opts ...CommandOption) error {
	if l == nil {
		return errspkg.ErrListenerRequired
	}
	tokens := l.Commands()
	if len(tokens) == 0 {
		return errspkg.ErrCommandTokenRequired
	}
	for _, token := range tokens {
		if err := d.RegisterCommandListener(token, l, opts...); err != nil {
			return err
		}
	}
	return nil
}

// UnregisterCommandListener removes l from token only.
func (d *Dispatcher) UnregisterCommandListener(token string, l commands.Listener) error {
	if l == nil {
		return errspkg.ErrListenerRequired
	}
	token = commands.NormalizeToken(token)
	d.registry.removeCommands(func(b *commandBinding) bool {
		return b.token == token && sameListener(b.listener, l)
	})
	return nil
}

// UnregisterCommands removes l from every token.
func (d *Dispatcher) UnregisterCommands(l commands.Listener) error {
	if l == nil {
		return errspkg.ErrListenerRequired
	}
	d.registry.removeCommands(func(b *commandBinding) bool { return sameListener(b.listener, l) })
	return nil
}

// RegisterLogListener adds l to the log fan-out. Registering the same
// listener twice has no effect.
func (d *Dispatcher) RegisterLogListener(l LogListener) error {
	if l == nil {
		return errspkg.ErrListenerRequired
	}
	if d.closed.Load() {
		return errspkg.ErrDispatcherClosed
	}
	d.registry.addLog(l)
	return nil
}

func (d *Dispatcher) UnregisterLogListener(l LogListener) error {
	if l == nil {
		return errspkg.ErrListenerRequired
	}
	d.registry.removeLog(l)
	return nil
}

// RegisterExceptionListener adds l to the exception fan-out. Registering the
// same listener twice has no effect.
func (d *Dispatcher) RegisterExceptionListener(l ExceptionListener) error {
	if l == nil {
		return errspkg.ErrListenerRequired
	}
	if d.closed.Load() {
		return errspkg.ErrDispatcherClosed
	}
	d.registry.addException(l)
	return nil
}

func (d *Dispatcher) UnregisterExceptionListener(l ExceptionListener) error {
	if l == nil {
		return errspkg.ErrListenerRequired
	}
	d.registry.removeException(l)
	return nil
}
