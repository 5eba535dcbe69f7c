package runtime

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"sync/atomic"

	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/internal/runtime/events"
	idspkg "github.com/drblury/hookbus/internal/runtime/ids"
)

// EventHandlerFunc is the normalised callback stored in a descriptor.
type EventHandlerFunc func(ctx context.Context, ev events.Event) error

// HandlerOptions are declared at the registration call site.
type HandlerOptions struct {
	// Priority orders handlers of one kind; higher runs first.
	Priority int
	// IgnoreCancelled lets the handler observe events that arrive already
	// canceled.
	IgnoreCancelled bool
	// Secondary defers the handler to the phase after every primary one.
	Secondary bool
	// Owner groups descriptors for Unregister. It must be comparable.
	Owner any
	// Name labels the handler in logs and introspection.
	Name string
}

// HandlerDescriptor binds one callback to one event kind. Everything except
// the enabled flag is fixed at registration.
type HandlerDescriptor struct {
	id              string
	seq             uint64
	kind            events.Kind
	owner           any
	name            string
	priority        int
	ignoreCancelled bool
	secondary       bool
	invalid         string
	call            EventHandlerFunc

	disabled atomic.Bool
}

func newDescriptor(kind events.Kind, opts HandlerOptions, call EventHandlerFunc, invalid string) *HandlerDescriptor {
	d := &HandlerDescriptor{
		id:              idspkg.CreateULID(),
		kind:            kind,
		owner:           opts.Owner,
		name:            opts.Name,
		priority:        opts.Priority,
		ignoreCancelled: opts.IgnoreCancelled,
		secondary:       opts.Secondary,
		invalid:         invalid,
		call:            call,
	}
	if d.name == "" {
		d.name = describeOwner(opts.Owner)
	}
	return d
}

func (h *HandlerDescriptor) ID() string            { return h.id }
func (h *HandlerDescriptor) Seq() uint64           { return h.seq }
func (h *HandlerDescriptor) Kind() events.Kind     { return h.kind }
func (h *HandlerDescriptor) Owner() any            { return h.owner }
func (h *HandlerDescriptor) Name() string          { return h.name }
func (h *HandlerDescriptor) Priority() int         { return h.priority }
func (h *HandlerDescriptor) IgnoreCancelled() bool { return h.ignoreCancelled }
func (h *HandlerDescriptor) Secondary() bool       { return h.secondary }

// Valid reports whether the callback shape matched the kind.
func (h *HandlerDescriptor) Valid() bool { return h.invalid == "" }

// InvalidReason explains why the descriptor was stored disabled.
func (h *HandlerDescriptor) InvalidReason() string { return h.invalid }

// Enabled is false for invalid descriptors and for handlers disabled after
// failing.
func (h *HandlerDescriptor) Enabled() bool { return h.invalid == "" && !h.disabled.Load() }

func (h *HandlerDescriptor) disable() { h.disabled.Store(true) }

func (h *HandlerDescriptor) String() string {
	return fmt.Sprintf("%s{kind=%s priority=%d id=%s}", h.name, h.kind, h.priority, h.id)
}

// compareDescriptors sorts by descending priority, then by registration
// order.
func compareDescriptors(a, b *HandlerDescriptor) int {
	if c := cmp.Compare(b.priority, a.priority); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

// DescriptorInfo is the serialisable view used by introspection.
type DescriptorInfo struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	Name            string `json:"name"`
	Priority        int    `json:"priority"`
	IgnoreCancelled bool   `json:"ignore_cancelled"`
	Secondary       bool   `json:"secondary"`
	Enabled         bool   `json:"enabled"`
	InvalidReason   string `json:"invalid_reason,omitempty"`
}

func (h *HandlerDescriptor) Info() DescriptorInfo {
	return DescriptorInfo{
		ID:              h.id,
		Kind:            string(h.kind),
		Name:            h.name,
		Priority:        h.priority,
		IgnoreCancelled: h.ignoreCancelled,
		Secondary:       h.secondary,
		Enabled:         h.Enabled(),
		InvalidReason:   h.invalid,
	}
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	eventType   = reflect.TypeOf((*events.Event)(nil)).Elem()
)

// bindFunc adapts an arbitrary function to EventHandlerFunc. Accepted shapes
// are func(E), func(E) error, func(context.Context, E) and
// func(context.Context, E) error, where the kind's catalogued type must be
// assignable to E. A non-empty reason marks the shape invalid.
func bindFunc(catalog *events.Catalog, kind events.Kind, fn any) (EventHandlerFunc, string, error) {
	if fn == nil {
		return nil, "", errspkg.ErrHandlerRequired
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Sprintf("handler is a %s, not a function", t.Kind()), nil
	}
	if v.IsNil() {
		return nil, "", errspkg.ErrHandlerRequired
	}

	withCtx := t.NumIn() == 2 && t.In(0) == contextType
	params := t.NumIn()
	if withCtx {
		params--
	}
	if params != 1 || t.IsVariadic() {
		return nil, fmt.Sprintf("handler must take exactly one event, got %s", t), nil
	}
	param := t.In(t.NumIn() - 1)
	if reason := checkEventParam(catalog, kind, param); reason != "" {
		return nil, reason, nil
	}
	switch {
	case t.NumOut() == 0:
	case t.NumOut() == 1 && t.Out(0) == errorType:
	default:
		return nil, fmt.Sprintf("handler must return nothing or error, got %s", t), nil
	}

	call := func(ctx context.Context, ev events.Event) error {
		in := []reflect.Value{reflect.ValueOf(ev)}
		if withCtx {
			in = append([]reflect.Value{reflect.ValueOf(&ctx).Elem()}, in...)
		}
		if !in[len(in)-1].Type().AssignableTo(param) {
			return fmt.Errorf("hookbus: %s cannot be passed as %s", in[len(in)-1].Type(), param)
		}
		out := v.Call(in)
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}
	return call, "", nil
}

func checkEventParam(catalog *events.Catalog, kind events.Kind, param reflect.Type) string {
	if !param.Implements(eventType) && !(param.Kind() == reflect.Interface && eventType.Implements(param)) {
		return fmt.Sprintf("handler parameter %s is not an event", param)
	}
	if typ, ok := catalog.Lookup(kind); ok && !typ.AssignableTo(param) {
		return fmt.Sprintf("handler parameter %s does not accept %s (%s)", param, kind, typ)
	}
	return ""
}

func describeOwner(owner any) string {
	switch o := owner.(type) {
	case nil:
		return "handler"
	case fmt.Stringer:
		return o.String()
	case string:
		return o
	default:
		return fmt.Sprintf("%T", owner)
	}
}

// isComparable reports whether owner can be compared with ==.
func isComparable(owner any) bool {
	if owner == nil {
		return true
	}
	return reflect.TypeOf(owner).Comparable()
}
