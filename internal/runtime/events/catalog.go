package events

import (
	"reflect"
	"slices"
	"sync"

	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
)

// Catalog records which concrete Go type travels under each kind. The
// dispatcher consults it to validate handler signatures at registration.
type Catalog struct {
	mu    sync.RWMutex
	types map[Kind]reflect.Type
}

// DefaultCatalog knows the built-in kinds.
var DefaultCatalog = NewCatalog()

// NewCatalog returns a catalog pre-populated with the built-in kinds.
func NewCatalog() *Catalog {
	c := &Catalog{types: make(map[Kind]reflect.Type)}
	c.types[KindConnect] = reflect.TypeOf((*ConnectEvent)(nil))
	c.types[KindDisconnect] = reflect.TypeOf((*DisconnectEvent)(nil))
	c.types[KindChat] = reflect.TypeOf((*ChatEvent)(nil))
	c.types[KindCommand] = reflect.TypeOf((*CommandEvent)(nil))
	c.types[KindLog] = reflect.TypeOf((*LogEvent)(nil))
	c.types[KindGeneric] = reflect.TypeOf((*GenericEvent)(nil))
	c.types[KindThrowable] = reflect.TypeOf((*ThrowableEvent)(nil))
	return c
}

// Define binds kind to the dynamic type of prototype. Redefining a kind with
// the same type is a no-op.
func (c *Catalog) Define(kind Kind, prototype Event) error {
	if kind == "" {
		return errspkg.ErrKindRequired
	}
	if prototype == nil {
		return errspkg.ErrEventRequired
	}
	typ := reflect.TypeOf(prototype)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.types[kind]; ok && existing != typ {
		return errspkg.ErrKindConflict
	}
	c.types[kind] = typ
	return nil
}

// Lookup returns the type registered for kind.
func (c *Catalog) Lookup(kind Kind) (reflect.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	typ, ok := c.types[kind]
	return typ, ok
}

// Kinds lists every known kind in lexical order.
func (c *Catalog) Kinds() []Kind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Kind, 0, len(c.types))
	for k := range c.types {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Define registers kind on the default catalog.
func Define(kind Kind, prototype Event) error {
	return DefaultCatalog.Define(kind, prototype)
}
