// Package events defines the event model: the lifecycle flags shared by every
// event, the built-in concrete kinds and the catalog that maps a kind to its
// Go type.
package events

import (
	"fmt"
	"time"

	idspkg "github.com/drblury/hookbus/internal/runtime/ids"
)

// Kind is the routing key of an event. Kinds are case-sensitive and unique
// per process.
type Kind string

const (
	KindConnect    Kind = "ConnectEvent"
	KindDisconnect Kind = "DisconnectEvent"
	KindChat       Kind = "ChatEvent"
	KindCommand    Kind = "CommandEvent"
	KindLog        Kind = "LogEvent"
	KindGeneric    Kind = "GenericEvent"
	KindThrowable  Kind = "ThrowableEvent"
)

func (k Kind) String() string { return string(k) }

// Event is implemented by every dispatchable value. Implementations embed
// *Base, which owns the lifecycle flags.
type Event interface {
	Kind() Kind
	ID() string
	CreatedAt() time.Time

	Handled() bool
	SetHandled(handled bool)
	Canceled() bool
	// Cancel is one-way: there is no way to clear the flag.
	Cancel()
	ShouldAnnounce() bool
	SetAnnounce(announce bool)
	IgnoreCore() bool
	SetIgnoreCore(ignore bool)

	// LogMessage is the line written when the event is logged; "" when the
	// event has nothing to log.
	LogMessage() string
	String() string
}

// Base carries identity and lifecycle state.
type Base struct {
	kind       Kind
	id         string
	createdAt  time.Time
	handled    bool
	canceled   bool
	announce   bool
	ignoreCore bool
}

// NewBase fixes the kind and stamps the event with a ULID and creation time.
func NewBase(kind Kind) *Base {
	now := time.Now()
	return &Base{kind: kind, id: idspkg.CreateULIDAt(now), createdAt: now}
}

func (b *Base) Kind() Kind              { return b.kind }
func (b *Base) ID() string              { return b.id }
func (b *Base) CreatedAt() time.Time    { return b.createdAt }
func (b *Base) Handled() bool           { return b.handled }
func (b *Base) SetHandled(handled bool) { b.handled = handled }
func (b *Base) Canceled() bool          { return b.canceled }
func (b *Base) Cancel()                 { b.canceled = true }
func (b *Base) ShouldAnnounce() bool    { return b.announce }
func (b *Base) SetAnnounce(a bool)      { b.announce = a }
func (b *Base) IgnoreCore() bool        { return b.ignoreCore }
func (b *Base) SetIgnoreCore(i bool)    { b.ignoreCore = i }
func (b *Base) LogMessage() string      { return "" }

func (b *Base) String() string {
	return fmt.Sprintf("%s[%s]", b.kind, b.id)
}

// Importance is implemented by events whose log line should be flagged.
type Importance interface {
	Important() bool
}
