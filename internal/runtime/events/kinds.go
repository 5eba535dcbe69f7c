package events

import (
	"fmt"
	"runtime/debug"

	"github.com/drblury/hookbus/internal/runtime/actor"
	"github.com/drblury/hookbus/internal/runtime/commands"
	"github.com/drblury/hookbus/internal/runtime/markup"
)

// PlayerEvent is the base of events scoped to one actor.
type PlayerEvent struct {
	*Base
	actor actor.Actor
}

func NewPlayerEvent(kind Kind, a actor.Actor) *PlayerEvent {
	return &PlayerEvent{Base: NewBase(kind), actor: a}
}

func (e *PlayerEvent) Actor() actor.Actor { return e.actor }

func (e *PlayerEvent) actorName() string {
	if e.actor == nil {
		return "<unknown>"
	}
	return e.actor.Name()
}

func (e *PlayerEvent) String() string {
	return fmt.Sprintf("%s(%s)", e.Base.String(), e.actorName())
}

type ConnectEvent struct {
	*PlayerEvent
}

func NewConnectEvent(a actor.Actor) *ConnectEvent {
	return &ConnectEvent{PlayerEvent: NewPlayerEvent(KindConnect, a)}
}

func (e *ConnectEvent) LogMessage() string { return e.actorName() + " connected." }

type DisconnectEvent struct {
	*PlayerEvent
	Reason string
}

func NewDisconnectEvent(a actor.Actor, reason string) *DisconnectEvent {
	return &DisconnectEvent{PlayerEvent: NewPlayerEvent(KindDisconnect, a), Reason: reason}
}

func (e *DisconnectEvent) LogMessage() string {
	if e.Reason == "" {
		return e.actorName() + " disconnected."
	}
	return e.actorName() + " disconnected. (" + e.Reason + ")"
}

// ChatEvent carries one chat line. An empty channel means global chat.
type ChatEvent struct {
	*PlayerEvent
	Channel string
	Message string
}

func NewChatEvent(a actor.Actor, channel, message string) *ChatEvent {
	return &ChatEvent{PlayerEvent: NewPlayerEvent(KindChat, a), Channel: channel, Message: message}
}

func (e *ChatEvent) LogMessage() string {
	scope := "(Global) "
	if e.Channel != "" {
		scope = "(" + e.Channel + ") "
	}
	return scope + e.actorName() + ": " + markup.StripTags(e.Message, false)
}

// CommandEvent pairs a command with the response being composed for it.
type CommandEvent struct {
	*Base
	Command  *commands.Command
	Response *commands.Response
}

func NewCommandEvent(cmd *commands.Command) *CommandEvent {
	return &CommandEvent{Base: NewBase(KindCommand), Command: cmd, Response: commands.NewResponse()}
}

func (e *CommandEvent) LogMessage() string { return e.Response.LogMessage() }
func (e *CommandEvent) Important() bool    { return e.Response.Important() }

func (e *CommandEvent) String() string {
	return fmt.Sprintf("%s %s", e.Base.String(), e.Command)
}

// LogEvent wraps another event for the log pipeline.
type LogEvent struct {
	*Base
	Source    Event
	Message   string
	important bool
}

// NewLogEvent captures src's log line. Importance is inherited when src
// implements Importance.
func NewLogEvent(src Event, important bool) *LogEvent {
	if imp, ok := src.(Importance); ok && imp.Important() {
		important = true
	}
	return &LogEvent{Base: NewBase(KindLog), Source: src, Message: src.LogMessage(), important: important}
}

func (e *LogEvent) LogMessage() string { return e.Message }
func (e *LogEvent) Important() bool    { return e.important }

// Actor returns the actor of the wrapped event, if any.
func (e *LogEvent) Actor() actor.Actor {
	if pe, ok := e.Source.(interface{ Actor() actor.Actor }); ok {
		return pe.Actor()
	}
	if ce, ok := e.Source.(*CommandEvent); ok && ce.Command != nil {
		return ce.Command.Actor()
	}
	return nil
}

func (e *LogEvent) String() string {
	return fmt.Sprintf("%s<-%s", e.Base.String(), e.Source)
}

// GenericEvent is a free-form event labelled by Type, used by modules that
// do not warrant a dedicated kind.
type GenericEvent struct {
	*Base
	Type    string
	Context string
}

func NewGenericEvent(typ, context string) *GenericEvent {
	return &GenericEvent{Base: NewBase(KindGeneric), Type: typ, Context: context}
}

func (e *GenericEvent) LogMessage() string { return e.Context }

// ThrowableEvent reports a failure observed by the dispatcher or a module.
type ThrowableEvent struct {
	*Base
	Err    error
	Reason string
	Stack  []byte
}

func NewThrowableEvent(reason string, err error) *ThrowableEvent {
	return &ThrowableEvent{Base: NewBase(KindThrowable), Err: err, Reason: reason, Stack: debug.Stack()}
}

func (e *ThrowableEvent) LogMessage() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}
