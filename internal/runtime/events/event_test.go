package events

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/hookbus/internal/runtime/actor"
	"github.com/drblury/hookbus/internal/runtime/commands"
	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	idspkg "github.com/drblury/hookbus/internal/runtime/ids"
	"github.com/drblury/hookbus/internal/runtime/markup"
)

func TestBaseLifecycle(t *testing.T) {
	ev := NewGenericEvent("weather", "rain started")

	assert.Equal(t, KindGeneric, ev.Kind())
	assert.Len(t, ev.ID(), 26)
	assert.False(t, ev.CreatedAt().IsZero())
	assert.False(t, ev.Handled())
	assert.False(t, ev.Canceled())

	ev.SetHandled(true)
	ev.SetAnnounce(true)
	ev.SetIgnoreCore(true)
	ev.Cancel()
	ev.Cancel()

	assert.True(t, ev.Handled())
	assert.True(t, ev.ShouldAnnounce())
	assert.True(t, ev.IgnoreCore())
	assert.True(t, ev.Canceled())
	assert.Equal(t, KindGeneric, ev.Kind())
}

func TestIDEncodesCreationTime(t *testing.T) {
	ev := NewConnectEvent(actor.NewPlayer("alice"))
	at, err := idspkg.TimeOf(ev.ID())
	require.NoError(t, err)
	assert.Equal(t, ev.CreatedAt().UnixMilli(), at.UnixMilli())
}

func TestLogMessages(t *testing.T) {
	alice := actor.NewPlayer("alice")

	assert.Equal(t, "alice connected.", NewConnectEvent(alice).LogMessage())
	assert.Equal(t, "alice disconnected.", NewDisconnectEvent(alice, "").LogMessage())
	assert.Equal(t, "alice disconnected. (kicked)", NewDisconnectEvent(alice, "kicked").LogMessage())
	assert.Equal(t, "(Global) alice: hi all", NewChatEvent(alice, "", "hi"+markup.Green+" all").LogMessage())
	assert.Equal(t, "(staff) alice: ok", NewChatEvent(alice, "staff", "ok").LogMessage())
	assert.Equal(t, "rain", NewGenericEvent("weather", "rain").LogMessage())
	assert.Equal(t, "", NewBase(KindGeneric).LogMessage())

	thrown := NewThrowableEvent("tick failed", errors.New("nil map"))
	assert.Equal(t, "tick failed: nil map", thrown.LogMessage())
	assert.NotEmpty(t, thrown.Stack)
	assert.Equal(t, "no error", NewThrowableEvent("no error", nil).LogMessage())
}

func TestPlayerEventWithoutActor(t *testing.T) {
	ev := NewConnectEvent(nil)
	assert.Equal(t, "<unknown> connected.", ev.LogMessage())
	assert.Contains(t, ev.String(), "<unknown>")
}

func TestCommandEventLogging(t *testing.T) {
	cmd := commands.New("kick", "bob").SetActor(actor.NewPlayer("alice"))
	ev := NewCommandEvent(cmd)
	assert.Equal(t, KindCommand, ev.Kind())
	assert.False(t, ev.Response.Handled())

	ev.Response.Log(commands.LogStaff, "alice kicked bob")
	ev.Response.SetImportant(true)

	log := NewLogEvent(ev, false)
	assert.Equal(t, "alice kicked bob", log.LogMessage())
	assert.True(t, log.Important())
	assert.Equal(t, "alice", log.Actor().Name())
	assert.Same(t, ev, log.Source)
}

func TestLogEventActor(t *testing.T) {
	alice := actor.NewPlayer("alice")
	assert.Same(t, alice, NewLogEvent(NewChatEvent(alice, "", "hi"), false).Actor())
	assert.Nil(t, NewLogEvent(NewGenericEvent("x", "y"), true).Actor())
	assert.True(t, NewLogEvent(NewGenericEvent("x", "y"), true).Important())
}

type pingEvent struct {
	*Base
}

type pongEvent struct {
	*Base
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()

	typ, ok := c.Lookup(KindChat)
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf((*ChatEvent)(nil)), typ)

	require.NoError(t, c.Define("PingEvent", &pingEvent{Base: NewBase("PingEvent")}))
	require.NoError(t, c.Define("PingEvent", &pingEvent{}))
	assert.ErrorIs(t, c.Define("PingEvent", &pongEvent{}), errspkg.ErrKindConflict)
	assert.ErrorIs(t, c.Define("", &pongEvent{}), errspkg.ErrKindRequired)
	assert.ErrorIs(t, c.Define("PongEvent", nil), errspkg.ErrEventRequired)

	kinds := c.Kinds()
	assert.Contains(t, kinds, Kind("PingEvent"))
	assert.IsIncreasing(t, kinds)
}
