package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole(t *testing.T) {
	c := NewConsole("")
	assert.Equal(t, "admin", c.Name())
	assert.False(t, c.Connected())
	assert.True(t, c.HasPermission("server.stop", "anything"))
}

func TestPlayerPermissions(t *testing.T) {
	p := NewPlayer("alice", "chat.send")

	assert.True(t, p.Connected())
	assert.True(t, p.HasPermission())
	assert.True(t, p.HasPermission("chat.send"))
	assert.False(t, p.HasPermission("chat.send", "server.kick"))

	p.Grant("server.kick")
	assert.True(t, p.HasPermission("chat.send", "server.kick"))

	p.Revoke("chat.send")
	assert.False(t, p.HasPermission("chat.send"))

	p.SetConnected(false)
	assert.False(t, p.Connected())
}
