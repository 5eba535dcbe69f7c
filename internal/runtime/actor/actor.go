// Package actor describes who originated an event or command.
package actor

import "sync"

// Actor is a player or administrative caller. Connected reports whether the
// actor has a live interactive session; responses for disconnected actors
// are delivered as plain text.
type Actor interface {
	Name() string
	Connected() bool
	HasPermission(nodes ...string) bool
}

// Console is the operator console. It is never connected and holds every
// permission.
type Console struct {
	name string
}

// NewConsole returns a console actor; an empty name defaults to "admin".
func NewConsole(name string) *Console {
	if name == "" {
		name = "admin"
	}
	return &Console{name: name}
}

func (c *Console) Name() string                 { return c.name }
func (c *Console) Connected() bool              { return false }
func (c *Console) HasPermission(...string) bool { return true }
func (c *Console) String() string               { return c.name + " (console)" }

// Player is a connected participant with an explicit permission set.
type Player struct {
	name string

	mu          sync.RWMutex
	connected   bool
	permissions map[string]struct{}
}

// NewPlayer returns a connected player granted the given permission nodes.
func NewPlayer(name string, nodes ...string) *Player {
	p := &Player{name: name, connected: true, permissions: make(map[string]struct{}, len(nodes))}
	p.Grant(nodes...)
	return p
}

func (p *Player) Name() string   { return p.name }
func (p *Player) String() string { return p.name }

func (p *Player) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// SetConnected toggles the live-session flag.
func (p *Player) SetConnected(connected bool) {
	p.mu.Lock()
	p.connected = connected
	p.mu.Unlock()
}

func (p *Player) Grant(nodes ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range nodes {
		p.permissions[n] = struct{}{}
	}
}

func (p *Player) Revoke(nodes ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range nodes {
		delete(p.permissions, n)
	}
}

// HasPermission reports whether every node is granted. No nodes means no
// requirement.
func (p *Player) HasPermission(nodes ...string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, n := range nodes {
		if _, ok := p.permissions[n]; !ok {
			return false
		}
	}
	return true
}
