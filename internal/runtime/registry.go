package runtime

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/drblury/hookbus/internal/runtime/commands"
	"github.com/drblury/hookbus/internal/runtime/events"
)

// commandBinding is one listener registered under one token.
type commandBinding struct {
	token       string
	listener    commands.Listener
	permissions []string
	seq         uint64
	disabled    atomic.Bool
}

// registry holds every listener list. Readers receive copies so callbacks may
// register or unregister while a dispatch is iterating.
type registry struct {
	mu  sync.RWMutex
	seq uint64

	handlers   map[events.Kind][]*HandlerDescriptor
	commands   map[string][]*commandBinding
	logs       []LogListener
	exceptions []ExceptionListener
}

func newRegistry() *registry {
	return &registry{
		handlers: make(map[events.Kind][]*HandlerDescriptor),
		commands: make(map[string][]*commandBinding),
	}
}

func (r *registry) addHandler(h *HandlerDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	h.seq = r.seq
	list := append(r.handlers[h.kind], h)
	slices.SortStableFunc(list, compareDescriptors)
	r.handlers[h.kind] = list
}

func (r *registry) handlersFor(kind events.Kind) []*HandlerDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.handlers[kind])
}

// removeHandlers drops every descriptor match selects and returns how many
// were removed.
func (r *registry) removeHandlers(match func(*HandlerDescriptor) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for kind, list := range r.handlers {
		kept := slices.DeleteFunc(slices.Clone(list), match)
		removed += len(list) - len(kept)
		if len(kept) == 0 {
			delete(r.handlers, kind)
			continue
		}
		r.handlers[kind] = kept
	}
	return removed
}

func (r *registry) kinds() []events.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]events.Kind, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (r *registry) addCommand(token string, l commands.Listener, permissions []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.commands[token] = append(r.commands[token], &commandBinding{
		token:       token,
		listener:    l,
		permissions: permissions,
		seq:         r.seq,
	})
}

func (r *registry) commandsFor(token string) []*commandBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.commands[token])
}

func (r *registry) removeCommands(match func(*commandBinding) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for token, list := range r.commands {
		kept := slices.DeleteFunc(slices.Clone(list), match)
		removed += len(list) - len(kept)
		if len(kept) == 0 {
			delete(r.commands, token)
			continue
		}
		r.commands[token] = kept
	}
	return removed
}

// allCommands returns every binding ordered by token, then registration.
func (r *registry) allCommands() []*commandBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*commandBinding
	for _, list := range r.commands {
		out = append(out, list...)
	}
	slices.SortFunc(out, func(a, b *commandBinding) int {
		if c := cmp.Compare(a.token, b.token); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return out
}

func (r *registry) tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.commands))
	for t := range r.commands {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// addLog appends l unless an equal listener is already present.
func (r *registry) addLog(l LogListener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.ContainsFunc(r.logs, func(x LogListener) bool { return sameListener(x, l) }) {
		return false
	}
	r.logs = append(r.logs, l)
	return true
}

func (r *registry) removeLog(l LogListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = slices.DeleteFunc(slices.Clone(r.logs), func(x LogListener) bool { return sameListener(x, l) })
}

func (r *registry) logListeners() []LogListener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.logs)
}

func (r *registry) addException(l ExceptionListener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.ContainsFunc(r.exceptions, func(x ExceptionListener) bool { return sameListener(x, l) }) {
		return false
	}
	r.exceptions = append(r.exceptions, l)
	return true
}

func (r *registry) removeException(l ExceptionListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exceptions = slices.DeleteFunc(slices.Clone(r.exceptions), func(x ExceptionListener) bool { return sameListener(x, l) })
}

func (r *registry) exceptionListeners() []ExceptionListener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.exceptions)
}

// clear empties every list.
func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[events.Kind][]*HandlerDescriptor)
	r.commands = make(map[string][]*commandBinding)
	r.logs = nil
	r.exceptions = nil
}

// sameListener compares two listener values, treating non-comparable
// dynamic types as never equal.
func sameListener(a, b any) bool {
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}
