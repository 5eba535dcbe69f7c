package runtime

import (
	"slices"
	"strings"

	"github.com/drblury/hookbus/internal/runtime/actor"
	"github.com/drblury/hookbus/internal/runtime/commands"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
	"github.com/drblury/hookbus/internal/runtime/markup"
)

// help answers the help token with every tooltip a can see. Listeners a is
// not permitted to run are left out.
func (d *Dispatcher) help(a actor.Actor, resp *commands.Response) {
	var lines []string
	add := func(l commands.Listener, token string) {
		if tip := d.tooltip(l, a, token); tip != "" {
			lines = append(lines, markup.LightGreen+token+":"+markup.White+" "+tip)
		}
	}

	for _, b := range d.registry.allCommands() {
		if b.disabled.Load() || !a.HasPermission(b.permissions...) {
			continue
		}
		if b.token != commands.WildcardToken {
			add(b.listener, b.token)
			continue
		}
		for _, token := range b.listener.Commands() {
			add(b.listener, commands.NormalizeToken(token))
		}
	}
	for _, fallback := range []commands.Listener{d.nativeCommands, d.coreCommands} {
		for _, token := range fallback.Commands() {
			add(fallback, commands.NormalizeToken(token))
		}
	}

	slices.Sort(lines)
	lines = slices.Compact(lines)
	resp.Set(commands.ResultSuccess, "Commands:"+markup.NewLine+strings.Join(lines, markup.NewLine))
}

func (d *Dispatcher) tooltip(l commands.Listener, a actor.Actor, token string) (tip string) {
	defer func() {
		if r := recover(); r != nil {
			d.Logger.Debug("Tooltip panicked", loggingpkg.LogFields{
				"listener": describeOwner(l),
				"token":    token,
				"panic":    r,
			})
			tip = ""
		}
	}()
	return l.Tooltip(a, token)
}
