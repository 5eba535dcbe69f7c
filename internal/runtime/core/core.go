// Package core is the bundled default module. Its event listener always runs
// last for non-command events, and its command listener is the final
// fallback that answers commands nobody else claimed.
package core

import (
	"context"

	"github.com/drblury/hookbus/internal/runtime/actor"
	"github.com/drblury/hookbus/internal/runtime/commands"
	configpkg "github.com/drblury/hookbus/internal/runtime/config"
	"github.com/drblury/hookbus/internal/runtime/events"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
	"github.com/drblury/hookbus/internal/runtime/markup"
)

// Announcer broadcasts a message to every connected actor. The network
// layer supplies the real implementation.
type Announcer interface {
	Announce(ctx context.Context, message string)
}

// AnnouncerFunc adapts a function to Announcer.
type AnnouncerFunc func(ctx context.Context, message string)

func (f AnnouncerFunc) Announce(ctx context.Context, message string) { f(ctx, message) }

// Module bundles the core event listener and the core command listener.
type Module struct {
	conf      *configpkg.Config
	logger    loggingpkg.ServiceLogger
	announcer Announcer
}

// New builds the default module. A nil announcer logs announcements instead.
func New(conf *configpkg.Config, logger loggingpkg.ServiceLogger, announcer Announcer) *Module {
	if conf == nil {
		conf = configpkg.Default()
	}
	if logger == nil {
		logger = loggingpkg.NewNopServiceLogger()
	}
	m := &Module{conf: conf, logger: logger.With(loggingpkg.LogFields{"module": "core"})}
	if announcer == nil {
		announcer = AnnouncerFunc(func(_ context.Context, message string) {
			m.logger.Info("Announcement", loggingpkg.LogFields{"message": message})
		})
	}
	m.announcer = announcer
	return m
}

func (m *Module) String() string { return "core" }

// HandleEvent broadcasts events that asked to be announced.
func (m *Module) HandleEvent(ctx context.Context, ev events.Event) error {
	if !ev.ShouldAnnounce() {
		return nil
	}
	if msg := ev.LogMessage(); msg != "" {
		m.announcer.Announce(ctx, msg)
	}
	return nil
}

// Commands lists the tokens the core module answers itself.
func (m *Module) Commands() []string { return []string{"colors"} }

func (m *Module) Tooltip(_ actor.Actor, token string) string {
	if token == "colors" {
		return "Lists the available chat colors."
	}
	return ""
}

// OnCommand answers "colors" and turns anything else into the
// unknown-command failure.
func (m *Module) OnCommand(_ context.Context, cmd *commands.Command, resp *commands.Response) error {
	if cmd.Token() == "colors" {
		resp.Set(commands.ResultSuccess, markup.ListColors())
		return nil
	}
	resp.Set(commands.ResultFailure, m.conf.UnknownCommandMessage)
	return nil
}

// NewNative returns an engine-default command listener with no commands of
// its own. Hosts that embed an engine replace it with one that forwards to
// the engine's command table.
func NewNative() commands.Listener {
	return &commands.Handler{Name: "native"}
}
