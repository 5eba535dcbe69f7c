package commands

import (
	"context"

	"github.com/drblury/hookbus/internal/runtime/actor"
)

// Listener handles one or more command tokens.
//
// Tooltip returns the help text shown to a for token, or "" to stay out of
// the help listing.
type Listener interface {
	Commands() []string
	OnCommand(ctx context.Context, cmd *Command, resp *Response) error
	Tooltip(a actor.Actor, token string) string
}

// HandlerFunc is the callback shape used by Handler.
type HandlerFunc func(ctx context.Context, cmd *Command, resp *Response) error

// Handler is a Listener assembled from a callback and static tooltips.
type Handler struct {
	Name     string
	Tokens   []string
	Tooltips map[string]string
	Handle   HandlerFunc
}

func (h *Handler) Commands() []string { return h.Tokens }

func (h *Handler) OnCommand(ctx context.Context, cmd *Command, resp *Response) error {
	if h.Handle == nil {
		return nil
	}
	return h.Handle(ctx, cmd, resp)
}

func (h *Handler) Tooltip(_ actor.Actor, token string) string {
	return h.Tooltips[token]
}

func (h *Handler) String() string {
	if h.Name != "" {
		return h.Name
	}
	return "handler"
}
