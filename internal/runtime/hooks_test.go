package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configpkg "github.com/drblury/hookbus/internal/runtime/config"
	"github.com/drblury/hookbus/internal/runtime/events"
)

func TestDispatchHooks_Merge(t *testing.T) {
	var order []string

	h1 := DispatchHooks{
		OnDispatchStart: func(DispatchContext) { order = append(order, "h1-start") },
		OnDispatchDone:  func(DispatchContext) { order = append(order, "h1-done") },
	}
	h2 := DispatchHooks{
		OnDispatchStart: func(DispatchContext) { order = append(order, "h2-start") },
		OnListenerError: func(DispatchContext, *HandlerDescriptor, error) { order = append(order, "h2-error") },
	}

	merged := h1.Merge(h2)
	merged.OnDispatchStart(DispatchContext{})
	merged.OnDispatchDone(DispatchContext{})
	merged.OnListenerError(DispatchContext{}, &HandlerDescriptor{}, errors.New("x"))

	assert.Equal(t, []string{"h1-start", "h2-start", "h1-done", "h2-error"}, order)
}

func TestDispatchHooks_MergeWithNil(t *testing.T) {
	var called bool
	h1 := DispatchHooks{
		OnDispatchDone: func(DispatchContext) { called = true },
	}

	merged := h1.Merge(DispatchHooks{})
	require.NotNil(t, merged.OnDispatchDone)
	assert.Nil(t, merged.OnDispatchStart)
	assert.Nil(t, merged.OnListenerError)

	merged.OnDispatchDone(DispatchContext{})
	assert.True(t, called)
}

func TestLoggingHooks(t *testing.T) {
	logger := newRecordingLogger()
	d, _ := newTestDispatcher(t, func(_ *configpkg.Config, deps *Dependencies) {
		deps.Hooks = LoggingHooks(logger)
	})
	register(t, d, &probe{name: "broken", tr: &callTrace{}, act: func(events.Event) error { return errors.New("boom") }})

	d.Dispatch(context.Background(), chatEvent("hi"), WithoutLog())

	var msgs []string
	for _, r := range logger.entries("") {
		msgs = append(msgs, r.msg)
	}
	assert.Contains(t, msgs, "Dispatch started")
	assert.Contains(t, msgs, "Dispatch completed")
	assert.Contains(t, msgs, "Listener failed")

	for _, r := range logger.entries("error") {
		assert.Equal(t, "broken", r.fields["listener"])
	}
}

func TestMetricsHooks(t *testing.T) {
	var done []string
	var failed []string
	hooks := MetricsHooks(
		func(kind events.Kind, outcome string) { done = append(done, string(kind)+":"+outcome) },
		func(kind events.Kind, listener string) { failed = append(failed, string(kind)+":"+listener) },
	)

	d, _ := newTestDispatcher(t, func(_ *configpkg.Config, deps *Dependencies) { deps.Hooks = hooks })
	register(t, d, &probe{name: "handler", tr: &callTrace{}, act: func(ev events.Event) error {
		ev.SetHandled(true)
		return errors.New("late failure")
	}})

	d.Dispatch(context.Background(), chatEvent("hi"), WithoutLog())

	assert.Contains(t, done, "ChatEvent:"+OutcomeHandled)
	assert.Equal(t, []string{"ChatEvent:handler"}, failed)
}
