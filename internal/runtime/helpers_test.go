package runtime

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/drblury/hookbus/internal/runtime/actor"
	"github.com/drblury/hookbus/internal/runtime/commands"
	configpkg "github.com/drblury/hookbus/internal/runtime/config"
	"github.com/drblury/hookbus/internal/runtime/events"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
)

type logRecord struct {
	level  string
	msg    string
	err    error
	fields loggingpkg.LogFields
}

type recordingLogger struct {
	mu     *sync.Mutex
	logs   *[]logRecord
	fields loggingpkg.LogFields
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{mu: &sync.Mutex{}, logs: &[]logRecord{}}
}

func (l *recordingLogger) With(fields loggingpkg.LogFields) loggingpkg.ServiceLogger {
	merged := loggingpkg.LogFields{}
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &recordingLogger{mu: l.mu, logs: l.logs, fields: merged}
}

func (l *recordingLogger) Debug(msg string, fields loggingpkg.LogFields) {
	l.record("debug", msg, nil, fields)
}

func (l *recordingLogger) Info(msg string, fields loggingpkg.LogFields) {
	l.record("info", msg, nil, fields)
}

func (l *recordingLogger) Error(msg string, err error, fields loggingpkg.LogFields) {
	l.record("error", msg, err, fields)
}

func (l *recordingLogger) Trace(msg string, fields loggingpkg.LogFields) {
	l.record("trace", msg, nil, fields)
}

func (l *recordingLogger) record(level, msg string, err error, fields loggingpkg.LogFields) {
	merged := loggingpkg.LogFields{}
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.logs = append(*l.logs, logRecord{level: level, msg: msg, err: err, fields: merged})
}

func (l *recordingLogger) entries(level string) []logRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logRecord
	for _, r := range *l.logs {
		if level == "" || r.level == level {
			out = append(out, r)
		}
	}
	return out
}

func newTestDispatcher(t *testing.T, mutate ...func(*configpkg.Config, *Dependencies)) (*Dispatcher, *recordingLogger) {
	t.Helper()
	conf := configpkg.Default()
	deps := Dependencies{
		Catalog:    events.NewCatalog(),
		Registerer: prometheus.NewRegistry(),
	}
	for _, m := range mutate {
		m(conf, &deps)
	}
	logger := newRecordingLogger()
	d, err := NewDispatcher(conf, logger, deps)
	require.NoError(t, err)
	return d, logger
}

// callTrace collects the order in which test listeners ran.
type callTrace struct {
	mu    sync.Mutex
	calls []string
}

func (tr *callTrace) add(name string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.calls = append(tr.calls, name)
}

func (tr *callTrace) list() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.calls...)
}

// probe is a Listener whose behaviour is configured per test.
type probe struct {
	name      string
	kinds     []events.Kind
	priority  int
	secondary bool
	observe   bool
	tr        *callTrace
	act       func(ev events.Event) error
}

func (p *probe) Kinds() []events.Kind  { return p.kinds }
func (p *probe) Priority() int         { return p.priority }
func (p *probe) Secondary() bool       { return p.secondary }
func (p *probe) IgnoreCancelled() bool { return p.observe }
func (p *probe) String() string        { return p.name }

func (p *probe) HandleEvent(_ context.Context, ev events.Event) error {
	p.tr.add(p.name)
	if p.act != nil {
		return p.act(ev)
	}
	return nil
}

// recordingCore stands in for the core module. It ignores the log and
// exception pipelines' own events.
type recordingCore struct {
	tr *callTrace
}

func (c *recordingCore) HandleEvent(_ context.Context, ev events.Event) error {
	switch ev.Kind() {
	case events.KindLog, events.KindThrowable:
		return nil
	}
	c.tr.add("core")
	return nil
}

func withCore(tr *callTrace) func(*configpkg.Config, *Dependencies) {
	return func(_ *configpkg.Config, deps *Dependencies) {
		deps.Core = &recordingCore{tr: tr}
	}
}

// tokenListener answers its tokens with a fixed result.
type tokenListener struct {
	name    string
	tokens  []string
	tips    map[string]string
	result  commands.Result
	message string
	tr      *callTrace
}

func (l *tokenListener) Commands() []string { return l.tokens }
func (l *tokenListener) String() string     { return l.name }

func (l *tokenListener) Tooltip(_ actor.Actor, token string) string {
	return l.tips[token]
}

func (l *tokenListener) OnCommand(_ context.Context, _ *commands.Command, resp *commands.Response) error {
	if l.tr != nil {
		l.tr.add(l.name)
	}
	if l.result != commands.ResultNone {
		resp.Set(l.result, l.message)
	}
	return nil
}

type recordingLogListener struct {
	mu      sync.Mutex
	entries []*events.LogEvent
}

func (l *recordingLogListener) OnLogEntry(_ context.Context, entry *events.LogEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *recordingLogListener) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.Message)
	}
	return out
}

type recordingExceptionListener struct {
	mu      sync.Mutex
	reasons []string
	errs    []error
}

func (l *recordingExceptionListener) OnException(_ context.Context, reason string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reasons = append(l.reasons, reason)
	l.errs = append(l.errs, err)
}
