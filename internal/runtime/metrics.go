package runtime

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/drblury/hookbus/internal/runtime/events"
)

const metricsSubsystem = "dispatch"

// DispatchMetrics tracks dispatcher statistics.
type DispatchMetrics struct {
	mu sync.RWMutex

	kinds map[events.Kind]*KindMetrics

	eventsTotal      *prometheus.CounterVec
	listenerFailures *prometheus.CounterVec
	commandsTotal    *prometheus.CounterVec
	durationHist     *prometheus.HistogramVec

	registerer prometheus.Registerer
	registered bool
}

// KindMetrics holds counts for a single event kind.
type KindMetrics struct {
	Dispatched       uint64    `json:"dispatched"`
	Handled          uint64    `json:"handled"`
	Canceled         uint64    `json:"canceled"`
	ListenerFailures uint64    `json:"listener_failures"`
	LastDispatchedAt time.Time `json:"last_dispatched_at,omitempty"`
}

// DispatchMetricsSnapshot provides a point-in-time view of the counters.
type DispatchMetricsSnapshot struct {
	TotalDispatched uint64                       `json:"total_dispatched"`
	TotalFailures   uint64                       `json:"total_failures"`
	TotalCommands   uint64                       `json:"total_commands"`
	Kinds           map[events.Kind]*KindMetrics `json:"kinds"`
	CollectedAt     time.Time                    `json:"collected_at"`
}

// NewDispatchMetrics creates the collectors. A nil registerer means the
// Prometheus default registerer.
func NewDispatchMetrics(namespace string, registerer prometheus.Registerer) *DispatchMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &DispatchMetrics{
		kinds:      make(map[events.Kind]*KindMetrics),
		registerer: registerer,
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "events_total",
			Help:      "Total number of dispatched events by outcome",
		}, []string{"kind", "outcome"}),
		listenerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "listener_failures_total",
			Help:      "Total number of listener errors and panics",
		}, []string{"kind"}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "commands_total",
			Help:      "Total number of handled commands by result",
		}, []string{"token", "result"}),
		durationHist: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "duration_seconds",
			Help:      "Time spent dispatching one event",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"kind"}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
func (m *DispatchMetrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.eventsTotal,
		m.listenerFailures,
		m.commandsTotal,
		m.durationHist,
	}
	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// RecordDispatch records one completed dispatch.
func (m *DispatchMetrics) RecordDispatch(kind events.Kind, outcome string, took time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	km := m.kindMetrics(kind)
	km.Dispatched++
	switch outcome {
	case OutcomeHandled:
		km.Handled++
	case OutcomeCanceled:
		km.Canceled++
	}
	km.LastDispatchedAt = time.Now()

	m.eventsTotal.WithLabelValues(string(kind), outcome).Inc()
	m.durationHist.WithLabelValues(string(kind)).Observe(took.Seconds())
}

// RecordListenerFailure records one failing listener invocation.
func (m *DispatchMetrics) RecordListenerFailure(kind events.Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.kindMetrics(kind).ListenerFailures++
	m.listenerFailures.WithLabelValues(string(kind)).Inc()
}

// RecordCommand records the final result of one command.
func (m *DispatchMetrics) RecordCommand(token, result string) {
	m.commandsTotal.WithLabelValues(token, result).Inc()
}

// Snapshot returns a copy of the per-kind counters.
func (m *DispatchMetrics) Snapshot() DispatchMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := DispatchMetricsSnapshot{
		Kinds:       make(map[events.Kind]*KindMetrics, len(m.kinds)),
		CollectedAt: time.Now(),
	}
	for kind, km := range m.kinds {
		cp := *km
		snapshot.Kinds[kind] = &cp
		snapshot.TotalDispatched += km.Dispatched
		snapshot.TotalFailures += km.ListenerFailures
	}
	if km, ok := m.kinds[events.KindCommand]; ok {
		snapshot.TotalCommands = km.Dispatched
	}
	return snapshot
}

func (m *DispatchMetrics) kindMetrics(kind events.Kind) *KindMetrics {
	if km, ok := m.kinds[kind]; ok {
		return km
	}
	km := &KindMetrics{}
	m.kinds[kind] = km
	return km
}

// Reset clears all counters (useful for testing).
func (m *DispatchMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.kinds = make(map[events.Kind]*KindMetrics)
	m.eventsTotal.Reset()
	m.listenerFailures.Reset()
	m.commandsTotal.Reset()
	m.durationHist.Reset()
}
