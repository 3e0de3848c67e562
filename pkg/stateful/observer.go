package stateful

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Op names a store operation.
type Op string

const (
	OpCreate   Op = "create"
	OpRetrieve Op = "retrieve"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
	OpList     Op = "list"
	OpReset    Op = "reset"
)

// Event describes one completed store operation.
type Event struct {
	Op       Op
	Kind     string
	ID       string
	Count    int
	Duration time.Duration
	Err      error
}

// Observer receives store events after a transaction finishes. Events for
// records created inside a rolled-back transaction are never delivered.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }

// NoopObserver ignores every event.
type NoopObserver struct{}

func (NoopObserver) Observe(Event) {}

// LogObserver writes each event to a logger: successes at Debug, failures at Info.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) Observe(ev Event) {
	if o.Logger == nil {
		return
	}
	attrs := []any{"op", ev.Op, "kind", ev.Kind, "duration", ev.Duration}
	if ev.ID != "" {
		attrs = append(attrs, "id", ev.ID)
	}
	if ev.Op == OpList || ev.Op == OpReset {
		attrs = append(attrs, "count", ev.Count)
	}
	if ev.Err != nil {
		o.Logger.Info("store operation failed", append(attrs, "error", ev.Err)...)
		return
	}
	o.Logger.Debug("store operation", attrs...)
}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) Observe(ev Event) {
	for _, o := range m {
		o.Observe(ev)
	}
}

// MetricsObserver counts operations per op and per kind.
type MetricsObserver struct {
	mu             sync.Mutex
	ops            map[Op]int64
	kinds          map[string]int64
	errorCount     atomic.Int64
	totalLatencyNs atomic.Int64
}

// NewMetricsObserver creates an empty metrics observer.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		ops:   make(map[Op]int64),
		kinds: make(map[string]int64),
	}
}

func (m *MetricsObserver) Observe(ev Event) {
	m.totalLatencyNs.Add(int64(ev.Duration))
	if ev.Err != nil {
		m.errorCount.Add(1)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[ev.Op]++
	if ev.Kind != "" {
		m.kinds[ev.Kind]++
	}
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Ops          map[Op]int64     `json:"ops"`
	Kinds        map[string]int64 `json:"kinds"`
	ErrorCount   int64            `json:"errorCount"`
	TotalLatency time.Duration    `json:"totalLatencyNs"`
}

// Snapshot copies the current counters.
func (m *MetricsObserver) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := make(map[Op]int64, len(m.ops))
	for k, v := range m.ops {
		ops[k] = v
	}
	kinds := make(map[string]int64, len(m.kinds))
	for k, v := range m.kinds {
		kinds[k] = v
	}
	return MetricsSnapshot{
		Ops:          ops,
		Kinds:        kinds,
		ErrorCount:   m.errorCount.Load(),
		TotalLatency: time.Duration(m.totalLatencyNs.Load()),
	}
}

// TotalOperations returns the number of successful operations.
func (s MetricsSnapshot) TotalOperations() int64 {
	var n int64
	for _, v := range s.Ops {
		n += v
	}
	return n
}
