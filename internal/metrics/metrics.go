// Package metrics tracks pipeline counters and exposes them in
// Prometheus exposition format.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks bot-level counters using atomic operations for
// lock-free concurrency. The same counters back both the JSON status
// endpoint and the Prometheus /metrics endpoint.
type Metrics struct {
	messages        atomic.Int64
	completions     atomic.Int64
	errors          atomic.Int64
	summaries       atomic.Int64
	persistFailures atomic.Int64
	totalLatency    atomic.Int64 // nanoseconds

	registry *prometheus.Registry
}

// New creates a Metrics with its own isolated Prometheus registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	counter := func(name, help string, v *atomic.Int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "copilot",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(v.Load()) })
	}

	m.registry.MustRegister(
		counter("messages_total", "Inbound messages processed.", &m.messages),
		counter("completions_total", "Successful model completions.", &m.completions),
		counter("errors_total", "Failed generation attempts.", &m.errors),
		counter("summaries_total", "Summarization runs triggered.", &m.summaries),
		counter("persist_failures_total", "Durable conversation writes that failed.", &m.persistFailures),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "copilot",
			Name:      "completion_latency_seconds_total",
			Help:      "Cumulative model completion latency in seconds.",
		}, func() float64 { return time.Duration(m.totalLatency.Load()).Seconds() }),
	)

	return m
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordMessage records an inbound message.
func (m *Metrics) RecordMessage() {
	m.messages.Add(1)
}

// RecordCompletion records a successful model completion.
func (m *Metrics) RecordCompletion(latency time.Duration) {
	m.completions.Add(1)
	m.totalLatency.Add(int64(latency))
}

// RecordError records a failed generation attempt.
func (m *Metrics) RecordError() {
	m.errors.Add(1)
}

// RecordSummary records a summarization run.
func (m *Metrics) RecordSummary() {
	m.summaries.Add(1)
}

// RecordPersistFailure records a failed durable write.
func (m *Metrics) RecordPersistFailure() {
	m.persistFailures.Add(1)
}

// Messages returns the inbound message count.
func (m *Metrics) Messages() int64 {
	return m.messages.Load()
}

// Snapshot returns a consistent point-in-time view of the counters.
func (m *Metrics) Snapshot() Snapshot {
	completions := m.completions.Load()
	snap := Snapshot{
		Messages:        m.messages.Load(),
		Completions:     completions,
		Errors:          m.errors.Load(),
		Summaries:       m.summaries.Load(),
		PersistFailures: m.persistFailures.Load(),
	}
	if completions > 0 {
		snap.AvgLatency = time.Duration(m.totalLatency.Load() / completions)
	}
	return snap
}

// Snapshot is a serializable point-in-time metrics view.
type Snapshot struct {
	Messages        int64         `json:"messages"`
	Completions     int64         `json:"completions"`
	Errors          int64         `json:"errors"`
	Summaries       int64         `json:"summaries"`
	PersistFailures int64         `json:"persist_failures"`
	AvgLatency      time.Duration `json:"avg_latency_ns"`
}
