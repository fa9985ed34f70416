// Package metrics exposes Prometheus instruments for snapshot loads, tool calls and HTTP requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticket-kpi/internal/ingest"
)

// Manager owns every instrument. A nil *Manager is valid and records nothing.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	reloads        *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	snapshotUnix   prometheus.Gauge
	ticketsLoaded  *prometheus.GaugeVec
	rowsDropped    *prometheus.GaugeVec
	targets        prometheus.Gauge

	toolCalls *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace (default "ticket_kpi").
func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = ns }
}

// WithHistogramBuckets sets the duration buckets in seconds.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) { m.buckets = buckets }
}

// WithRegistry registers the instruments on r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// NewManager creates the instruments on a private registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "ticket_kpi",
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(m.registry)

	m.reloads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "snapshot",
		Name:      "reloads_total",
		Help:      "Snapshot reloads by result",
	}, []string{"result"})

	m.reloadDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "snapshot",
		Name:      "reload_duration_seconds",
		Help:      "Time spent reading and normalizing every source",
		Buckets:   m.buckets,
	})

	m.snapshotUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "snapshot",
		Name:      "loaded_timestamp_seconds",
		Help:      "Unix time of the active snapshot",
	})

	m.ticketsLoaded = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "snapshot",
		Name:      "tickets",
		Help:      "Tickets kept in the active snapshot per source",
	}, []string{"source"})

	m.rowsDropped = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "snapshot",
		Name:      "rows_dropped",
		Help:      "Rows dropped during normalization per source and reason",
	}, []string{"source", "reason"})

	m.targets = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "snapshot",
		Name:      "contract_targets",
		Help:      "Contract OTD targets in the active snapshot",
	})

	m.toolCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "mcp",
		Name:      "tool_calls_total",
		Help:      "MCP tool calls by tool and result",
	}, []string{"tool", "result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.buckets,
	}, []string{"route", "method", "status_code"})

	return m
}

// Registry returns the registry holding the instruments.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReload records one reload attempt. ds is only read when err is nil.
func (m *Manager) ObserveReload(ds *ingest.Dataset, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.reloadDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.reloads.WithLabelValues("error").Inc()
		return
	}
	m.reloads.WithLabelValues("ok").Inc()
	m.snapshotUnix.Set(float64(ds.LoadedAt.Unix()))
	m.targets.Set(float64(len(ds.Targets)))

	m.rowsDropped.Reset()
	for _, q := range ds.Quality {
		m.ticketsLoaded.WithLabelValues(q.Name).Set(float64(q.Diagnostics.Kept))
		for reason, n := range q.Diagnostics.Dropped {
			m.rowsDropped.WithLabelValues(q.Name, string(reason)).Set(float64(n))
		}
	}
}

// ObserveTool counts one MCP tool call.
func (m *Manager) ObserveTool(tool string, err error) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, result(err)).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Manager) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, code).Observe(elapsed.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
