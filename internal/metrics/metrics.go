// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	InteractionsTotal   *prometheus.CounterVec
	InteractionDuration *prometheus.HistogramVec
	EventsTotal         *prometheus.CounterVec
	SSEClients          prometheus.Gauge
}

// New creates a Metrics instance registered on its own registry, with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyprompt_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "heyprompt_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		InteractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyprompt_interactions_total",
				Help: "Dispatched interactions by action and outcome",
			},
			[]string{"action", "outcome"}, // copy|like|bookmark, executed|blocked_*|failed
		),
		InteractionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "heyprompt_interaction_duration_seconds",
				Help:    "Interaction dispatch latency in seconds, including retries",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"action"},
		),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyprompt_events_total",
				Help: "Tracked product analytics events",
			},
			[]string{"event"},
		),
		SSEClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "heyprompt_sse_clients",
			Help: "Connected SSE clients",
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency, labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordInteraction counts one dispatch outcome and its latency.
// It is safe to call on a nil receiver.
func (m *Metrics) RecordInteraction(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.InteractionsTotal.WithLabelValues(action, outcome).Inc()
	m.InteractionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// RecordEvent counts one analytics event. It is safe to call on a nil receiver.
func (m *Metrics) RecordEvent(event string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(event).Inc()
}

// SetSSEClients updates the connected client gauge. It is safe to call on a nil receiver.
func (m *Metrics) SetSSEClients(n int) {
	if m == nil {
		return
	}
	m.SSEClients.Set(float64(n))
}
