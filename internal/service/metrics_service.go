package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService registers and exposes the Prometheus instrumentation.
type MetricsService struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	slaBreaches   *prometheus.CounterVec
}

// NewMetricsService constructs the service with process collectors registered.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	httpDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Workflow transitions by action and outcome.",
	}, []string{"action", "outcome"})
	slaBreaches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sla_breaches_observed_total",
		Help: "SLA clock computations that found the budget exceeded, by point.",
	}, []string{"point"})
	registry.MustRegister(httpRequests, httpDurations, transitions, slaBreaches)

	return &MetricsService{
		registry:      registry,
		httpRequests:  httpRequests,
		httpDurations: httpDurations,
		transitions:   transitions,
		slaBreaches:   slaBreaches,
	}
}

// Handler exposes the scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served HTTP request.
func (m *MetricsService) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDurations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveWorkflowTransition records the outcome of one workflow action.
func (m *MetricsService) ObserveWorkflowTransition(action, outcome string) {
	m.transitions.WithLabelValues(action, outcome).Inc()
}

// ObserveSLABreach records a breached SLA clock observation.
func (m *MetricsService) ObserveSLABreach(point string) {
	m.slaBreaches.WithLabelValues(point).Inc()
}
