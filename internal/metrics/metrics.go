// Package metrics holds the Prometheus collectors of the service.
// All recording methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "teamflow"

// Metrics wraps a private registry with the service collectors
type Metrics struct {
	registry *prometheus.Registry

	codesGenerated *prometheus.CounterVec
	codeCollisions *prometheus.CounterVec
	codeFallbacks  *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
	rateLimited    *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	jobRuns        *prometheus.CounterVec
	jobErrors      *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	teams          prometheus.Gauge
	memberships    *prometheus.GaugeVec
}

// New creates the collectors and registers them together with the Go and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		codesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codes_generated_total",
			Help:      "Codes handed out by the code generator.",
		}, []string{"kind"}),
		codeCollisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_collisions_total",
			Help:      "Random draws rejected because the code already existed.",
		}, []string{"kind"}),
		codeFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_fallbacks_total",
			Help:      "Codes produced by the timestamp fallback after the attempt budget ran out.",
		}, []string{"kind"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "membership_resolutions_total",
			Help:      "Join and claim outcomes.",
		}, []string{"operation", "outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"route"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job runs.",
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_errors_total",
			Help:      "Background job runs that returned an error.",
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_run_duration_seconds",
			Help:      "Background job run duration.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"job"}),
		teams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "teams_total",
			Help:      "Number of teams in the store.",
		}),
		memberships: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memberships_total",
			Help:      "Number of memberships in the store by role.",
		}, []string{"role"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.codesGenerated,
		m.codeCollisions,
		m.codeFallbacks,
		m.resolutions,
		m.rateLimited,
		m.httpDuration,
		m.jobRuns,
		m.jobErrors,
		m.jobDuration,
		m.teams,
		m.memberships,
	)

	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) CodeGenerated(kind string) {
	if m == nil {
		return
	}
	m.codesGenerated.WithLabelValues(kind).Inc()
}

func (m *Metrics) CodeCollision(kind string) {
	if m == nil {
		return
	}
	m.codeCollisions.WithLabelValues(kind).Inc()
}

func (m *Metrics) CodeFallback(kind string) {
	if m == nil {
		return
	}
	m.codeFallbacks.WithLabelValues(kind).Inc()
}

// Resolution records the outcome of a join or claim
func (m *Metrics) Resolution(operation, outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(route).Inc()
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, status).Observe(seconds)
}

// JobRun records one run of a background job
func (m *Metrics) JobRun(job string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		m.jobErrors.WithLabelValues(job).Inc()
	}
}

func (m *Metrics) SetTeams(n int) {
	if m == nil {
		return
	}
	m.teams.Set(float64(n))
}

func (m *Metrics) SetMemberships(role string, n int) {
	if m == nil {
		return
	}
	m.memberships.WithLabelValues(role).Set(float64(n))
}
