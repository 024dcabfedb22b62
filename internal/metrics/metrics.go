// Package metrics holds the Prometheus collectors for the forecasting service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salescast"

// Product outcome labels.
const (
	OutcomeForecast     = "forecast"
	OutcomeInsufficient = "insufficient_data"
	OutcomeFailed       = "failed"
)

// Default buckets
var (
	DefaultFitDurationBuckets      = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultAnalysisDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300}
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
)

// Metrics is the set of collectors used by the service.
type Metrics struct {
	AnalysisRunsTotal    *prometheus.CounterVec
	AnalysisDuration     prometheus.Histogram
	ProductOutcomesTotal *prometheus.CounterVec
	ProductFitDuration   prometheus.Histogram
	ActiveSessions       prometheus.Gauge
	SessionsEvictedTotal prometheus.Counter
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. A nil reg gets a
// fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		AnalysisRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Portfolio analysis runs by status.",
		}, []string{"status"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall-clock duration of a portfolio analysis run.",
			Buckets:   DefaultAnalysisDurationBuckets,
		}),
		ProductOutcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_outcomes_total",
			Help:      "Per-product forecast outcomes.",
		}, []string{"outcome"}),
		ProductFitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "product_fit_duration_seconds",
			Help:      "Duration of fitting and forecasting a single product.",
			Buckets:   DefaultFitDurationBuckets,
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
		SessionsEvictedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Idle sessions removed by the sweeper.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration.",
			Buckets:   DefaultHTTPDurationBuckets,
		}, []string{"method", "route"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.AnalysisRunsTotal,
		m.AnalysisDuration,
		m.ProductOutcomesTotal,
		m.ProductFitDuration,
		m.ActiveSessions,
		m.SessionsEvictedTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// ObserveProduct records one product's outcome and fit time.
func (m *Metrics) ObserveProduct(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProductOutcomesTotal.WithLabelValues(outcome).Inc()
	m.ProductFitDuration.Observe(elapsed.Seconds())
}

// ObserveAnalysis records a finished analysis run.
func (m *Metrics) ObserveAnalysis(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AnalysisRunsTotal.WithLabelValues(status).Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
}

// SetActiveSessions sets the active session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// AddEvicted counts sessions removed by the sweeper.
func (m *Metrics) AddEvicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsEvictedTotal.Add(float64(n))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
