// Package observability collects Prometheus metrics for the service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the HTTP metrics with the ledger domain counters.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	postingsRecorded prometheus.Counter
	postingsRejected *prometheus.CounterVec
	integrityChecks  *prometheus.CounterVec
	trialImbalance   *prometheus.GaugeVec
}

// NewMetrics initialises the registry and registers every metric.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerline_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledgerline_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	recorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerline_postings_recorded_total",
		Help: "Transactions successfully recorded to a ledger.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerline_postings_rejected_total",
		Help: "Posting attempts rejected, by reason.",
	}, []string{"reason"})
	integrity := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerline_integrity_checks_total",
		Help: "Background integrity checks, by result.",
	}, []string{"result"})
	imbalance := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ledgerline_trial_balance_imbalance",
		Help: "Absolute trial balance column difference per entity, 0 when balanced.",
	}, []string{"entity"})
	registry.MustRegister(requests, duration, recorded, rejected, integrity, imbalance)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		postingsRecorded: recorded,
		postingsRejected: rejected,
		integrityChecks:  integrity,
		trialImbalance:   imbalance,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// PostingRecorded counts a successfully recorded transaction.
func (m *Metrics) PostingRecorded() {
	if m == nil {
		return
	}
	m.postingsRecorded.Inc()
}

// PostingRejected counts a rejected posting attempt.
func (m *Metrics) PostingRejected(reason string) {
	if m == nil {
		return
	}
	m.postingsRejected.WithLabelValues(reason).Inc()
}

// IntegrityCheck counts one background integrity run.
func (m *Metrics) IntegrityCheck(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "diverged"
	}
	m.integrityChecks.WithLabelValues(result).Inc()
}

// TrialBalanceImbalance publishes the current column difference for an entity.
func (m *Metrics) TrialBalanceImbalance(entity string, diff float64) {
	if m == nil {
		return
	}
	if diff < 0 {
		diff = -diff
	}
	m.trialImbalance.WithLabelValues(entity).Set(diff)
}

// Registerer exposes the registry for extra metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
