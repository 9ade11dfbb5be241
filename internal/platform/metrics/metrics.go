package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the plan service.
type Metrics struct {
	registry            *prometheus.Registry
	requestsTotal       *prometheus.CounterVec
	errorsTotal         prometheus.Counter
	plansDecodedTotal   prometheus.Counter
	decodeFailuresTotal prometheus.Counter
	decodeWarnings      *prometheus.CounterVec
	storedPlans         prometheus.Gauge
}

// New creates and registers Prometheus metrics for the plan service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtplan_requests_total",
		Help: "Total number of HTTP requests received, by route pattern and status class",
	}, []string{"route", "status"})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtplan_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	plansDecodedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtplan_plans_decoded_total",
		Help: "Total number of plans decoded and stored",
	})
	decodeFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtplan_decode_failures_total",
		Help: "Total number of records rejected by a fatal decode error",
	})
	decodeWarnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtplan_decode_warnings_total",
		Help: "Total number of frame-level decode warnings, by cause",
	}, []string{"code"})
	storedPlans := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rtplan_stored_plans",
		Help: "Number of plans currently stored",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		plansDecodedTotal,
		decodeFailuresTotal,
		decodeWarnings,
		storedPlans,
	)

	return &Metrics{
		registry:            registry,
		requestsTotal:       requestsTotal,
		errorsTotal:         errorsTotal,
		plansDecodedTotal:   plansDecodedTotal,
		decodeFailuresTotal: decodeFailuresTotal,
		decodeWarnings:      decodeWarnings,
		storedPlans:         storedPlans,
	}
}

// IncRequests counts one request against its route pattern and status class.
func (m *Metrics) IncRequests(route string, status int) {
	m.requestsTotal.WithLabelValues(route, statusClass(status)).Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncPlansDecoded increments the decoded plans counter.
func (m *Metrics) IncPlansDecoded() {
	m.plansDecodedTotal.Inc()
}

// IncDecodeFailures increments the fatal decode failure counter.
func (m *Metrics) IncDecodeFailures() {
	m.decodeFailuresTotal.Inc()
}

// IncDecodeWarning counts one decode warning with the given code.
func (m *Metrics) IncDecodeWarning(code string) {
	m.decodeWarnings.WithLabelValues(code).Inc()
}

// SetStoredPlans sets the stored plans gauge.
func (m *Metrics) SetStoredPlans(n int) {
	m.storedPlans.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. stored plans).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
