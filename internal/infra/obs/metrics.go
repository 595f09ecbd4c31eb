package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the service counters on its own registry.
type Metrics struct {
	registry      *prometheus.Registry
	logins        *prometheus.CounterVec
	bookings      *prometheus.CounterVec
	commitRetries prometheus.Counter
	relayed       *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	dispatch      *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tinyhouse_logins_total",
			Help: "Login attempts by mode (oauth, cookie) and outcome.",
		}, []string{"mode", "outcome"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tinyhouse_bookings_total",
			Help: "Reservation attempts by outcome.",
		}, []string{"outcome"}),
		commitRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tinyhouse_booking_commit_retries_total",
			Help: "Bookings index commits retried after a concurrent update.",
		}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tinyhouse_outbox_relayed_total",
			Help: "Outbox records relayed to the broker by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tinyhouse_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tinyhouse_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		dispatch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tinyhouse_dispatch_duration_seconds",
			Help:    "Command and query handling latency by key and outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"key", "outcome"}),
	}
	m.registry.MustRegister(
		m.logins,
		m.bookings,
		m.commitRetries,
		m.relayed,
		m.httpRequests,
		m.httpDuration,
		m.dispatch,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveLogin(mode, outcome string) {
	m.logins.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) ObserveBooking(outcome string) {
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCommitRetry() {
	m.commitRetries.Inc()
}

func (m *Metrics) ObserveRelay(outcome string) {
	m.relayed.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveDispatch(key, outcome string, elapsed time.Duration) {
	m.dispatch.WithLabelValues(key, outcome).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
