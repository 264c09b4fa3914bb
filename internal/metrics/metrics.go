// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"bizdash/internal/ledger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bizdash"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	paymentWrites  *prometheus.CounterVec
	billingCreated prometheus.Counter
	eventsOut      *prometheus.CounterVec
	mirrorRows     *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		paymentWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_writes_total",
			Help:      "Ledger writes by action.",
		}, []string{"action"}),
		billingCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_payments_created_total",
			Help:      "Pending payments generated for recurring clients.",
		}),
		eventsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_events_published_total",
			Help:      "Payment events published, by result.",
		}, []string{"result"}),
		mirrorRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_mirror_rows_total",
			Help:      "Spreadsheet mirror operations by operation and result.",
		}, []string{"operation", "result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_cache_lookups_total",
			Help:      "Dashboard summary cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.paymentWrites,
		m.billingCreated,
		m.eventsOut,
		m.mirrorRows,
		m.cacheLookups,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The recording methods below accept a nil receiver so that callers can
// run without metrics.

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// PaymentChanged counts ledger writes; Metrics is a ledger.Notifier.
func (m *Metrics) PaymentChanged(_ context.Context, change ledger.Change) {
	if m == nil {
		return
	}
	m.paymentWrites.WithLabelValues(string(change.Action)).Inc()
}

func (m *Metrics) BillingCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.billingCreated.Add(float64(n))
}

func (m *Metrics) EventPublished(err error) {
	if m == nil {
		return
	}
	m.eventsOut.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) MirrorRow(operation string, err error) {
	if m == nil {
		return
	}
	m.mirrorRows.WithLabelValues(operation, result(err)).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	r := "miss"
	if hit {
		r = "hit"
	}
	m.cacheLookups.WithLabelValues(r).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
