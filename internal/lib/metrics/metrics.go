// Package metrics содержит prometheus-метрики консоли.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hotel_console"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	Rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "request_rejections_total", Help: "Requests rejected by the middleware chain."},
		[]string{"code"},
	)
	TenantFilterMismatch = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace, Name: "tenant_filter_mismatch_total",
			Help: "Operations whose explicit hotelId filter differs from the request tenant.",
		},
		[]string{"collection", "outcome"}, // outcome: honored|rejected
	)
	MaintenanceRuns = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "maintenance_runs_total", Help: "Subscription maintenance runs."},
	)
	HotelsSuspended = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "hotels_suspended_total", Help: "Hotels suspended by maintenance."},
	)
	AuditWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "audit_writes_total", Help: "Audit log writes."},
		[]string{"result"}, // result: ok|error
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"},
	)
)

// InitRegistry регистрирует метрики консоли в новом реестре.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency, Rejections, TenantFilterMismatch,
		MaintenanceRuns, HotelsSuspended, AuditWrites, CacheEvents,
	)
	return reg
}

// Handler отдаёт метрики реестра.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveRejection(code string) { Rejections.WithLabelValues(code).Inc() }

func ObserveMismatch(collection, outcome string) {
	TenantFilterMismatch.WithLabelValues(collection, outcome).Inc()
}

func ObserveMaintenance(suspended int) {
	MaintenanceRuns.Inc()
	HotelsSuspended.Add(float64(suspended))
}

func ObserveAudit(err error) {
	if err != nil {
		AuditWrites.WithLabelValues("error").Inc()
		return
	}
	AuditWrites.WithLabelValues("ok").Inc()
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}
