// Package metrics defines the Prometheus instrumentation shared by the HTTP
// handlers and the admission pipeline. All recording methods are safe to call
// on a nil *Metrics, so instrumentation stays optional for components that
// are used standalone or in tests.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	rateLimitDenials *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	quotaDenials     *prometheus.CounterVec
	upstreamCalls    *prometheus.CounterVec
}

// New creates the collectors and registers them with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cityscout",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "status"}),
		rateLimitDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cityscout",
			Name:      "rate_limit_denials_total",
			Help:      "Requests denied by the per-client rate limiter, by service.",
		}, []string{"service"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cityscout",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups, by service and result (hit or miss).",
		}, []string{"service", "result"}),
		quotaDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cityscout",
			Name:      "quota_denials_total",
			Help:      "Grants denied by the daily quota tracker, by service and reason.",
		}, []string{"service", "reason"}),
		upstreamCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cityscout",
			Name:      "upstream_calls_total",
			Help:      "Outbound calls to external services, by service and outcome.",
		}, []string{"service", "outcome"}),
	}
}

// RequestServed records one completed HTTP request.
func (m *Metrics) RequestServed(route string, status int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// RateLimitDenied records a request rejected by the rate limiter.
func (m *Metrics) RateLimitDenied(service string) {
	if m == nil {
		return
	}
	m.rateLimitDenials.WithLabelValues(service).Inc()
}

// CacheHit records a response served from cache.
func (m *Metrics) CacheHit(service string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(service, "hit").Inc()
}

// CacheMiss records a cache lookup that found no live entry.
func (m *Metrics) CacheMiss(service string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(service, "miss").Inc()
}

// QuotaDenied records a grant denial with its internal reason.
func (m *Metrics) QuotaDenied(service, reason string) {
	if m == nil {
		return
	}
	m.quotaDenials.WithLabelValues(service, reason).Inc()
}

// UpstreamCall records an outbound call and whether it succeeded.
func (m *Metrics) UpstreamCall(service string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.upstreamCalls.WithLabelValues(service, outcome).Inc()
}
