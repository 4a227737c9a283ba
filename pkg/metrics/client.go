package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeUnreachable = "unreachable"
	OutcomeDecodeError = "decode_error"
)

// ClientMetrics records storefront API traffic and local store health.
type ClientMetrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	merges      *prometheus.CounterVec
	localErrors *prometheus.CounterVec
}

// NewClientMetrics registers the client metrics on the provided registerer.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		return &ClientMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_api_requests_total",
		Help: "Storefront API calls by endpoint, method and outcome.",
	}, []string{"endpoint", "method", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_api_request_duration_seconds",
		Help:    "Latency of storefront API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "method"})
	merges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_merges_total",
		Help: "Guest cart merges attempted after login.",
	}, []string{"outcome"})
	localErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_local_store_errors_total",
		Help: "Local store reads and writes that failed.",
	}, []string{"op"})
	reg.MustRegister(requests, duration, merges, localErrors)
	return &ClientMetrics{
		requests:    requests,
		duration:    duration,
		merges:      merges,
		localErrors: localErrors,
	}
}

// ObserveRequest records one API call.
func (c *ClientMetrics) ObserveRequest(endpoint, method, outcome string, elapsed time.Duration) {
	if c == nil || c.requests == nil {
		return
	}
	endpoint = normalizeLabel(endpoint)
	c.requests.WithLabelValues(endpoint, method, normalizeLabel(outcome)).Inc()
	c.duration.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}

// IncMerge counts a merge attempt by outcome.
func (c *ClientMetrics) IncMerge(outcome string) {
	if c == nil || c.merges == nil {
		return
	}
	c.merges.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncLocalStoreError counts a failed local store operation (load or save).
func (c *ClientMetrics) IncLocalStoreError(op string) {
	if c == nil || c.localErrors == nil {
		return
	}
	c.localErrors.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
