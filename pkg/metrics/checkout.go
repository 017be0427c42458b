package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout pipeline outcomes.
type CheckoutMetrics struct {
	duration     *prometheus.HistogramVec
	success      *prometheus.CounterVec
	failure      *prometheus.CounterVec
	insufficient prometheus.Counter
	groups       prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_success",
		Help: "Successful checkout operations.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failure",
		Help: "Failed checkout operations.",
	}, []string{"operation"})
	insufficient := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_credit_insufficient_total",
		Help: "Checkouts rejected because the requested credit exceeded the balance.",
	})
	groups := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_shipping_groups",
		Help:    "Supplier groups per aggregated cart.",
		Buckets: []float64{1, 2, 3, 5, 8, 13},
	})
	reg.MustRegister(duration, success, failure, insufficient, groups)
	return &CheckoutMetrics{
		duration:     duration,
		success:      success,
		failure:      failure,
		insufficient: insufficient,
		groups:       groups,
	}
}

// ObserveDuration records the duration for the named operation.
func (c *CheckoutMetrics) ObserveDuration(operation string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (c *CheckoutMetrics) IncSuccess(operation string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (c *CheckoutMetrics) IncFailure(operation string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncInsufficientCredit counts credit applications rejected for balance.
func (c *CheckoutMetrics) IncInsufficientCredit() {
	if c == nil || c.insufficient == nil {
		return
	}
	c.insufficient.Inc()
}

// ObserveGroups records how many supplier groups a cart produced.
func (c *CheckoutMetrics) ObserveGroups(count int) {
	if c == nil || c.groups == nil {
		return
	}
	c.groups.Observe(float64(count))
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
