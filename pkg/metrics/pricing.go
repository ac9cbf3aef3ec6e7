package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics records pipeline activity per calculator type.
type PricingMetrics struct {
	duration     *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	failures     *prometheus.CounterVec
	lockFailures prometheus.Counter
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_calculator_duration_seconds",
		Help:    "Duration of individual calculator runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"calculator"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_calculator_runs_total",
		Help: "Calculator invocations by type.",
	}, []string{"calculator"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_calculator_failures_total",
		Help: "Calculator invocations that aborted the pipeline.",
	}, []string{"calculator"})
	lockFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coupon_lock_failures_total",
		Help: "Coupon lock attempts that were refused or errored.",
	})
	reg.MustRegister(duration, runs, failures, lockFailures)
	return &PricingMetrics{
		duration:     duration,
		runs:         runs,
		failures:     failures,
		lockFailures: lockFailures,
	}
}

// ObserveCalculator records one calculator run.
func (p *PricingMetrics) ObserveCalculator(calculator string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	label := normalizeLabel(calculator)
	p.duration.WithLabelValues(label).Observe(duration.Seconds())
	p.runs.WithLabelValues(label).Inc()
}

// IncCalculatorFailure increments the failure counter for the calculator type.
func (p *PricingMetrics) IncCalculatorFailure(calculator string) {
	if p == nil || p.failures == nil {
		return
	}
	p.failures.WithLabelValues(normalizeLabel(calculator)).Inc()
}

// IncLockFailure increments the coupon lock failure counter.
func (p *PricingMetrics) IncLockFailure() {
	if p == nil || p.lockFailures == nil {
		return
	}
	p.lockFailures.Inc()
}

func normalizeLabel(calculator string) string {
	if calculator == "" {
		return "unknown"
	}
	return calculator
}
