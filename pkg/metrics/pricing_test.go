package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCalculatorCountsRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPricingMetrics(reg)

	m.ObserveCalculator("base_price", 5*time.Millisecond)
	m.ObserveCalculator("base_price", 7*time.Millisecond)
	m.ObserveCalculator("coupon", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.runs.WithLabelValues("base_price")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("coupon")))
}

func TestNilReceiverSafe(t *testing.T) {
	var m *PricingMetrics
	m.ObserveCalculator("base_price", time.Millisecond)
	m.IncCalculatorFailure("coupon")
	m.IncLockFailure()
}

func TestEmptyLabelNormalized(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPricingMetrics(reg)
	m.IncCalculatorFailure("")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failures.WithLabelValues("unknown")))
}
