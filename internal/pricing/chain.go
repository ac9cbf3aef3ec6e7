package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/oaklinehq/checkout-backend/pkg/logger"
	"github.com/oaklinehq/checkout-backend/pkg/metrics"
)

// Calculator types, also used as detail map keys.
const (
	TypeBasePrice = "base_price"
	TypePromotion = "promotion"
	TypeCoupon    = "coupon"
)

// Calculator priorities; higher runs first. Registration order breaks ties.
const (
	PriorityBasePrice = 1000
	PriorityPromotion = 800
	PriorityCoupon    = 600
)

// Calculator is one pricing stage. Implementations must be side-effect free:
// the same context always yields the same result.
type Calculator interface {
	// Type names the calculator and keys its entry in the result details.
	Type() string
	// Priority orders execution; higher runs earlier.
	Priority() int
	// Supports reports whether this calculator applies to the context.
	Supports(ctx context.Context, calc Context) bool
	// Calculate produces this stage's contribution to the final result.
	Calculate(ctx context.Context, calc Context) (Result, error)
}

// Chain runs registered calculators in priority order and merges their
// results. The first calculator error aborts the run.
type Chain struct {
	calculators []Calculator
	logg        *logger.Logger
	metrics     *metrics.PricingMetrics
}

// NewChain builds a calculation chain. The metrics sink may be nil.
func NewChain(logg *logger.Logger, m *metrics.PricingMetrics, calculators ...Calculator) (*Chain, error) {
	if logg == nil {
		return nil, fmt.Errorf("pricing: logger is required")
	}
	chain := &Chain{logg: logg, metrics: m}
	for _, calc := range calculators {
		chain.Register(calc)
	}
	return chain, nil
}

// Register adds a calculator and re-sorts the chain. The sort is stable, so
// equal priorities keep registration order.
func (c *Chain) Register(calc Calculator) {
	if calc == nil {
		return
	}
	c.calculators = append(c.calculators, calc)
	sort.SliceStable(c.calculators, func(i, j int) bool {
		return c.calculators[i].Priority() > c.calculators[j].Priority()
	})
}

// Calculators returns the registered calculators in execution order.
func (c *Chain) Calculators() []Calculator {
	out := make([]Calculator, len(c.calculators))
	copy(out, c.calculators)
	return out
}

// Calculate runs every supporting calculator against the context and merges
// their results in execution order.
func (c *Chain) Calculate(ctx context.Context, calc Context) (Result, error) {
	result := EmptyResult()
	for _, calculator := range c.calculators {
		if !calculator.Supports(ctx, calc) {
			continue
		}

		stageCtx := c.logg.WithCalculator(ctx, calculator.Type())
		started := time.Now()
		partial, err := calculator.Calculate(stageCtx, calc)
		c.metrics.ObserveCalculator(calculator.Type(), time.Since(started))
		if err != nil {
			c.metrics.IncCalculatorFailure(calculator.Type())
			c.logg.Error(stageCtx, "calculator failed", err)
			return EmptyResult(), err
		}

		result = result.Merge(partial)
	}
	return result, nil
}
