package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaklinehq/checkout-backend/pkg/money"
)

type recordingCalculator struct {
	kind     string
	priority int
	supports bool
	result   Result
	err      error
	ran      *[]string
}

func (r *recordingCalculator) Type() string  { return r.kind }
func (r *recordingCalculator) Priority() int { return r.priority }

func (r *recordingCalculator) Supports(context.Context, Context) bool { return r.supports }

func (r *recordingCalculator) Calculate(context.Context, Context) (Result, error) {
	if r.ran != nil {
		*r.ran = append(*r.ran, r.kind)
	}
	return r.result, r.err
}

func TestChainRunsByDescendingPriority(t *testing.T) {
	var ran []string
	chain := newTestChain(t,
		&recordingCalculator{kind: "low", priority: 100, supports: true, ran: &ran},
		&recordingCalculator{kind: "high", priority: 900, supports: true, ran: &ran},
		&recordingCalculator{kind: "mid", priority: 500, supports: true, ran: &ran},
	)

	_, err := chain.Calculate(context.Background(), NewContext(uuid.New(), nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "mid", "low"}, ran)
}

func TestChainStableOrderOnEqualPriority(t *testing.T) {
	var ran []string
	chain := newTestChain(t,
		&recordingCalculator{kind: "first", priority: 500, supports: true, ran: &ran},
		&recordingCalculator{kind: "second", priority: 500, supports: true, ran: &ran},
	)

	_, err := chain.Calculate(context.Background(), NewContext(uuid.New(), nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestChainSkipsUnsupportedCalculators(t *testing.T) {
	var ran []string
	chain := newTestChain(t,
		&recordingCalculator{kind: "on", priority: 900, supports: true, ran: &ran},
		&recordingCalculator{kind: "off", priority: 500, supports: false, ran: &ran},
	)

	_, err := chain.Calculate(context.Background(), NewContext(uuid.New(), nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"on"}, ran)
}

func TestChainFirstErrorAborts(t *testing.T) {
	var ran []string
	boom := errors.New("catalog unavailable")
	chain := newTestChain(t,
		&recordingCalculator{kind: "first", priority: 900, supports: true, err: boom, ran: &ran},
		&recordingCalculator{kind: "second", priority: 500, supports: true, ran: &ran},
	)

	result, err := chain.Calculate(context.Background(), NewContext(uuid.New(), nil))
	require.ErrorIs(t, err, boom)
	assert.True(t, result.IsEmpty())
	assert.Equal(t, []string{"first"}, ran, "later calculators must not run after a failure")
}

func TestChainMergesResultsInOrder(t *testing.T) {
	chain := newTestChain(t,
		&recordingCalculator{
			kind: "base", priority: 900, supports: true,
			result: Result{
				OriginalPrice: money.MustFromString("200.00"),
				FinalPrice:    money.MustFromString("200.00"),
				Details:       map[string]any{"base": true},
			},
		},
		&recordingCalculator{
			kind: "discount", priority: 500, supports: true,
			result: Result{
				FinalPrice: money.MustFromString("-30.00"),
				Discount:   money.MustFromString("30.00"),
				Details:    map[string]any{"discount": true},
			},
		},
	)

	result, err := chain.Calculate(context.Background(), NewContext(uuid.New(), nil))
	require.NoError(t, err)
	assert.Equal(t, "200.00", result.OriginalPrice.String())
	assert.Equal(t, "170.00", result.FinalPrice.String())
	assert.Equal(t, "30.00", result.Discount.String())
	assert.Len(t, result.Details, 2)
}

func TestRegisterKeepsChainSorted(t *testing.T) {
	chain := newTestChain(t)
	chain.Register(&recordingCalculator{kind: "coupon", priority: PriorityCoupon})
	chain.Register(&recordingCalculator{kind: "base_price", priority: PriorityBasePrice})
	chain.Register(&recordingCalculator{kind: "promotion", priority: PriorityPromotion})

	var kinds []string
	for _, calc := range chain.Calculators() {
		kinds = append(kinds, calc.Type())
	}
	assert.Equal(t, []string{"base_price", "promotion", "coupon"}, kinds)
}
