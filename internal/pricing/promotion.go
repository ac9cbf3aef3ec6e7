package pricing

import (
	"context"
	"sort"

	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// PromotionMatch is the outcome of one matcher against the cart.
type PromotionMatch struct {
	Discount   money.Amount
	Promotions []PromotionLine
}

// PromotionMatcher decides whether an automatic promotion applies to the
// cart. Matchers never see coupon state; promotions and coupons compose by
// result merging only.
type PromotionMatcher interface {
	Supports(ctx context.Context, calc Context) bool
	Match(ctx context.Context, calc Context) (PromotionMatch, error)
	Priority() int
}

// PromotionCalculator applies automatic promotions via registered matchers.
type PromotionCalculator struct {
	matchers []PromotionMatcher
}

// NewPromotionCalculator builds the promotion stage with the given matchers.
func NewPromotionCalculator(matchers ...PromotionMatcher) *PromotionCalculator {
	calc := &PromotionCalculator{}
	for _, matcher := range matchers {
		calc.AddMatcher(matcher)
	}
	return calc
}

// AddMatcher registers a matcher, keeping matchers sorted by descending
// priority with registration order as tiebreak.
func (p *PromotionCalculator) AddMatcher(matcher PromotionMatcher) {
	if matcher == nil {
		return
	}
	p.matchers = append(p.matchers, matcher)
	sort.SliceStable(p.matchers, func(i, j int) bool {
		return p.matchers[i].Priority() > p.matchers[j].Priority()
	})
}

func (p *PromotionCalculator) Type() string { return TypePromotion }

func (p *PromotionCalculator) Priority() int { return PriorityPromotion }

func (p *PromotionCalculator) Supports(_ context.Context, calc Context) bool {
	return len(p.matchers) > 0 && len(calc.SelectedItems()) > 0
}

// Calculate folds all matching promotions into a single discount
// contribution. A matcher error aborts the run.
func (p *PromotionCalculator) Calculate(ctx context.Context, calc Context) (Result, error) {
	discount := money.Zero()
	var matched []PromotionLine

	for _, matcher := range p.matchers {
		if !matcher.Supports(ctx, calc) {
			continue
		}
		match, err := matcher.Match(ctx, calc)
		if err != nil {
			return EmptyResult(), err
		}
		if len(match.Promotions) == 0 {
			continue
		}
		discount = discount.Add(match.Discount)
		matched = append(matched, match.Promotions...)
	}

	if len(matched) == 0 {
		return EmptyResult(), nil
	}

	return Result{
		FinalPrice: money.Zero().Sub(discount),
		Discount:   discount,
		Details:    map[string]any{TypePromotion: matched},
	}, nil
}
