package coupons

import (
	"context"
	"fmt"
	"time"

	"github.com/oaklinehq/checkout-backend/pkg/enums"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

const bpsDenominator = 10_000

// Evaluator decides whether a resolved coupon applies to an order and what
// it grants when it does.
type Evaluator interface {
	Evaluate(ctx context.Context, def *Definition, eval EvaluationContext) (*ApplicationResult, error)
}

type ruleEvaluator struct {
	now func() time.Time
}

// NewEvaluator builds the standard rule evaluator.
func NewEvaluator() Evaluator {
	return &ruleEvaluator{now: time.Now}
}

// Evaluate checks validity window, usage limits, minimum spend, and SKU
// scoping, then computes the coupon's monetary and item effects. Rule
// failures come back as *EvaluationError so callers can keep the quote alive.
func (r *ruleEvaluator) Evaluate(_ context.Context, def *Definition, eval EvaluationContext) (*ApplicationResult, error) {
	if def == nil {
		return nil, fmt.Errorf("coupons: definition is required")
	}

	now := eval.Now
	if now.IsZero() {
		now = r.now()
	}
	if def.ValidFrom != nil && now.Before(*def.ValidFrom) {
		return nil, NewEvaluationError(def.Code, "not yet active")
	}
	if def.ValidTo != nil && now.After(*def.ValidTo) {
		return nil, NewEvaluationError(def.Code, "expired")
	}
	if def.UsageLimit != nil && def.UsedCount >= *def.UsageLimit {
		return nil, NewEvaluationError(def.Code, "usage limit reached")
	}
	if def.PerUserLimit != nil && def.PerUserUsed >= *def.PerUserLimit {
		return nil, NewEvaluationError(def.Code, "per-user limit reached")
	}

	cartTotal := eval.CartTotal()
	if def.MinSpend.IsPositive() && cartTotal.Cmp(def.MinSpend) < 0 {
		return nil, NewEvaluationError(def.Code, "minimum spend not met")
	}

	eligible := eligibleItems(def.SkuCodes, eval.Items)
	eligibleTotal := money.Zero()
	for _, item := range eligible {
		eligibleTotal = eligibleTotal.Add(item.Subtotal)
	}

	result := &ApplicationResult{
		Code: def.Code,
		Metadata: map[string]any{
			"kind":              string(def.Kind),
			"eligible_subtotal": eligibleTotal.String(),
		},
	}

	switch def.Kind {
	case enums.CouponKindFixed:
		if eligibleTotal.IsZero() {
			return nil, NewEvaluationError(def.Code, "no eligible items in cart")
		}
		discount := def.Value
		if discount.Cmp(eligibleTotal) > 0 {
			discount = eligibleTotal
		}
		result.Discount = discount
		result.Allocations = allocate(discount, eligible)

	case enums.CouponKindPercent:
		if def.PercentBps == nil || *def.PercentBps <= 0 {
			return nil, NewEvaluationError(def.Code, "percent rate missing")
		}
		if eligibleTotal.IsZero() {
			return nil, NewEvaluationError(def.Code, "no eligible items in cart")
		}
		discount := money.FromCents(eligibleTotal.Cents() * int64(*def.PercentBps) / bpsDenominator)
		if discount.Cmp(eligibleTotal) > 0 {
			discount = eligibleTotal
		}
		result.Discount = discount
		result.Allocations = allocate(discount, eligible)

	case enums.CouponKindGift:
		if len(def.GiftItems) == 0 {
			return nil, NewEvaluationError(def.Code, "no gift items configured")
		}
		result.GiftItems = append(result.GiftItems, def.GiftItems...)

	case enums.CouponKindRedeem:
		if len(def.RedeemItems) == 0 {
			return nil, NewEvaluationError(def.Code, "no redeem items configured")
		}
		result.RedeemItems = append(result.RedeemItems, def.RedeemItems...)
		result.ShouldMarkOrderPaid = true

	default:
		return nil, NewEvaluationError(def.Code, "unsupported coupon kind")
	}

	// A discount covering the whole cart leaves nothing to charge.
	if cartTotal.IsPositive() && result.Discount.Cmp(cartTotal) >= 0 {
		result.ShouldMarkOrderPaid = true
	}
	return result, nil
}

// eligibleItems scopes the order lines a coupon may discount. An empty scope
// means the whole cart is eligible.
func eligibleItems(scope []string, items []OrderItem) []OrderItem {
	if len(scope) == 0 {
		return items
	}
	scoped := make(map[string]struct{}, len(scope))
	for _, code := range scope {
		scoped[code] = struct{}{}
	}
	var eligible []OrderItem
	for _, item := range items {
		if _, ok := scoped[item.SkuCode]; ok {
			eligible = append(eligible, item)
		}
	}
	return eligible
}

// allocate distributes the discount across eligible lines proportionally to
// their subtotals. Integer cent division floors each share; the final line
// absorbs the rounding remainder so the shares always sum to the discount.
func allocate(discount money.Amount, eligible []OrderItem) []Allocation {
	if len(eligible) == 0 || discount.IsZero() {
		return nil
	}
	total := money.Zero()
	for _, item := range eligible {
		total = total.Add(item.Subtotal)
	}
	if !total.IsPositive() {
		return nil
	}

	allocations := make([]Allocation, 0, len(eligible))
	remaining := discount
	for i, item := range eligible {
		var share money.Amount
		if i == len(eligible)-1 {
			share = remaining
		} else {
			share = money.FromCents(discount.Cents() * item.Subtotal.Cents() / total.Cents())
		}
		allocations = append(allocations, Allocation{SkuCode: item.SkuCode, Amount: share})
		remaining = remaining.Sub(share)
	}
	return allocations
}
