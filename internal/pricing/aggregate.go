package pricing

import (
	"fmt"

	"github.com/oaklinehq/checkout-backend/internal/coupons"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// couponAggregate folds per-coupon application results into one combined
// effect. Ordering is stable: codes, allocations, and extra items keep the
// order in which they were first seen.
type couponAggregate struct {
	totalDiscount money.Amount
	markOrderPaid bool

	appliedCodes []string
	breakdown    []CouponBreakdown
	messages     []string

	allocations     map[string]money.Amount
	allocationOrder []string

	gifts     map[string]*ExtraItemSummary
	giftOrder []string

	redeems     map[string]*ExtraItemSummary
	redeemOrder []string
}

func newCouponAggregate() *couponAggregate {
	return &couponAggregate{
		allocations: map[string]money.Amount{},
		gifts:       map[string]*ExtraItemSummary{},
		redeems:     map[string]*ExtraItemSummary{},
	}
}

// apply merges one coupon's application into the aggregate. Gift quantities
// sum with first-seen name and GTIN winning; redeem quantities sum with the
// latest unit price winning; allocations sum per SKU. A paid marker from any
// coupon sticks.
func (a *couponAggregate) apply(result *coupons.ApplicationResult) {
	if result == nil {
		return
	}

	a.totalDiscount = a.totalDiscount.Add(result.Discount)
	if result.ShouldMarkOrderPaid {
		a.markOrderPaid = true
	}

	a.appliedCodes = append(a.appliedCodes, result.Code)
	kind := ""
	if raw, ok := result.Metadata["kind"].(string); ok {
		kind = raw
	}
	a.breakdown = append(a.breakdown, CouponBreakdown{
		Code:     result.Code,
		Kind:     kind,
		Discount: result.Discount,
	})

	for _, alloc := range result.Allocations {
		if _, seen := a.allocations[alloc.SkuCode]; !seen {
			a.allocationOrder = append(a.allocationOrder, alloc.SkuCode)
		}
		a.allocations[alloc.SkuCode] = a.allocations[alloc.SkuCode].Add(alloc.Amount)
	}

	for _, item := range result.GiftItems {
		existing, seen := a.gifts[item.SkuCode]
		if !seen {
			a.giftOrder = append(a.giftOrder, item.SkuCode)
			a.gifts[item.SkuCode] = &ExtraItemSummary{
				SkuCode:   item.SkuCode,
				Qty:       item.Qty,
				Name:      item.Name,
				GTIN:      item.GTIN,
				UnitPrice: item.UnitPrice,
			}
			continue
		}
		// Same gift from several coupons: quantities accumulate, the first
		// coupon's display fields win.
		existing.Qty += item.Qty
	}

	for _, item := range result.RedeemItems {
		existing, seen := a.redeems[item.SkuCode]
		if !seen {
			a.redeemOrder = append(a.redeemOrder, item.SkuCode)
			a.redeems[item.SkuCode] = &ExtraItemSummary{
				SkuCode:   item.SkuCode,
				Qty:       item.Qty,
				Name:      item.Name,
				GTIN:      item.GTIN,
				UnitPrice: item.UnitPrice,
			}
			continue
		}
		// Redeem items accumulate quantity and track the latest reference
		// price.
		existing.Qty += item.Qty
		existing.Name = item.Name
		existing.GTIN = item.GTIN
		existing.UnitPrice = item.UnitPrice
	}
}

// addMessage records a non-fatal failure for one coupon code.
func (a *couponAggregate) addMessage(code, reason string) {
	a.messages = append(a.messages, fmt.Sprintf("%s: %s", code, reason))
}

// hasEffect reports whether any coupon changed the order at all: a nonzero
// discount, a gift, or a redeem item. Applied codes and messages alone are
// not an effect, so a code whose discount rounds to zero cents and grants
// nothing keeps the calculator silent.
func (a *couponAggregate) hasEffect() bool {
	return !a.totalDiscount.IsZero() || len(a.gifts) > 0 || len(a.redeems) > 0
}

func (a *couponAggregate) orderedAllocations() []coupons.Allocation {
	if len(a.allocationOrder) == 0 {
		return nil
	}
	out := make([]coupons.Allocation, 0, len(a.allocationOrder))
	for _, sku := range a.allocationOrder {
		out = append(out, coupons.Allocation{SkuCode: sku, Amount: a.allocations[sku]})
	}
	return out
}

func (a *couponAggregate) orderedGifts() []ExtraItemSummary {
	return orderedSummaries(a.giftOrder, a.gifts)
}

func (a *couponAggregate) orderedRedeems() []ExtraItemSummary {
	return orderedSummaries(a.redeemOrder, a.redeems)
}

func orderedSummaries(order []string, byCode map[string]*ExtraItemSummary) []ExtraItemSummary {
	if len(order) == 0 {
		return nil
	}
	out := make([]ExtraItemSummary, 0, len(order))
	for _, sku := range order {
		out = append(out, *byCode[sku])
	}
	return out
}
