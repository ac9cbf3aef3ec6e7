package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/internal/catalog"
	"github.com/oaklinehq/checkout-backend/internal/coupons"
	"github.com/oaklinehq/checkout-backend/pkg/enums"
	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// couponSource resolves codes to definitions; satisfied by *coupons.Chain.
type couponSource interface {
	FindByCode(ctx context.Context, code string, userID uuid.UUID) (*coupons.Definition, error)
}

// CouponCalculator applies the user-presented coupon codes. A code that
// fails to resolve or to pass its rules produces a message, never an error:
// the rest of the quote survives.
type CouponCalculator struct {
	source    couponSource
	evaluator coupons.Evaluator
	skus      catalog.Loader
	logg      *logger.Logger
}

// NewCouponCalculator builds the coupon stage.
func NewCouponCalculator(source couponSource, evaluator coupons.Evaluator, skus catalog.Loader, logg *logger.Logger) (*CouponCalculator, error) {
	if source == nil {
		return nil, fmt.Errorf("pricing: coupon source is required")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("pricing: coupon evaluator is required")
	}
	if skus == nil {
		return nil, fmt.Errorf("pricing: sku loader is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("pricing: logger is required")
	}
	return &CouponCalculator{source: source, evaluator: evaluator, skus: skus, logg: logg}, nil
}

func (c *CouponCalculator) Type() string { return TypeCoupon }

func (c *CouponCalculator) Priority() int { return PriorityCoupon }

func (c *CouponCalculator) Supports(_ context.Context, calc Context) bool {
	return len(calc.Coupons()) > 0
}

// Calculate resolves, evaluates, and aggregates every presented code in
// order, then emits the combined negative contribution.
func (c *CouponCalculator) Calculate(ctx context.Context, calc Context) (Result, error) {
	eval, err := c.evaluationContext(ctx, calc)
	if err != nil {
		return EmptyResult(), err
	}

	agg := newCouponAggregate()
	for _, code := range calc.Coupons() {
		codeCtx := c.logg.WithCouponCode(ctx, code)

		def, err := c.source.FindByCode(codeCtx, code, calc.UserID())
		if err != nil || def == nil {
			agg.addMessage(code, "coupon not found")
			continue
		}

		applied, err := c.evaluator.Evaluate(codeCtx, def, eval)
		if err != nil {
			if evalErr, ok := err.(*coupons.EvaluationError); ok {
				agg.addMessage(code, evalErr.Reason)
				continue
			}
			c.logg.Error(codeCtx, "coupon evaluation failed", err)
			agg.addMessage(code, "coupon could not be applied")
			continue
		}

		agg.apply(applied)
	}

	if !agg.hasEffect() {
		return EmptyResult(), nil
	}

	final := money.Zero().Sub(agg.totalDiscount)
	if calc.IsRedeemOnly() && final.IsNegative() {
		// A pure redemption order never carries a negative balance.
		final = money.Zero()
	}

	result := Result{
		FinalPrice: final,
		Discount:   agg.totalDiscount,
		Details: map[string]any{TypeCoupon: CouponDetail{
			AppliedCodes:        agg.appliedCodes,
			Breakdown:           agg.breakdown,
			Allocations:         agg.orderedAllocations(),
			Gifts:               agg.orderedGifts(),
			Redeems:             agg.orderedRedeems(),
			Messages:            agg.messages,
			ShouldMarkOrderPaid: agg.markOrderPaid,
		}},
	}

	for _, gift := range agg.orderedGifts() {
		result.Products = append(result.Products, c.extraProduct(ctx, calc, gift, enums.ExtraItemKindGift))
	}
	for _, redeem := range agg.orderedRedeems() {
		result.Products = append(result.Products, c.extraProduct(ctx, calc, redeem, enums.ExtraItemKindRedeem))
	}
	return result, nil
}

// evaluationContext prices the selected cart lines for rule evaluation. A
// line whose SKU vanished since the cart was built is skipped with a
// warning; coupon evaluation degrades rather than failing the quote.
func (c *CouponCalculator) evaluationContext(ctx context.Context, calc Context) (coupons.EvaluationContext, error) {
	eval := coupons.EvaluationContext{
		UserID:     calc.UserID(),
		RedeemOnly: calc.IsRedeemOnly(),
		Now:        calc.Now(),
	}
	for _, item := range calc.SelectedItems() {
		sku := item.Sku
		if sku == nil {
			var err error
			sku, err = c.skus.LoadByCode(ctx, item.SkuCode)
			if err != nil {
				if catalog.IsNotFound(err) {
					c.logg.Warn(ctx, "skipping unknown sku during coupon evaluation: "+item.SkuCode)
					continue
				}
				return coupons.EvaluationContext{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pricing coupon evaluation cart")
			}
			calc.attachSku(item.SkuCode, sku)
		}
		eval.Items = append(eval.Items, coupons.OrderItem{
			SkuCode:   sku.Code,
			ProductID: sku.ProductID,
			Qty:       item.Qty,
			UnitPrice: sku.MarketPrice,
			Subtotal:  sku.MarketPrice.MulInt(int64(item.Qty)),
		})
	}
	return eval, nil
}

// extraProduct renders a coupon-granted item as a display line, enriching it
// from the catalog when the SKU is known. A cart line's cached SKU is reused;
// items outside the cart are loaded once here.
func (c *CouponCalculator) extraProduct(ctx context.Context, calc Context, item ExtraItemSummary, kind enums.ExtraItemKind) ProductSummary {
	summary := ProductSummary{
		SkuCode:   item.SkuCode,
		Name:      item.Name,
		Qty:       item.Qty,
		UnitPrice: item.UnitPrice,
		PaidPrice: money.Zero(),
		Kind:      kind,
		GTIN:      item.GTIN,
	}
	sku := calc.resolvedSku(item.SkuCode)
	if sku == nil {
		loaded, err := c.skus.LoadByCode(ctx, item.SkuCode)
		if err != nil {
			return summary
		}
		sku = loaded
	}
	summary.ProductID = sku.ProductID
	summary.Thumbnail = sku.Thumbnail
	summary.Attribute = sku.Attribute
	if summary.Name == "" {
		summary.Name = sku.Name
	}
	return summary
}
