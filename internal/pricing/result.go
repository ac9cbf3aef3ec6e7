package pricing

import (
	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/internal/coupons"
	"github.com/oaklinehq/checkout-backend/pkg/enums"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// ProductSummary is a display line in a pricing result: either a priced cart
// line or a coupon-granted extra item.
type ProductSummary struct {
	SkuCode   string              `json:"sku_code"`
	ProductID uuid.UUID           `json:"product_id,omitempty"`
	Name      string              `json:"name"`
	Qty       int                 `json:"qty"`
	UnitPrice money.Amount        `json:"unit_price"`
	PaidPrice money.Amount        `json:"paid_price"`
	Kind      enums.ExtraItemKind `json:"kind,omitempty"`
	GTIN      *string             `json:"gtin,omitempty"`
	Thumbnail *string             `json:"thumbnail,omitempty"`
	Attribute *string             `json:"attribute,omitempty"`
}

// IsExtra reports whether this line was granted by a coupon rather than
// purchased from the cart.
func (p ProductSummary) IsExtra() bool {
	return p.Kind != ""
}

// Result is the immutable output of one calculator, and of the whole chain
// once the per-calculator results are merged.
type Result struct {
	OriginalPrice money.Amount
	FinalPrice    money.Amount
	Discount      money.Amount
	Details       map[string]any
	Products      []ProductSummary
}

// EmptyResult is the additive identity of Merge.
func EmptyResult() Result {
	return Result{}
}

// IsEmpty reports whether the result carries no monetary or item effect.
func (r Result) IsEmpty() bool {
	return r.OriginalPrice.IsZero() &&
		r.FinalPrice.IsZero() &&
		r.Discount.IsZero() &&
		len(r.Details) == 0 &&
		len(r.Products) == 0
}

// Merge combines two results: amounts add, detail maps union (other wins on
// key collision), and product lists concatenate. Neither receiver nor
// argument is modified.
func (r Result) Merge(other Result) Result {
	merged := Result{
		OriginalPrice: r.OriginalPrice.Add(other.OriginalPrice),
		FinalPrice:    r.FinalPrice.Add(other.FinalPrice),
		Discount:      r.Discount.Add(other.Discount),
	}

	if len(r.Details) > 0 || len(other.Details) > 0 {
		merged.Details = make(map[string]any, len(r.Details)+len(other.Details))
		for k, v := range r.Details {
			merged.Details[k] = v
		}
		for k, v := range other.Details {
			merged.Details[k] = v
		}
	}

	if len(r.Products) > 0 || len(other.Products) > 0 {
		merged.Products = make([]ProductSummary, 0, len(r.Products)+len(other.Products))
		merged.Products = append(merged.Products, r.Products...)
		merged.Products = append(merged.Products, other.Products...)
	}
	return merged
}

// BasePriceLine is one priced cart line in the base price detail.
type BasePriceLine struct {
	SkuCode   string       `json:"sku_code"`
	Qty       int          `json:"qty"`
	UnitPrice money.Amount `json:"unit_price"`
	Subtotal  money.Amount `json:"subtotal"`
}

// PromotionLine is one matched promotion in the promotion detail.
type PromotionLine struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Discount money.Amount `json:"discount"`
}

// CouponBreakdown summarizes the effect of one applied coupon.
type CouponBreakdown struct {
	Code     string       `json:"code"`
	Kind     string       `json:"kind"`
	Discount money.Amount `json:"discount"`
}

// ExtraItemSummary is a merged gift or redeem grant across all applied
// coupons.
type ExtraItemSummary struct {
	SkuCode   string       `json:"sku_code"`
	Qty       int          `json:"qty"`
	Name      string       `json:"name"`
	GTIN      *string      `json:"gtin,omitempty"`
	UnitPrice money.Amount `json:"unit_price"`
}

// CouponDetail is the structured detail the coupon calculator contributes.
type CouponDetail struct {
	AppliedCodes        []string             `json:"applied_codes"`
	Breakdown           []CouponBreakdown    `json:"breakdown"`
	Allocations         []coupons.Allocation `json:"coupon_allocations"`
	Gifts               []ExtraItemSummary   `json:"coupon_gifts,omitempty"`
	Redeems             []ExtraItemSummary   `json:"coupon_redeems,omitempty"`
	Messages            []string             `json:"coupon_messages,omitempty"`
	ShouldMarkOrderPaid bool                 `json:"should_mark_order_paid"`
}

// CouponDetailFrom extracts the coupon calculator's detail from a merged
// result, if present.
func CouponDetailFrom(result Result) (CouponDetail, bool) {
	raw, ok := result.Details[TypeCoupon]
	if !ok {
		return CouponDetail{}, false
	}
	detail, ok := raw.(CouponDetail)
	return detail, ok
}
