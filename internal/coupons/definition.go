package coupons

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/pkg/enums"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// Definition is a fully resolved coupon, ready for rule evaluation. Providers
// translate their storage representation into this shape.
type Definition struct {
	Code         string
	Name         string
	Kind         enums.CouponKind
	Value        money.Amount
	PercentBps   *int
	MinSpend     money.Amount
	UsageLimit   *int
	UsedCount    int
	PerUserLimit *int
	PerUserUsed  int
	ValidFrom    *time.Time
	ValidTo      *time.Time
	SkuCodes     []string
	GiftItems    []Item
	RedeemItems  []Item
	Metadata     map[string]any
}

// Item is a gift or redeem payload line carried by a coupon.
type Item struct {
	SkuCode   string
	Qty       int
	Name      string
	GTIN      *string
	UnitPrice money.Amount
}

// Allocation attributes a slice of a coupon's discount to one SKU.
type Allocation struct {
	SkuCode string       `json:"sku_id"`
	Amount  money.Amount `json:"amount"`
}

// ApplicationResult is the outcome of evaluating one coupon against an order.
type ApplicationResult struct {
	Code                string
	Discount            money.Amount
	Allocations         []Allocation
	GiftItems           []Item
	RedeemItems         []Item
	ShouldMarkOrderPaid bool
	Metadata            map[string]any
}

// OrderItem is a priced cart line presented to the rule evaluator.
type OrderItem struct {
	SkuCode   string
	ProductID uuid.UUID
	Qty       int
	UnitPrice money.Amount
	Subtotal  money.Amount
}

// EvaluationContext carries the order state a coupon is evaluated against.
type EvaluationContext struct {
	UserID     uuid.UUID
	Items      []OrderItem
	RedeemOnly bool
	Now        time.Time
}

// CartTotal sums the priced line subtotals.
func (e EvaluationContext) CartTotal() money.Amount {
	total := money.Zero()
	for _, item := range e.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// EvaluationError marks a coupon that resolved fine but is not applicable to
// this order. Callers surface these as messages instead of failing the quote.
type EvaluationError struct {
	CouponCode string
	Reason     string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("coupon %s not applicable: %s", e.CouponCode, e.Reason)
}

// NewEvaluationError builds an applicability failure for the given code.
func NewEvaluationError(code, reason string) *EvaluationError {
	return &EvaluationError{CouponCode: code, Reason: reason}
}

// IsEvaluationError reports whether err is an applicability failure.
func IsEvaluationError(err error) bool {
	var typed *EvaluationError
	return errors.As(err, &typed)
}
