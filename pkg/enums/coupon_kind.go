package enums

import "fmt"

// CouponKind describes how a coupon definition affects the order.
type CouponKind string

const (
	// CouponKindFixed subtracts a flat amount from the eligible subtotal.
	CouponKindFixed CouponKind = "fixed"
	// CouponKindPercent subtracts a basis-point fraction of the eligible subtotal.
	CouponKindPercent CouponKind = "percent"
	// CouponKindGift grants free items without reducing the cash total.
	CouponKindGift CouponKind = "gift"
	// CouponKindRedeem exchanges points/credit for items at a reference price.
	CouponKindRedeem CouponKind = "redeem"
)

var validCouponKinds = []CouponKind{
	CouponKindFixed,
	CouponKindPercent,
	CouponKindGift,
	CouponKindRedeem,
}

// IsValid reports whether the value matches the canonical coupon kind enum.
func (k CouponKind) IsValid() bool {
	for _, candidate := range validCouponKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseCouponKind converts the raw string to CouponKind.
func ParseCouponKind(value string) (CouponKind, error) {
	for _, candidate := range validCouponKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon kind %q", value)
}
