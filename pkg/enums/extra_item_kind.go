package enums

import "fmt"

// ExtraItemKind distinguishes coupon side-effect items attached to an order.
type ExtraItemKind string

const (
	ExtraItemKindGift   ExtraItemKind = "gift"
	ExtraItemKindRedeem ExtraItemKind = "redeem"
)

var validExtraItemKinds = []ExtraItemKind{
	ExtraItemKindGift,
	ExtraItemKindRedeem,
}

// IsValid reports whether the value matches the canonical extra item kind enum.
func (k ExtraItemKind) IsValid() bool {
	for _, candidate := range validExtraItemKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseExtraItemKind converts the raw string to ExtraItemKind.
func ParseExtraItemKind(value string) (ExtraItemKind, error) {
	for _, candidate := range validExtraItemKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid extra item kind %q", value)
}
