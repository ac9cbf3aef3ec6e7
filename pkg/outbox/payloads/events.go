package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// OrderCreatedEvent signals a committed checkout.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID    `json:"order_id"`
	UserID         uuid.UUID    `json:"user_id"`
	Status         string       `json:"status"`
	OriginalPrice  money.Amount `json:"original_price"`
	FinalPrice     money.Amount `json:"final_price"`
	Discount       money.Amount `json:"discount"`
	AppliedCoupons []string     `json:"applied_coupons,omitempty"`
}

// CouponRedeemedEvent is emitted when a coupon is consumed by a checkout.
type CouponRedeemedEvent struct {
	Code       string    `json:"code"`
	UserID     uuid.UUID `json:"user_id"`
	OrderID    uuid.UUID `json:"order_id"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// CouponUnresolvedEvent reports a user-presented code no provider could
// resolve, so upstream teams can spot typo campaigns or missing imports.
type CouponUnresolvedEvent struct {
	Code   string    `json:"code"`
	UserID uuid.UUID `json:"user_id"`
	SeenAt time.Time `json:"seen_at"`
}
