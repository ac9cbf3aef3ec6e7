package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// OrderDiscountAllocation attributes a slice of a coupon's discount to one SKU,
// used later for per-line accounting and refunds.
type OrderDiscountAllocation struct {
	ID         uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID    `gorm:"column:order_id;type:uuid;not null;index"`
	CouponCode string       `gorm:"column:coupon_code;not null"`
	SkuCode    string       `gorm:"column:sku_code;not null"`
	Amount     money.Amount `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt  time.Time    `gorm:"column:created_at;autoCreateTime"`
}
