package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/pkg/enums"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// Order is the priced, confirmed result of a checkout attempt.
type Order struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID                 `gorm:"column:user_id;type:uuid;not null;index"`
	Status         enums.OrderStatus         `gorm:"column:status;not null;default:'pending'"`
	OriginalPrice  money.Amount              `gorm:"column:original_price;type:numeric(12,2);not null"`
	FinalPrice     money.Amount              `gorm:"column:final_price;type:numeric(12,2);not null"`
	Discount       money.Amount              `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	AppliedCoupons []string                  `gorm:"column:applied_coupons;type:jsonb;serializer:json"`
	Metadata       map[string]any            `gorm:"column:metadata;type:jsonb;serializer:json"`
	IdempotencyKey *string                   `gorm:"column:idempotency_key;uniqueIndex"`
	LineItems      []OrderLineItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Allocations    []OrderDiscountAllocation `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ExtraItems     []OrderExtraItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
