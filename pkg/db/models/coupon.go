package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/pkg/enums"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// CouponItem is an item granted by a coupon (gift or redeem payload).
type CouponItem struct {
	SkuCode   string       `json:"sku_code"`
	Qty       int          `json:"qty"`
	Name      string       `json:"name"`
	GTIN      *string      `json:"gtin,omitempty"`
	UnitPrice money.Amount `json:"unit_price"`
}

// Coupon is the persisted coupon definition resolved from a user-presented code.
type Coupon struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code         string           `gorm:"column:code;not null;uniqueIndex"`
	Name         string           `gorm:"column:name;not null"`
	Kind         enums.CouponKind `gorm:"column:kind;not null"`
	Value        money.Amount     `gorm:"column:value;type:numeric(12,2);not null;default:0"`
	PercentBps   *int             `gorm:"column:percent_bps"`
	MinSpend     money.Amount     `gorm:"column:min_spend;type:numeric(12,2);not null;default:0"`
	UsageLimit   *int             `gorm:"column:usage_limit"`
	UsedCount    int              `gorm:"column:used_count;not null;default:0"`
	PerUserLimit *int             `gorm:"column:per_user_limit"`
	ValidFrom    *time.Time       `gorm:"column:valid_from"`
	ValidTo      *time.Time       `gorm:"column:valid_to"`
	SkuCodes     []string         `gorm:"column:sku_codes;type:jsonb;serializer:json"`
	GiftItems    []CouponItem     `gorm:"column:gift_items;type:jsonb;serializer:json"`
	RedeemItems  []CouponItem     `gorm:"column:redeem_items;type:jsonb;serializer:json"`
	OwnerUserID  *uuid.UUID       `gorm:"column:owner_user_id;type:uuid"`
	Active       bool             `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
