package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/pkg/enums"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// OrderExtraItem is a gift or redeem item attached to an order by a coupon.
type OrderExtraItem struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Kind      enums.ExtraItemKind `gorm:"column:kind;not null"`
	SkuCode   string              `gorm:"column:sku_code;not null"`
	Qty       int                 `gorm:"column:qty;not null"`
	UnitPrice money.Amount        `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	Name      string              `gorm:"column:name;not null"`
	GTIN      *string             `gorm:"column:gtin"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}
