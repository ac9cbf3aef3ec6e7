package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// OrderLineItem captures the priced snapshot of one cart line.
type OrderLineItem struct {
	ID        uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID    `gorm:"column:order_id;type:uuid;not null;index"`
	SkuCode   string       `gorm:"column:sku_code;not null"`
	ProductID uuid.UUID    `gorm:"column:product_id;type:uuid"`
	Name      string       `gorm:"column:name;not null"`
	Qty       int          `gorm:"column:qty;not null"`
	UnitPrice money.Amount `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal  money.Amount `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
}
