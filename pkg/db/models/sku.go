package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// Sku represents a purchasable product variant with its current market price.
type Sku struct {
	ID          uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string       `gorm:"column:code;not null;uniqueIndex"`
	ProductID   uuid.UUID    `gorm:"column:product_id;type:uuid;not null"`
	Name        string       `gorm:"column:name;not null"`
	MarketPrice money.Amount `gorm:"column:market_price;type:numeric(12,2);not null"`
	Thumbnail   *string      `gorm:"column:thumbnail"`
	Attribute   *string      `gorm:"column:attribute"`
	Active      bool         `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
