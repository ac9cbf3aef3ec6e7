package models

import (
	"time"

	"github.com/google/uuid"
)

// CouponUsage logs one redemption of a coupon by a user, written when the
// surrounding order is confirmed.
type CouponUsage struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string         `gorm:"column:code;not null;index"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID   *uuid.UUID     `gorm:"column:order_id;type:uuid"`
	Metadata  map[string]any `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}
