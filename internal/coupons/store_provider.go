package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oaklinehq/checkout-backend/pkg/db/models"
	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
)

// lockStore is the slice of the redis client the store provider needs.
type lockStore interface {
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
	LockHolder(ctx context.Context, key string) (string, error)
	CouponLockKey(code string) string
}

// errUsageExhausted aborts the redemption transaction when the coupon's
// shared usage budget is already spent.
var errUsageExhausted = errors.New("coupon usage limit exhausted")

// StoreProvider serves coupons persisted in the primary database, with
// redis-backed reservation locks.
type StoreProvider struct {
	db      *gorm.DB
	locks   lockStore
	lockTTL time.Duration
	logg    *logger.Logger
}

// NewStoreProvider builds the database-backed coupon provider.
func NewStoreProvider(db *gorm.DB, locks lockStore, lockTTL time.Duration, logg *logger.Logger) (*StoreProvider, error) {
	if db == nil {
		return nil, fmt.Errorf("coupons: db is required")
	}
	if locks == nil {
		return nil, fmt.Errorf("coupons: lock store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("coupons: logger is required")
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &StoreProvider{db: db, locks: locks, lockTTL: lockTTL, logg: logg}, nil
}

// Identifier names the provider.
func (p *StoreProvider) Identifier() string {
	return "store"
}

// Supports accepts every non-empty code; this provider is the catch-all
// terminus of the chain.
func (p *StoreProvider) Supports(code string) bool {
	return strings.TrimSpace(code) != ""
}

// FindByCode resolves a code from the coupons table. Codes owned by another
// user, inactive codes, and unknown codes all resolve to (nil, nil) so the
// chain can keep looking.
func (p *StoreProvider) FindByCode(ctx context.Context, code string, userID uuid.UUID) (*Definition, error) {
	var coupon models.Coupon
	err := p.db.WithContext(ctx).
		Where("code = ? AND active = ?", strings.TrimSpace(code), true).
		First(&coupon).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading coupon")
	}
	if coupon.OwnerUserID != nil && *coupon.OwnerUserID != userID {
		return nil, nil
	}

	perUserUsed, err := p.countUserUsage(ctx, coupon.Code, userID)
	if err != nil {
		return nil, err
	}
	return definitionFromModel(&coupon, perUserUsed), nil
}

// Lock reserves the code via a redis SETNX lock keyed on the code alone.
// While one user holds the reservation, every other checkout attempt for the
// same code is refused, including attempts by other users on shared codes.
func (p *StoreProvider) Lock(ctx context.Context, code string, userID uuid.UUID) (bool, error) {
	key := p.locks.CouponLockKey(code)
	return p.locks.AcquireLock(ctx, key, userID.String(), p.lockTTL)
}

// Unlock releases the reservation when this user holds it. Releasing an
// absent, expired, or foreign-held lock succeeds without touching it, so
// callers can unlock unconditionally during rollback.
func (p *StoreProvider) Unlock(ctx context.Context, code string, userID uuid.UUID) (bool, error) {
	key := p.locks.CouponLockKey(code)
	if err := p.locks.ReleaseLock(ctx, key, userID.String()); err != nil {
		return false, err
	}
	return true, nil
}

// Redeem consumes the coupon: it verifies the caller still holds the
// reservation, logs a usage row, bumps the usage counter, and releases the
// lock. Runs in one transaction so a crash cannot half-redeem. The counter
// increment re-checks the usage limit so a redemption arriving after the
// budget is spent (for example through an expired lock) is refused rather
// than driving used_count past the limit.
func (p *StoreProvider) Redeem(ctx context.Context, code string, userID uuid.UUID, metadata map[string]any) (bool, error) {
	key := p.locks.CouponLockKey(code)
	holder, err := p.locks.LockHolder(ctx, key)
	if err != nil {
		return false, err
	}
	if holder != userID.String() {
		return false, fmt.Errorf("coupon %s is not locked by user %s", code, userID)
	}

	var orderID *uuid.UUID
	if metadata != nil {
		if raw, ok := metadata["order_id"].(string); ok {
			if parsed, parseErr := uuid.Parse(raw); parseErr == nil {
				orderID = &parsed
			}
		}
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		usage := models.CouponUsage{
			ID:       uuid.New(),
			Code:     code,
			UserID:   userID,
			OrderID:  orderID,
			Metadata: metadata,
		}
		if err := tx.Create(&usage).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Coupon{}).
			Where("code = ? AND (usage_limit IS NULL OR used_count < usage_limit)", code).
			UpdateColumn("used_count", gorm.Expr("used_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errUsageExhausted
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errUsageExhausted) {
			p.logg.Warn(p.logg.WithCouponCode(ctx, code), "refusing redemption, usage limit exhausted")
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording coupon redemption")
	}

	if err := p.locks.ReleaseLock(ctx, key, userID.String()); err != nil {
		// Redemption is committed; the lock will expire on its own.
		p.logg.Warn(p.logg.WithCouponCode(ctx, code), "releasing redeemed coupon lock failed: "+err.Error())
	}
	return true, nil
}

func (p *StoreProvider) countUserUsage(ctx context.Context, code string, userID uuid.UUID) (int, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Model(&models.CouponUsage{}).
		Where("code = ? AND user_id = ?", code, userID).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting coupon usage")
	}
	return int(count), nil
}

func definitionFromModel(coupon *models.Coupon, perUserUsed int) *Definition {
	def := &Definition{
		Code:         coupon.Code,
		Name:         coupon.Name,
		Kind:         coupon.Kind,
		Value:        coupon.Value,
		PercentBps:   coupon.PercentBps,
		MinSpend:     coupon.MinSpend,
		UsageLimit:   coupon.UsageLimit,
		UsedCount:    coupon.UsedCount,
		PerUserLimit: coupon.PerUserLimit,
		PerUserUsed:  perUserUsed,
		ValidFrom:    coupon.ValidFrom,
		ValidTo:      coupon.ValidTo,
		SkuCodes:     coupon.SkuCodes,
	}
	for _, item := range coupon.GiftItems {
		def.GiftItems = append(def.GiftItems, itemFromModel(item))
	}
	for _, item := range coupon.RedeemItems {
		def.RedeemItems = append(def.RedeemItems, itemFromModel(item))
	}
	return def
}

func itemFromModel(item models.CouponItem) Item {
	return Item{
		SkuCode:   item.SkuCode,
		Qty:       item.Qty,
		Name:      item.Name,
		GTIN:      item.GTIN,
		UnitPrice: item.UnitPrice,
	}
}
