package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/oaklinehq/checkout-backend/internal/orders"
	"github.com/oaklinehq/checkout-backend/internal/pricing"
	"github.com/oaklinehq/checkout-backend/pkg/db"
	"github.com/oaklinehq/checkout-backend/pkg/db/models"
	"github.com/oaklinehq/checkout-backend/pkg/enums"
	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
	"github.com/oaklinehq/checkout-backend/pkg/metrics"
	"github.com/oaklinehq/checkout-backend/pkg/outbox"
	"github.com/oaklinehq/checkout-backend/pkg/outbox/payloads"
)

// txRunner abstracts the database transaction boundary.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// couponLifecycle is the slice of the coupon chain checkout drives.
type couponLifecycle interface {
	Lock(ctx context.Context, code string, userID uuid.UUID) bool
	Unlock(ctx context.Context, code string, userID uuid.UUID) bool
	Redeem(ctx context.Context, code string, userID uuid.UUID, metadata map[string]any) bool
}

// ExecuteInput carries checkout options beyond the pricing context.
type ExecuteInput struct {
	IdempotencyKey *string
}

// Service prices carts and turns accepted quotes into orders.
type Service interface {
	Quote(ctx context.Context, calc pricing.Context) (pricing.Result, error)
	Execute(ctx context.Context, calc pricing.Context, input ExecuteInput) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type service struct {
	chain   *pricing.Chain
	coupons couponLifecycle
	orders  orders.Repository
	tx      txRunner
	outbox  *outbox.Service
	logg    *logger.Logger
	metrics *metrics.PricingMetrics
}

// Params wires the checkout service dependencies.
type Params struct {
	Chain   *pricing.Chain
	Coupons couponLifecycle
	Orders  orders.Repository
	Tx      txRunner
	Outbox  *outbox.Service
	Logger  *logger.Logger
	Metrics *metrics.PricingMetrics
}

// NewService builds the checkout workflow service.
func NewService(params Params) (Service, error) {
	if params.Chain == nil {
		return nil, fmt.Errorf("checkout: pricing chain is required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("checkout: coupon lifecycle is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("checkout: orders repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("checkout: transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("checkout: outbox service is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("checkout: logger is required")
	}
	return &service{
		chain:   params.Chain,
		coupons: params.Coupons,
		orders:  params.Orders,
		tx:      params.Tx,
		outbox:  params.Outbox,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Quote prices the cart without side effects.
func (s *service) Quote(ctx context.Context, calc pricing.Context) (pricing.Result, error) {
	return s.chain.Calculate(ctx, calc)
}

// Execute prices the cart, reserves every applied coupon, persists the order
// atomically, then consumes the reservations. Any lock failure releases the
// locks already taken and aborts before anything is written.
func (s *service) Execute(ctx context.Context, calc pricing.Context, input ExecuteInput) (*models.Order, error) {
	ctx = s.logg.WithUserID(ctx, calc.UserID().String())

	if input.IdempotencyKey != nil && *input.IdempotencyKey != "" {
		existing, err := s.orders.FindByIdempotencyKey(ctx, *input.IdempotencyKey)
		if err == nil {
			s.logg.Info(s.logg.WithOrderID(ctx, existing.ID.String()), "checkout replayed from idempotency key")
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up idempotency key")
		}
	}

	result, err := s.Quote(ctx, calc)
	if err != nil {
		return nil, err
	}
	if result.FinalPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quote resolves to a negative total").
			WithDetails(map[string]string{"final_price": result.FinalPrice.String()})
	}

	detail, _ := pricing.CouponDetailFrom(result)
	locked, err := s.lockCoupons(ctx, detail.AppliedCodes, calc.UserID())
	if err != nil {
		return nil, err
	}

	order, err := s.persistOrder(ctx, calc, result, detail, input)
	if err != nil {
		s.unlockAll(ctx, locked, calc.UserID())
		// A concurrent request with the same key can win the insert between
		// the replay lookup and here; serve its order instead of failing.
		if input.IdempotencyKey != nil && db.IsUniqueViolation(err, "") {
			if existing, findErr := s.orders.FindByIdempotencyKey(ctx, *input.IdempotencyKey); findErr == nil {
				s.logg.Info(s.logg.WithOrderID(ctx, existing.ID.String()), "checkout replayed after losing idempotency race")
				return existing, nil
			}
		}
		return nil, err
	}

	s.redeemAll(ctx, locked, calc.UserID(), order.ID)
	return order, nil
}

// GetOrder loads a stored order with its child rows.
func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
				WithDetails(map[string]string{"order_id": id.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

// lockCoupons reserves every code or none. On a failed reservation the
// already-held locks are released before returning CONFLICT.
func (s *service) lockCoupons(ctx context.Context, codes []string, userID uuid.UUID) ([]string, error) {
	locked := make([]string, 0, len(codes))
	for _, code := range codes {
		if s.coupons.Lock(ctx, code, userID) {
			locked = append(locked, code)
			continue
		}
		s.metrics.IncLockFailure()
		s.unlockAll(ctx, locked, userID)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon is already in use").
			WithDetails(map[string]string{"coupon_code": code})
	}
	return locked, nil
}

func (s *service) unlockAll(ctx context.Context, codes []string, userID uuid.UUID) {
	var failures error
	for _, code := range codes {
		if !s.coupons.Unlock(ctx, code, userID) {
			failures = multierr.Append(failures, fmt.Errorf("unlock %s", code))
		}
	}
	if failures != nil {
		// Leaked locks expire with their TTL; log and move on.
		s.logg.Error(ctx, "releasing coupon locks failed", failures)
	}
}

func (s *service) redeemAll(ctx context.Context, codes []string, userID uuid.UUID, orderID uuid.UUID) {
	for _, code := range codes {
		metadata := map[string]any{"order_id": orderID.String()}
		if !s.coupons.Redeem(ctx, code, userID, metadata) {
			// The order stands; redemption is reconciled out of band.
			s.logg.Warn(s.logg.WithCouponCode(ctx, code), "coupon redemption failed after checkout")
		}
	}
}

func (s *service) persistOrder(ctx context.Context, calc pricing.Context, result pricing.Result, detail pricing.CouponDetail, input ExecuteInput) (*models.Order, error) {
	status := enums.OrderStatusPending
	if detail.ShouldMarkOrderPaid && result.FinalPrice.IsZero() {
		status = enums.OrderStatusPaid
	}

	order := &models.Order{
		ID:             uuid.New(),
		UserID:         calc.UserID(),
		Status:         status,
		OriginalPrice:  result.OriginalPrice,
		FinalPrice:     result.FinalPrice,
		Discount:       result.Discount,
		AppliedCoupons: detail.AppliedCodes,
		IdempotencyKey: input.IdempotencyKey,
	}
	if orderType, ok := calc.Metadata(pricing.MetadataOrderType); ok {
		order.Metadata = map[string]any{pricing.MetadataOrderType: orderType}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := repo.CreateLineItems(ctx, lineItemsFrom(order.ID, result)); err != nil {
			return err
		}
		if err := repo.CreateAllocations(ctx, allocationsFrom(order.ID, detail)); err != nil {
			return err
		}
		if err := repo.CreateExtraItems(ctx, extraItemsFrom(order.ID, result)); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderCreated,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: calc.UserID()},
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				OrderID:        order.ID,
				UserID:         calc.UserID(),
				Status:         string(order.Status),
				OriginalPrice:  order.OriginalPrice,
				FinalPrice:     order.FinalPrice,
				Discount:       order.Discount,
				AppliedCoupons: order.AppliedCoupons,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created")
	return order, nil
}

func lineItemsFrom(orderID uuid.UUID, result pricing.Result) []models.OrderLineItem {
	var items []models.OrderLineItem
	for _, product := range result.Products {
		if product.IsExtra() {
			continue
		}
		items = append(items, models.OrderLineItem{
			OrderID:   orderID,
			SkuCode:   product.SkuCode,
			ProductID: product.ProductID,
			Name:      product.Name,
			Qty:       product.Qty,
			UnitPrice: product.UnitPrice,
			Subtotal:  product.PaidPrice,
		})
	}
	return items
}

func allocationsFrom(orderID uuid.UUID, detail pricing.CouponDetail) []models.OrderDiscountAllocation {
	var allocations []models.OrderDiscountAllocation
	// Allocations are merged per SKU across coupons, so multi-coupon orders
	// record the combined code set.
	couponCode := strings.Join(detail.AppliedCodes, ",")
	for _, alloc := range detail.Allocations {
		allocations = append(allocations, models.OrderDiscountAllocation{
			OrderID:    orderID,
			CouponCode: couponCode,
			SkuCode:    alloc.SkuCode,
			Amount:     alloc.Amount,
		})
	}
	return allocations
}

func extraItemsFrom(orderID uuid.UUID, result pricing.Result) []models.OrderExtraItem {
	var items []models.OrderExtraItem
	for _, product := range result.Products {
		if !product.IsExtra() {
			continue
		}
		items = append(items, models.OrderExtraItem{
			OrderID:   orderID,
			Kind:      product.Kind,
			SkuCode:   product.SkuCode,
			Qty:       product.Qty,
			UnitPrice: product.UnitPrice,
			Name:      product.Name,
			GTIN:      product.GTIN,
		})
	}
	return items
}
