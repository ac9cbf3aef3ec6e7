package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/api/responses"
	"github.com/oaklinehq/checkout-backend/api/validators"
	checkoutsvc "github.com/oaklinehq/checkout-backend/internal/checkout"
	"github.com/oaklinehq/checkout-backend/pkg/db/models"
	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// Checkout prices the cart, reserves the applied coupons, and persists the
// resulting order. Replays with the same Idempotency-Key return the stored
// order instead of creating a second one.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.ExecuteInput{}
		if key := strings.TrimSpace(r.Header.Get("Idempotency-Key")); key != "" {
			input.IdempotencyKey = &key
		}

		calc := calculationContextFrom(r, payload)
		order, err := svc.Execute(r.Context(), calc, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type orderResponse struct {
	OrderID        uuid.UUID            `json:"order_id"`
	Status         string               `json:"status"`
	OriginalPrice  money.Amount         `json:"original_price"`
	FinalPrice     money.Amount         `json:"final_price"`
	Discount       money.Amount         `json:"discount"`
	AppliedCoupons []string             `json:"applied_coupons,omitempty"`
	LineItems      []lineItemResponse   `json:"line_items"`
	Allocations    []allocationResponse `json:"discount_allocations,omitempty"`
	ExtraItems     []extraItemResponse  `json:"extra_items,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

type lineItemResponse struct {
	SkuCode   string       `json:"sku_code"`
	Name      string       `json:"name"`
	Qty       int          `json:"qty"`
	UnitPrice money.Amount `json:"unit_price"`
	Subtotal  money.Amount `json:"subtotal"`
}

type allocationResponse struct {
	CouponCode string       `json:"coupon_code"`
	SkuCode    string       `json:"sku_code"`
	Amount     money.Amount `json:"amount"`
}

type extraItemResponse struct {
	Kind      string       `json:"kind"`
	SkuCode   string       `json:"sku_code"`
	Name      string       `json:"name"`
	Qty       int          `json:"qty"`
	UnitPrice money.Amount `json:"unit_price"`
	GTIN      *string      `json:"gtin,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	resp := orderResponse{
		OrderID:        order.ID,
		Status:         string(order.Status),
		OriginalPrice:  order.OriginalPrice,
		FinalPrice:     order.FinalPrice,
		Discount:       order.Discount,
		AppliedCoupons: order.AppliedCoupons,
		CreatedAt:      order.CreatedAt,
	}
	for _, item := range order.LineItems {
		resp.LineItems = append(resp.LineItems, lineItemResponse{
			SkuCode:   item.SkuCode,
			Name:      item.Name,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	for _, alloc := range order.Allocations {
		resp.Allocations = append(resp.Allocations, allocationResponse{
			CouponCode: alloc.CouponCode,
			SkuCode:    alloc.SkuCode,
			Amount:     alloc.Amount,
		})
	}
	for _, extra := range order.ExtraItems {
		resp.ExtraItems = append(resp.ExtraItems, extraItemResponse{
			Kind:      string(extra.Kind),
			SkuCode:   extra.SkuCode,
			Name:      extra.Name,
			Qty:       extra.Qty,
			UnitPrice: extra.UnitPrice,
			GTIN:      extra.GTIN,
		})
	}
	return resp
}
