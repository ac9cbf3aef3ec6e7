package controllers

import (
	"net/http"

	"github.com/oaklinehq/checkout-backend/api/middleware"
	"github.com/oaklinehq/checkout-backend/api/responses"
	"github.com/oaklinehq/checkout-backend/api/validators"
	checkoutsvc "github.com/oaklinehq/checkout-backend/internal/checkout"
	"github.com/oaklinehq/checkout-backend/internal/pricing"
	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

type cartItemRequest struct {
	SkuCode  string `json:"sku_code" validate:"required"`
	Qty      int    `json:"qty" validate:"required,gt=0"`
	Selected *bool  `json:"selected,omitempty"`
}

type quoteRequest struct {
	Items     []cartItemRequest `json:"items" validate:"required,min=1,dive"`
	Coupons   []string          `json:"coupons,omitempty" validate:"omitempty,dive,required"`
	OrderType string            `json:"order_type,omitempty" validate:"omitempty,oneof=cash redeem"`
}

type quoteResponse struct {
	OriginalPrice money.Amount             `json:"original_price"`
	FinalPrice    money.Amount             `json:"final_price"`
	Discount      money.Amount             `json:"discount"`
	Details       map[string]any           `json:"details,omitempty"`
	Products      []pricing.ProductSummary `json:"products"`
}

// PricingQuote prices a cart without reserving coupons or writing anything.
func PricingQuote(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		calc := calculationContextFrom(r, payload)
		result, err := svc.Quote(r.Context(), calc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newQuoteResponse(result))
	}
}

func calculationContextFrom(r *http.Request, payload quoteRequest) pricing.Context {
	items := make([]pricing.CheckoutItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		selected := true
		if item.Selected != nil {
			selected = *item.Selected
		}
		items = append(items, pricing.CheckoutItem{
			SkuCode:  item.SkuCode,
			Qty:      item.Qty,
			Selected: selected,
		})
	}

	calc := pricing.NewContext(middleware.UserIDFromContext(r.Context()), items)
	if len(payload.Coupons) > 0 {
		calc = calc.WithCoupons(payload.Coupons...)
	}
	if payload.OrderType != "" {
		calc = calc.WithMetadata(pricing.MetadataOrderType, payload.OrderType)
	}
	return calc
}

func newQuoteResponse(result pricing.Result) quoteResponse {
	return quoteResponse{
		OriginalPrice: result.OriginalPrice,
		FinalPrice:    result.FinalPrice,
		Discount:      result.Discount,
		Details:       result.Details,
		Products:      result.Products,
	}
}
