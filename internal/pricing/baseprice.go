package pricing

import (
	"context"
	"fmt"

	"github.com/oaklinehq/checkout-backend/internal/catalog"
	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
)

// BasePriceCalculator establishes the undiscounted order total from current
// catalog prices. It always runs first so later stages discount against a
// settled baseline.
type BasePriceCalculator struct {
	skus catalog.Loader
	logg *logger.Logger
}

// NewBasePriceCalculator builds the base price stage.
func NewBasePriceCalculator(skus catalog.Loader, logg *logger.Logger) (*BasePriceCalculator, error) {
	if skus == nil {
		return nil, fmt.Errorf("pricing: sku loader is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("pricing: logger is required")
	}
	return &BasePriceCalculator{skus: skus, logg: logg}, nil
}

func (b *BasePriceCalculator) Type() string { return TypeBasePrice }

func (b *BasePriceCalculator) Priority() int { return PriorityBasePrice }

// Supports requires at least one selected cart line. Redeem-only orders may
// carry an empty cart.
func (b *BasePriceCalculator) Supports(_ context.Context, calc Context) bool {
	return len(calc.SelectedItems()) > 0
}

// Calculate sums market price times quantity over the selected lines. A SKU
// that cannot be resolved aborts the run: an unpriceable cart must never
// produce a quote.
func (b *BasePriceCalculator) Calculate(ctx context.Context, calc Context) (Result, error) {
	result := EmptyResult()
	lines := make([]BasePriceLine, 0)

	for _, item := range calc.SelectedItems() {
		if item.Qty <= 0 {
			return EmptyResult(), pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive").
				WithDetails(map[string]any{"sku_code": item.SkuCode, "qty": item.Qty})
		}

		sku := item.Sku
		if sku == nil {
			var err error
			sku, err = b.skus.LoadByCode(ctx, item.SkuCode)
			if err != nil {
				return EmptyResult(), err
			}
			calc.attachSku(item.SkuCode, sku)
		}

		subtotal := sku.MarketPrice.MulInt(int64(item.Qty))
		result.OriginalPrice = result.OriginalPrice.Add(subtotal)
		result.FinalPrice = result.FinalPrice.Add(subtotal)
		lines = append(lines, BasePriceLine{
			SkuCode:   sku.Code,
			Qty:       item.Qty,
			UnitPrice: sku.MarketPrice,
			Subtotal:  subtotal,
		})
		result.Products = append(result.Products, ProductSummary{
			SkuCode:   sku.Code,
			ProductID: sku.ProductID,
			Name:      sku.Name,
			Qty:       item.Qty,
			UnitPrice: sku.MarketPrice,
			PaidPrice: subtotal,
			Thumbnail: sku.Thumbnail,
			Attribute: sku.Attribute,
		})
	}

	result.Details = map[string]any{TypeBasePrice: lines}
	return result, nil
}
