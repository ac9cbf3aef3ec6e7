package promotions

import (
	"context"
	"fmt"

	"github.com/oaklinehq/checkout-backend/internal/catalog"
	"github.com/oaklinehq/checkout-backend/internal/pricing"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

// ThresholdMatcher grants a flat discount once the cart total reaches a
// minimum spend, e.g. "20 off orders over 200".
type ThresholdMatcher struct {
	id        string
	name      string
	threshold money.Amount
	discount  money.Amount
	priority  int
	skus      catalog.Loader
}

// NewThresholdMatcher builds a spend-threshold promotion.
func NewThresholdMatcher(id, name string, threshold, discount money.Amount, priority int, skus catalog.Loader) (*ThresholdMatcher, error) {
	if id == "" {
		return nil, fmt.Errorf("promotions: id is required")
	}
	if skus == nil {
		return nil, fmt.Errorf("promotions: sku loader is required")
	}
	return &ThresholdMatcher{
		id:        id,
		name:      name,
		threshold: threshold,
		discount:  discount,
		priority:  priority,
		skus:      skus,
	}, nil
}

func (m *ThresholdMatcher) Priority() int { return m.priority }

func (m *ThresholdMatcher) Supports(_ context.Context, calc pricing.Context) bool {
	return len(calc.SelectedItems()) > 0
}

func (m *ThresholdMatcher) Match(ctx context.Context, calc pricing.Context) (pricing.PromotionMatch, error) {
	total, err := cartTotal(ctx, m.skus, calc)
	if err != nil {
		return pricing.PromotionMatch{}, err
	}
	if total.Cmp(m.threshold) < 0 {
		return pricing.PromotionMatch{}, nil
	}
	return pricing.PromotionMatch{
		Discount: m.discount,
		Promotions: []pricing.PromotionLine{
			{ID: m.id, Name: m.name, Discount: m.discount},
		},
	}, nil
}

// SkuPercentMatcher discounts specific SKUs by a basis-point percentage,
// e.g. "15% off the spring collection".
type SkuPercentMatcher struct {
	id         string
	name       string
	skuCodes   map[string]struct{}
	percentBps int
	priority   int
	skus       catalog.Loader
}

// NewSkuPercentMatcher builds a SKU-scoped percentage promotion.
func NewSkuPercentMatcher(id, name string, skuCodes []string, percentBps, priority int, skus catalog.Loader) (*SkuPercentMatcher, error) {
	if id == "" {
		return nil, fmt.Errorf("promotions: id is required")
	}
	if percentBps <= 0 || percentBps > 10_000 {
		return nil, fmt.Errorf("promotions: percent must be between 1 and 10000 bps")
	}
	if len(skuCodes) == 0 {
		return nil, fmt.Errorf("promotions: at least one sku code is required")
	}
	if skus == nil {
		return nil, fmt.Errorf("promotions: sku loader is required")
	}
	scoped := make(map[string]struct{}, len(skuCodes))
	for _, code := range skuCodes {
		scoped[code] = struct{}{}
	}
	return &SkuPercentMatcher{
		id:         id,
		name:       name,
		skuCodes:   scoped,
		percentBps: percentBps,
		priority:   priority,
		skus:       skus,
	}, nil
}

func (m *SkuPercentMatcher) Priority() int { return m.priority }

func (m *SkuPercentMatcher) Supports(_ context.Context, calc pricing.Context) bool {
	for _, item := range calc.SelectedItems() {
		if _, ok := m.skuCodes[item.SkuCode]; ok {
			return true
		}
	}
	return false
}

func (m *SkuPercentMatcher) Match(ctx context.Context, calc pricing.Context) (pricing.PromotionMatch, error) {
	eligible := money.Zero()
	for _, item := range calc.SelectedItems() {
		if _, ok := m.skuCodes[item.SkuCode]; !ok {
			continue
		}
		sku, err := m.skus.LoadByCode(ctx, item.SkuCode)
		if err != nil {
			return pricing.PromotionMatch{}, err
		}
		eligible = eligible.Add(sku.MarketPrice.MulInt(int64(item.Qty)))
	}
	if !eligible.IsPositive() {
		return pricing.PromotionMatch{}, nil
	}

	discount := money.FromCents(eligible.Cents() * int64(m.percentBps) / 10_000)
	if !discount.IsPositive() {
		return pricing.PromotionMatch{}, nil
	}
	return pricing.PromotionMatch{
		Discount: discount,
		Promotions: []pricing.PromotionLine{
			{ID: m.id, Name: m.name, Discount: discount},
		},
	}, nil
}

func cartTotal(ctx context.Context, skus catalog.Loader, calc pricing.Context) (money.Amount, error) {
	total := money.Zero()
	for _, item := range calc.SelectedItems() {
		sku, err := skus.LoadByCode(ctx, item.SkuCode)
		if err != nil {
			return money.Zero(), err
		}
		total = total.Add(sku.MarketPrice.MulInt(int64(item.Qty)))
	}
	return total, nil
}
