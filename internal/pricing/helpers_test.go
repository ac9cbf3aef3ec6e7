package pricing

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oaklinehq/checkout-backend/internal/coupons"
	"github.com/oaklinehq/checkout-backend/pkg/db/models"
	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// fakeLoader serves SKUs from a map.
type fakeLoader struct {
	skus map[string]*models.Sku
}

func newFakeLoader(skus ...*models.Sku) *fakeLoader {
	byCode := make(map[string]*models.Sku, len(skus))
	for _, sku := range skus {
		byCode[sku.Code] = sku
	}
	return &fakeLoader{skus: byCode}
}

func (f *fakeLoader) LoadByCode(_ context.Context, code string) (*models.Sku, error) {
	if sku, ok := f.skus[code]; ok {
		return sku, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku not found").
		WithDetails(map[string]string{"sku_code": code})
}

func (f *fakeLoader) LoadByCodes(_ context.Context, codes []string) (map[string]*models.Sku, error) {
	resolved := make(map[string]*models.Sku, len(codes))
	for _, code := range codes {
		if sku, ok := f.skus[code]; ok {
			resolved[code] = sku
		}
	}
	return resolved, nil
}

// countingLoader tallies LoadByCode calls per SKU on top of a fakeLoader.
type countingLoader struct {
	*fakeLoader
	calls map[string]int
}

func newCountingLoader(inner *fakeLoader) *countingLoader {
	return &countingLoader{fakeLoader: inner, calls: map[string]int{}}
}

func (c *countingLoader) LoadByCode(ctx context.Context, code string) (*models.Sku, error) {
	c.calls[code]++
	return c.fakeLoader.LoadByCode(ctx, code)
}

// fakeCouponSource resolves definitions from a map.
type fakeCouponSource struct {
	definitions map[string]*coupons.Definition
}

func (f *fakeCouponSource) FindByCode(_ context.Context, code string, _ uuid.UUID) (*coupons.Definition, error) {
	if def, ok := f.definitions[code]; ok {
		return def, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon code not resolved")
}

func testSku(code, name, price string) *models.Sku {
	return &models.Sku{
		ID:          uuid.New(),
		Code:        code,
		ProductID:   uuid.New(),
		Name:        name,
		MarketPrice: money.MustFromString(price),
		Active:      true,
	}
}

// standardCatalog is the two-SKU catalog most tests price against:
// SKU-A at 50.00 and SKU-B at 100.00.
func standardCatalog() *fakeLoader {
	return newFakeLoader(
		testSku("SKU-A", "Alpha Widget", "50.00"),
		testSku("SKU-B", "Beta Widget", "100.00"),
	)
}

// standardCart selects 2x SKU-A and 1x SKU-B for a 200.00 baseline.
func standardCart(userID uuid.UUID) Context {
	return NewContext(userID, []CheckoutItem{
		{SkuCode: "SKU-A", Qty: 2, Selected: true},
		{SkuCode: "SKU-B", Qty: 1, Selected: true},
	}).WithNow(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func newTestChain(t *testing.T, calculators ...Calculator) *Chain {
	t.Helper()
	chain, err := NewChain(testLogger(), nil, calculators...)
	require.NoError(t, err)
	return chain
}
