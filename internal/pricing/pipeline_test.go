package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaklinehq/checkout-backend/internal/coupons"
	"github.com/oaklinehq/checkout-backend/pkg/enums"
	"github.com/oaklinehq/checkout-backend/pkg/money"
)

func fullChain(t *testing.T, definitions map[string]*coupons.Definition) *Chain {
	t.Helper()
	catalog := standardCatalog()

	base, err := NewBasePriceCalculator(catalog, testLogger())
	require.NoError(t, err)
	coupon, err := NewCouponCalculator(
		&fakeCouponSource{definitions: definitions},
		coupons.NewEvaluator(),
		catalog,
		testLogger(),
	)
	require.NoError(t, err)

	return newTestChain(t, coupon, base)
}

func TestQuoteWithoutCoupons(t *testing.T) {
	chain := fullChain(t, nil)

	result, err := chain.Calculate(context.Background(), standardCart(uuid.New()))
	require.NoError(t, err)

	assert.Equal(t, "200.00", result.OriginalPrice.String())
	assert.Equal(t, "200.00", result.FinalPrice.String())
	assert.True(t, result.Discount.IsZero())
	_, hasCouponDetail := result.Details[TypeCoupon]
	assert.False(t, hasCouponDetail)
}

func TestQuoteWithFixedCoupon(t *testing.T) {
	chain := fullChain(t, map[string]*coupons.Definition{
		"SAVE30": {
			Code:  "SAVE30",
			Kind:  enums.CouponKindFixed,
			Value: money.MustFromString("30.00"),
		},
	})

	result, err := chain.Calculate(context.Background(), standardCart(uuid.New()).WithCoupons("SAVE30"))
	require.NoError(t, err)

	assert.Equal(t, "200.00", result.OriginalPrice.String())
	assert.Equal(t, "170.00", result.FinalPrice.String())
	assert.Equal(t, "30.00", result.Discount.String())

	detail, ok := CouponDetailFrom(result)
	require.True(t, ok)
	require.Len(t, detail.Allocations, 2)
	assert.Equal(t, "SKU-A", detail.Allocations[0].SkuCode)
	assert.Equal(t, "15.00", detail.Allocations[0].Amount.String())
	assert.Equal(t, "SKU-B", detail.Allocations[1].SkuCode)
	assert.Equal(t, "15.00", detail.Allocations[1].Amount.String())
}

func TestQuoteStackedCoupons(t *testing.T) {
	chain := fullChain(t, map[string]*coupons.Definition{
		"SAVE30": {
			Code:  "SAVE30",
			Kind:  enums.CouponKindFixed,
			Value: money.MustFromString("30.00"),
		},
		"TENOFF": {
			Code:       "TENOFF",
			Kind:       enums.CouponKindPercent,
			PercentBps: intPtr(1000),
		},
	})

	result, err := chain.Calculate(context.Background(), standardCart(uuid.New()).WithCoupons("SAVE30", "TENOFF"))
	require.NoError(t, err)

	// 200.00 - 30.00 fixed - 20.00 (10% of the eligible 200.00)
	assert.Equal(t, "150.00", result.FinalPrice.String())
	assert.Equal(t, "50.00", result.Discount.String())
}

func TestQuoteWithGiftCouponKeepsTotal(t *testing.T) {
	chain := fullChain(t, map[string]*coupons.Definition{
		"FREEBIE": {
			Code: "FREEBIE",
			Kind: enums.CouponKindGift,
			GiftItems: []coupons.Item{
				{SkuCode: "SKU-GIFT", Qty: 1, Name: "Sticker Pack"},
			},
		},
	})

	result, err := chain.Calculate(context.Background(), standardCart(uuid.New()).WithCoupons("FREEBIE"))
	require.NoError(t, err)

	assert.Equal(t, "200.00", result.FinalPrice.String())
	require.Len(t, result.Products, 3)
	assert.Equal(t, enums.ExtraItemKindGift, result.Products[2].Kind)
}

func TestRedeemOnlyOrderTotalsZero(t *testing.T) {
	chain := fullChain(t, map[string]*coupons.Definition{
		"PTS": {
			Code: "PTS",
			Kind: enums.CouponKindRedeem,
			RedeemItems: []coupons.Item{
				{SkuCode: "SKU-MUG", Qty: 1, Name: "Mug", UnitPrice: money.MustFromString("12.00")},
			},
		},
	})

	cart := NewContext(uuid.New(), nil).
		WithCoupons("PTS").
		WithMetadata(MetadataOrderType, OrderTypeRedeem)

	result, err := chain.Calculate(context.Background(), cart)
	require.NoError(t, err)

	assert.Equal(t, "0.00", result.FinalPrice.String())
	detail, ok := CouponDetailFrom(result)
	require.True(t, ok)
	assert.True(t, detail.ShouldMarkOrderPaid)
	require.Len(t, result.Products, 1)
	assert.Equal(t, enums.ExtraItemKindRedeem, result.Products[0].Kind)
}

func TestQuoteDeterministicAcrossRuns(t *testing.T) {
	chain := fullChain(t, map[string]*coupons.Definition{
		"SAVE30": {
			Code:  "SAVE30",
			Kind:  enums.CouponKindFixed,
			Value: money.MustFromString("30.00"),
		},
	})
	cart := standardCart(uuid.New()).WithCoupons("SAVE30")

	first, err := chain.Calculate(context.Background(), cart)
	require.NoError(t, err)
	second, err := chain.Calculate(context.Background(), cart)
	require.NoError(t, err)

	assert.Equal(t, first.FinalPrice.String(), second.FinalPrice.String())
	assert.Equal(t, first.Discount.String(), second.Discount.String())
	assert.Equal(t, len(first.Products), len(second.Products))
}

func TestQuoteLoadsEachSkuOnce(t *testing.T) {
	loader := newCountingLoader(standardCatalog())

	base, err := NewBasePriceCalculator(loader, testLogger())
	require.NoError(t, err)
	coupon, err := NewCouponCalculator(
		&fakeCouponSource{definitions: map[string]*coupons.Definition{
			"SAVE30": {
				Code:  "SAVE30",
				Kind:  enums.CouponKindFixed,
				Value: money.MustFromString("30.00"),
			},
		}},
		coupons.NewEvaluator(),
		loader,
		testLogger(),
	)
	require.NoError(t, err)
	chain := newTestChain(t, base, coupon)

	_, err = chain.Calculate(context.Background(), standardCart(uuid.New()).WithCoupons("SAVE30"))
	require.NoError(t, err)

	// The base stage resolves each line and caches the row on it; the coupon
	// stage prices against the cached rows instead of re-reading the catalog.
	assert.Equal(t, 1, loader.calls["SKU-A"])
	assert.Equal(t, 1, loader.calls["SKU-B"])
}

func intPtr(v int) *int { return &v }
