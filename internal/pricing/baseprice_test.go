package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
)

func TestBasePriceSumsSelectedLines(t *testing.T) {
	calc, err := NewBasePriceCalculator(standardCatalog(), testLogger())
	require.NoError(t, err)

	result, err := calc.Calculate(context.Background(), standardCart(uuid.New()))
	require.NoError(t, err)

	assert.Equal(t, "200.00", result.OriginalPrice.String())
	assert.Equal(t, "200.00", result.FinalPrice.String())
	assert.True(t, result.Discount.IsZero())

	lines, ok := result.Details[TypeBasePrice].([]BasePriceLine)
	require.True(t, ok)
	require.Len(t, lines, 2)
	assert.Equal(t, "100.00", lines[0].Subtotal.String())
	assert.Equal(t, "100.00", lines[1].Subtotal.String())
	require.Len(t, result.Products, 2)
	assert.Equal(t, "Alpha Widget", result.Products[0].Name)
}

func TestBasePriceIgnoresUnselectedLines(t *testing.T) {
	calc, err := NewBasePriceCalculator(standardCatalog(), testLogger())
	require.NoError(t, err)

	ctx := NewContext(uuid.New(), []CheckoutItem{
		{SkuCode: "SKU-A", Qty: 2, Selected: true},
		{SkuCode: "SKU-B", Qty: 1, Selected: false},
	})

	result, err := calc.Calculate(context.Background(), ctx)
	require.NoError(t, err)
	assert.Equal(t, "100.00", result.OriginalPrice.String())
	assert.Len(t, result.Products, 1)
}

func TestBasePriceUnknownSkuAborts(t *testing.T) {
	calc, err := NewBasePriceCalculator(standardCatalog(), testLogger())
	require.NoError(t, err)

	ctx := NewContext(uuid.New(), []CheckoutItem{
		{SkuCode: "SKU-MISSING", Qty: 1, Selected: true},
	})

	_, err = calc.Calculate(context.Background(), ctx)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestBasePriceRejectsNonPositiveQuantity(t *testing.T) {
	calc, err := NewBasePriceCalculator(standardCatalog(), testLogger())
	require.NoError(t, err)

	ctx := NewContext(uuid.New(), []CheckoutItem{
		{SkuCode: "SKU-A", Qty: 0, Selected: true},
	})

	_, err = calc.Calculate(context.Background(), ctx)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestBasePriceSupportsRequiresSelectedItems(t *testing.T) {
	calc, err := NewBasePriceCalculator(standardCatalog(), testLogger())
	require.NoError(t, err)

	empty := NewContext(uuid.New(), nil)
	assert.False(t, calc.Supports(context.Background(), empty))
	assert.True(t, calc.Supports(context.Background(), standardCart(uuid.New())))
}
