package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotalNoDiscount(t *testing.T) {
	subtotal := decimal.NewFromInt(250)

	total, err := ComputeTotal(subtotal, nil, false)
	require.NoError(t, err)
	assert.True(t, total.Equal(subtotal))

	total, err = ComputeTotal(subtotal, &DiscountSpec{Type: DiscountNone}, false)
	require.NoError(t, err)
	assert.True(t, total.Equal(subtotal))

	total, err = ComputeTotal(subtotal, &DiscountSpec{}, false)
	require.NoError(t, err)
	assert.True(t, total.Equal(subtotal))
}

func TestComputeTotalPercentage(t *testing.T) {
	total, err := ComputeTotal(decimal.NewFromInt(250), &DiscountSpec{
		Type:  DiscountPercentage,
		Value: decimal.NewFromInt(10),
	}, false)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(225)), "got %s", total)

	// 100% discount empties the order, 0% keeps it whole.
	total, err = ComputeTotal(decimal.NewFromInt(250), &DiscountSpec{
		Type:  DiscountPercentage,
		Value: decimal.NewFromInt(100),
	}, false)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	total, err = ComputeTotal(decimal.NewFromInt(250), &DiscountSpec{
		Type:  DiscountPercentage,
		Value: decimal.Zero,
	}, false)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(250)))
}

func TestComputeTotalPercentageOutOfRange(t *testing.T) {
	for _, v := range []int64{-1, 101, 1000} {
		_, err := ComputeTotal(decimal.NewFromInt(250), &DiscountSpec{
			Type:  DiscountPercentage,
			Value: decimal.NewFromInt(v),
		}, false)
		assert.ErrorIs(t, err, ErrInvalidDiscount, "value %d", v)
	}
}

func TestComputeTotalFixed(t *testing.T) {
	total, err := ComputeTotal(decimal.NewFromInt(250), &DiscountSpec{
		Type:  DiscountFixed,
		Value: decimal.NewFromInt(40),
	}, false)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(210)))
}

func TestComputeTotalFixedFloorsAtZero(t *testing.T) {
	total, err := ComputeTotal(decimal.NewFromInt(250), &DiscountSpec{
		Type:  DiscountFixed,
		Value: decimal.NewFromInt(300),
	}, false)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestComputeTotalFixedNegative(t *testing.T) {
	_, err := ComputeTotal(decimal.NewFromInt(250), &DiscountSpec{
		Type:  DiscountFixed,
		Value: decimal.NewFromInt(-5),
	}, false)
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestComputeTotalUnknownType(t *testing.T) {
	_, err := ComputeTotal(decimal.NewFromInt(250), &DiscountSpec{
		Type:  "bogo",
		Value: decimal.NewFromInt(1),
	}, false)
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestCustomPricedOrderIgnoresDiscount(t *testing.T) {
	subtotal := decimal.NewFromInt(250)

	total, err := ComputeTotal(subtotal, &DiscountSpec{
		Type:  DiscountPercentage,
		Value: decimal.NewFromInt(50),
	}, true)
	require.NoError(t, err)
	assert.True(t, total.Equal(subtotal))

	total, err = ComputeTotal(subtotal, &DiscountSpec{
		Type:  DiscountFixed,
		Value: decimal.NewFromInt(100),
	}, true)
	require.NoError(t, err)
	assert.True(t, total.Equal(subtotal))
}

func TestComputeTotalKeepsPrecision(t *testing.T) {
	// 10.01 * 3 with a 7.5% discount: no intermediate rounding.
	subtotal := decimal.RequireFromString("10.01").Mul(decimal.NewFromInt(3))

	total, err := ComputeTotal(subtotal, &DiscountSpec{
		Type:  DiscountPercentage,
		Value: decimal.RequireFromString("7.5"),
	}, false)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("27.77775")), "got %s", total)
}

func TestCartScenario(t *testing.T) {
	// Product A at 100 qty 2 plus a Medium dozen at 1200 qty 1, then a
	// 10% order discount.
	subtotal := decimal.NewFromInt(100).Mul(decimal.NewFromInt(2)).
		Add(decimal.NewFromInt(1200))
	require.True(t, subtotal.Equal(decimal.NewFromInt(1400)))

	total, err := ComputeTotal(subtotal, &DiscountSpec{
		Type:  DiscountPercentage,
		Value: decimal.NewFromInt(10),
	}, false)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(1260)))
}
