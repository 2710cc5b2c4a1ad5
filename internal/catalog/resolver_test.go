package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/storefront/internal/models"
)

func baseProduct() *models.Product {
	return &models.Product{
		ID:            1,
		Name:          "Organic Apples",
		Category:      "apples",
		Packaging:     models.PackagingBox,
		Price:         decimal.NewFromInt(150),
		StockQuantity: 100,
		Status:        models.ProductStatusActive,
	}
}

func mangoProduct() *models.Product {
	return &models.Product{
		ID:            2,
		Name:          "Alphonso Mangoes",
		Category:      "mangoes",
		Packaging:     models.PackagingLoose,
		Price:         decimal.NewFromInt(1200),
		StockQuantity: 50,
		Status:        models.ProductStatusSeasonal,
		PriceOptions: []models.PriceOption{
			{Unit: models.UnitDozen, Size: "Small", Price: decimal.NewFromInt(850)},
			{Unit: models.UnitDozen, Size: "Medium", Price: decimal.NewFromInt(1200)},
			{Unit: models.UnitDozen, Size: "Big", Price: decimal.NewFromInt(1550)},
		},
	}
}

func TestResolveBasePrice(t *testing.T) {
	variant, err := Resolve(baseProduct(), Selector{})
	require.NoError(t, err)

	assert.True(t, variant.UnitPrice.Equal(decimal.NewFromInt(150)))
	assert.Empty(t, variant.Size)
	assert.Equal(t, models.UnitBox, variant.Unit)
	assert.False(t, variant.CustomPrice)
}

func TestResolveDefaultUnitFollowsPackaging(t *testing.T) {
	tests := []struct {
		packaging models.Packaging
		want      models.Unit
	}{
		{models.PackagingBox, models.UnitBox},
		{models.PackagingPeti, models.UnitPeti},
		{models.PackagingLoose, models.UnitDozen},
	}

	for _, tt := range tests {
		p := baseProduct()
		p.Packaging = tt.packaging

		variant, err := Resolve(p, Selector{})
		require.NoError(t, err)
		assert.Equal(t, tt.want, variant.Unit)
	}
}

func TestResolvePriceOption(t *testing.T) {
	p := mangoProduct()

	for _, opt := range p.PriceOptions {
		variant, err := Resolve(p, Selector{Unit: opt.Unit, Size: opt.Size})
		require.NoError(t, err)

		assert.True(t, variant.UnitPrice.Equal(opt.Price), "size %s", opt.Size)
		assert.Equal(t, opt.Size, variant.Size)
		assert.Equal(t, opt.Unit, variant.Unit)
	}
}

func TestResolveUnknownVariant(t *testing.T) {
	_, err := Resolve(mangoProduct(), Selector{Unit: models.UnitDozen, Size: "Jumbo"})
	assert.ErrorIs(t, err, ErrInvalidVariant)

	// Size alone is not enough; the unit must match too.
	_, err = Resolve(mangoProduct(), Selector{Unit: models.UnitBox, Size: "Medium"})
	assert.ErrorIs(t, err, ErrInvalidVariant)
}

func TestResolveCustomPrice(t *testing.T) {
	override := decimal.NewFromInt(999)

	variant, err := Resolve(baseProduct(), Selector{CustomPrice: &override})
	require.NoError(t, err)

	assert.True(t, variant.UnitPrice.Equal(override))
	assert.True(t, variant.CustomPrice)
	assert.Equal(t, models.UnitBox, variant.Unit)
}

func TestResolveCustomPriceKeepsLabels(t *testing.T) {
	override := decimal.NewFromInt(700)

	variant, err := Resolve(mangoProduct(), Selector{
		Unit:        models.UnitPeti,
		Size:        "Small Peti (6.5-7dz)",
		CustomPrice: &override,
	})
	require.NoError(t, err)

	assert.True(t, variant.UnitPrice.Equal(override))
	assert.Equal(t, "Small Peti (6.5-7dz)", variant.Size)
	assert.Equal(t, models.UnitPeti, variant.Unit)
	assert.True(t, variant.CustomPrice)
}

func TestResolveNegativeCustomPrice(t *testing.T) {
	override := decimal.NewFromInt(-1)

	_, err := Resolve(baseProduct(), Selector{CustomPrice: &override})
	assert.ErrorIs(t, err, ErrInvalidVariant)
}

func TestSeasonalOptionsLoose(t *testing.T) {
	p := mangoProduct()
	p.PriceOptions = nil

	opts := SeasonalOptions(p)
	require.Len(t, opts, 3)

	assert.Equal(t, "Small", opts[0].Size)
	assert.True(t, opts[0].Price.Equal(decimal.NewFromInt(850)))
	assert.Equal(t, "Medium", opts[1].Size)
	assert.True(t, opts[1].Price.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, "Big", opts[2].Size)
	assert.True(t, opts[2].Price.Equal(decimal.NewFromInt(1550)))
	for _, opt := range opts {
		assert.Equal(t, models.UnitDozen, opt.Unit)
	}
}

func TestSeasonalOptionsPacked(t *testing.T) {
	p := mangoProduct()
	p.PriceOptions = nil
	p.Packaging = models.PackagingPeti
	p.Price = decimal.NewFromInt(5500)

	opts := SeasonalOptions(p)
	require.Len(t, opts, 1)
	assert.Equal(t, models.UnitPeti, opts[0].Unit)
	assert.True(t, opts[0].Price.Equal(decimal.NewFromInt(5500)))
}

func TestSeasonalOptionsLeavesConfiguredAlone(t *testing.T) {
	p := mangoProduct()
	assert.Equal(t, p.PriceOptions, SeasonalOptions(p))

	other := baseProduct()
	assert.Empty(t, SeasonalOptions(other))
}
