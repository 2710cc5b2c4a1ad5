package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/freshmart/storefront/internal/models"
)

// Seasonal mango products that ship without configured price options
// still need to present size tiers. Historically the UI rebuilt these
// per render from name-substring matching; the tiers are now material-
// ized here, once, from the structured packaging field.

const seasonalCategory = "mangoes"

var seasonalDozenTiers = []models.PriceOption{
	{Unit: models.UnitDozen, Size: "Small", Price: decimal.NewFromInt(850)},
	{Unit: models.UnitDozen, Size: "Medium", Price: decimal.NewFromInt(1200)},
	{Unit: models.UnitDozen, Size: "Big", Price: decimal.NewFromInt(1550)},
}

// SeasonalOptions returns the price options a seasonal product should
// expose when none are configured. Pre-packed products (box, peti) get
// a single option at the base price; loose products get the three
// fixed per-dozen tiers. Products outside the seasonal category, or
// with options already configured, are returned untouched.
func SeasonalOptions(product *models.Product) []models.PriceOption {
	if product.HasPriceOptions() || product.Category != seasonalCategory {
		return product.PriceOptions
	}

	switch product.Packaging {
	case models.PackagingBox:
		return []models.PriceOption{
			{Unit: models.UnitBox, Size: "2dz Box", Price: product.Price},
		}
	case models.PackagingPeti:
		return []models.PriceOption{
			{Unit: models.UnitPeti, Size: "Peti", Price: product.Price},
		}
	default:
		opts := make([]models.PriceOption, len(seasonalDozenTiers))
		copy(opts, seasonalDozenTiers)
		return opts
	}
}

// WithSeasonalOptions returns a copy of product with SeasonalOptions
// applied, for catalog read paths that serve the storefront.
func WithSeasonalOptions(product *models.Product) *models.Product {
	out := *product
	out.PriceOptions = SeasonalOptions(product)
	return &out
}
