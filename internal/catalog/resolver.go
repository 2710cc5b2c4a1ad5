// Package catalog resolves the unit price and variant labels for a
// product given the caller's variant selection. Resolution is a pure
// function over the data it is handed; looking the product up is the
// caller's job.
package catalog

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/freshmart/storefront/internal/models"
)

var ErrInvalidVariant = errors.New("invalid product variant")

// Selector is the caller's variant choice when adding a product to a
// cart or order. Zero value means "sell at the base price". A non-empty
// (Unit, Size) pair references one of the product's price options. A
// non-nil CustomPrice is the admin override path and wins over both.
type Selector struct {
	Unit        models.Unit
	Size        string
	CustomPrice *decimal.Decimal
}

// IsZero reports whether the selector requests the base price.
func (s Selector) IsZero() bool {
	return s.Unit == "" && s.Size == "" && s.CustomPrice == nil
}

// Variant is the resolved outcome: the frozen unit price plus the
// canonical labels to record on the line item.
type Variant struct {
	UnitPrice   decimal.Decimal
	Size        string
	Unit        models.Unit
	CustomPrice bool
}

// Resolve determines the unit price for product under selector.
//
// With a custom override the override price is used as-is and the
// variant is flagged custom-priced, so the discount calculator can
// refuse to stack an order-level discount on top of it. With a
// (unit, size) selector the matching price option must exist. An empty
// selector falls back to the base price against the product's default
// unit.
func Resolve(product *models.Product, selector Selector) (Variant, error) {
	if selector.CustomPrice != nil {
		if selector.CustomPrice.IsNegative() {
			return Variant{}, ErrInvalidVariant
		}
		unit := selector.Unit
		if unit == "" {
			unit = models.UnitBox
		}
		return Variant{
			UnitPrice:   *selector.CustomPrice,
			Size:        selector.Size,
			Unit:        unit,
			CustomPrice: true,
		}, nil
	}

	if selector.Unit == "" && selector.Size == "" {
		return Variant{
			UnitPrice: product.Price,
			Unit:      defaultUnit(product),
		}, nil
	}

	for i := range product.PriceOptions {
		opt := &product.PriceOptions[i]
		if opt.Unit == selector.Unit && opt.Size == selector.Size {
			return Variant{
				UnitPrice: opt.Price,
				Size:      opt.Size,
				Unit:      opt.Unit,
			}, nil
		}
	}

	return Variant{}, ErrInvalidVariant
}

func defaultUnit(product *models.Product) models.Unit {
	switch product.Packaging {
	case models.PackagingPeti:
		return models.UnitPeti
	case models.PackagingLoose:
		return models.UnitDozen
	default:
		return models.UnitBox
	}
}
