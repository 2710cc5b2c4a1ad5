// Package pricing turns a line item subtotal into a final order total,
// applying at most one order-level discount. All arithmetic stays in
// decimal; only the presentation layer rounds.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidDiscount = errors.New("invalid discount")

const (
	DiscountNone       = "none"
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// DiscountSpec is an order-level discount. Percentage values are 0-100;
// fixed values are a non-negative currency amount.
type DiscountSpec struct {
	Type  string          `json:"discount_type"`
	Value decimal.Decimal `json:"discount_value"`
}

var hundred = decimal.NewFromInt(100)

// Validate checks the spec's value range without applying it.
func (s *DiscountSpec) Validate() error {
	switch s.Type {
	case "", DiscountNone:
		return nil
	case DiscountPercentage:
		if s.Value.IsNegative() || s.Value.GreaterThan(hundred) {
			return ErrInvalidDiscount
		}
	case DiscountFixed:
		if s.Value.IsNegative() {
			return ErrInvalidDiscount
		}
	default:
		return ErrInvalidDiscount
	}
	return nil
}

// ComputeTotal applies spec to subtotal. A fixed discount never takes
// the total below zero. When any line item in the order already carries
// a custom price the discount is ignored entirely; the two mechanisms
// do not compose within one order.
func ComputeTotal(subtotal decimal.Decimal, spec *DiscountSpec, hasCustomPriced bool) (decimal.Decimal, error) {
	if spec == nil {
		return subtotal, nil
	}
	if err := spec.Validate(); err != nil {
		return decimal.Zero, err
	}
	if hasCustomPriced {
		return subtotal, nil
	}

	switch spec.Type {
	case "", DiscountNone:
		return subtotal, nil
	case DiscountPercentage:
		return subtotal.Mul(hundred.Sub(spec.Value)).Div(hundred), nil
	case DiscountFixed:
		total := subtotal.Sub(spec.Value)
		if total.IsNegative() {
			return decimal.Zero, nil
		}
		return total, nil
	}
	return decimal.Zero, ErrInvalidDiscount
}
