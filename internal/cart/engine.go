// Package cart implements the line item engine shared by the customer
// cart and the admin order builder. It is synchronous, does no I/O, and
// assumes exclusive ownership of the cart it mutates; callers serialize
// access per user at the persistence boundary.
package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/freshmart/storefront/internal/catalog"
	"github.com/freshmart/storefront/internal/models"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrItemNotFound      = errors.New("cart item not found")
)

// ItemKey identifies a line item for merge, update and removal. Two
// add calls with the same key merge into one line; base-priced items
// have an empty size.
type ItemKey struct {
	ProductID int64
	Unit      models.Unit
	Size      string
}

// Key returns the identity of an existing line item.
func Key(item *models.LineItem) ItemKey {
	return ItemKey{ProductID: item.ProductID, Unit: item.Unit, Size: item.Size}
}

// Engine wraps a cart with the add/update/remove operations. The
// zero-value cart is usable.
type Engine struct {
	cart *models.Cart
}

func New(c *models.Cart) *Engine {
	return &Engine{cart: c}
}

// AddItem resolves the variant and merges the quantity into an existing
// line with the same identity, or appends a new line priced at the
// resolved unit price. The stock ceiling applies to the line's total
// quantity after the merge, for both the storefront and the admin
// builder.
func (e *Engine) AddItem(product *models.Product, selector catalog.Selector, quantity int) (*models.LineItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	variant, err := catalog.Resolve(product, selector)
	if err != nil {
		return nil, err
	}

	key := ItemKey{ProductID: product.ID, Unit: variant.Unit, Size: variant.Size}
	if existing := e.find(key); existing != nil {
		if existing.Quantity+quantity > product.StockQuantity {
			return nil, stockError(product)
		}
		existing.Quantity += quantity
		return existing, nil
	}

	if quantity > product.StockQuantity {
		return nil, stockError(product)
	}

	e.cart.Items = append(e.cart.Items, models.LineItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Size:        variant.Size,
		Unit:        variant.Unit,
		Quantity:    quantity,
		UnitPrice:   variant.UnitPrice,
		CustomPrice: variant.CustomPrice,
	})
	return &e.cart.Items[len(e.cart.Items)-1], nil
}

// UpdateItemQuantity replaces the quantity of the identified line,
// keeping its frozen price and variant labels. Quantities below 1 are
// rejected rather than treated as removal; callers that want the line
// gone call RemoveItem.
func (e *Engine) UpdateItemQuantity(key ItemKey, quantity int, stockQuantity int) (*models.LineItem, error) {
	item := e.find(key)
	if item == nil {
		return nil, ErrItemNotFound
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if quantity > stockQuantity {
		return nil, fmt.Errorf("cannot order more than %d units: %w", stockQuantity, ErrInsufficientStock)
	}
	item.Quantity = quantity
	return item, nil
}

// RemoveItem deletes the identified line. Removing an absent key is a
// no-op.
func (e *Engine) RemoveItem(key ItemKey) {
	for i := range e.cart.Items {
		if Key(&e.cart.Items[i]) == key {
			e.cart.Items = append(e.cart.Items[:i], e.cart.Items[i+1:]...)
			return
		}
	}
}

// Items returns the line items in insertion order.
func (e *Engine) Items() []models.LineItem {
	return e.cart.Items
}

// Subtotal sums unit price times quantity over all lines.
func (e *Engine) Subtotal() decimal.Decimal {
	return e.cart.TotalPrice()
}

// HasCustomPriced reports whether any line carries an admin price
// override. Such carts never take an order-level discount.
func (e *Engine) HasCustomPriced() bool {
	for i := range e.cart.Items {
		if e.cart.Items[i].CustomPrice {
			return true
		}
	}
	return false
}

func stockError(product *models.Product) error {
	return fmt.Errorf("cannot add more than %d units of %s: %w",
		product.StockQuantity, product.Name, ErrInsufficientStock)
}

func (e *Engine) find(key ItemKey) *models.LineItem {
	for i := range e.cart.Items {
		if Key(&e.cart.Items[i]) == key {
			return &e.cart.Items[i]
		}
	}
	return nil
}
