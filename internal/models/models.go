package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Unit is the selling unit a price applies to. Loose fruit sells per
// dozen; pre-packed produce sells per box or peti.
type Unit string

const (
	UnitBox   Unit = "box"
	UnitPeti  Unit = "peti"
	UnitDozen Unit = "dozen"
)

// PriceOption is a named size variant of a product with its own unit
// price, e.g. ("dozen", "Medium") or ("peti", "Big Peti (5-5.25dz)").
// (Unit, Size) pairs are unique within one product.
type PriceOption struct {
	Unit  Unit            `json:"unit"`
	Size  string          `json:"size"`
	Price decimal.Decimal `json:"price"`
}

// Packaging describes how a product is packed for sale. It replaces the
// old name-substring sniffing ("...Small Peti...") with a structured
// field set at catalog authoring time.
type Packaging string

const (
	PackagingBox   Packaging = "box"
	PackagingPeti  Packaging = "peti"
	PackagingLoose Packaging = "loose"
)

const (
	ProductStatusActive     = "active"
	ProductStatusInactive   = "inactive"
	ProductStatusOutOfStock = "out_of_stock"
	ProductStatusSeasonal   = "seasonal"
)

type Product struct {
	ID            int64           `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category"`
	Packaging     Packaging       `json:"packaging"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Status        string          `json:"status"`
	ImageURL      string          `json:"image_url,omitempty"`
	PriceOptions  []PriceOption   `json:"price_options,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// HasPriceOptions reports whether the product carries configured size
// variants. Products without options sell at the base price.
func (p *Product) HasPriceOptions() bool {
	return len(p.PriceOptions) > 0
}

// LineItem is one priced row in a cart or an order under construction.
// The unit price is frozen when the item is added and does not follow
// later catalog price changes.
type LineItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Size        string          `json:"size,omitempty"`
	Unit        Unit            `json:"unit"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CustomPrice bool            `json:"custom_price,omitempty"`
}

// Subtotal returns unit price times quantity for this line.
func (li *LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart holds a user's line items in insertion order. No two items share
// the same (product, unit, size) identity.
type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TotalPrice is the undiscounted sum over all items. Order-level
// discounts apply only at order creation, never in the cart.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	return total
}

type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	OrderNumber     string          `json:"order_number"`
	DeliveryAddress string          `json:"delivery_address"`
	ReceiverPhone   string          `json:"receiver_phone"`
	OrderStatus     string          `json:"order_status"`
	PaymentStatus   string          `json:"payment_status"`
	DiscountType    string          `json:"discount_type,omitempty"`
	DiscountValue   decimal.Decimal `json:"discount_value"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
	Items           []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"order_id"`
	ProductID       int64           `json:"product_id"`
	Size            string          `json:"size,omitempty"`
	Unit            Unit            `json:"unit"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	CustomPrice     bool            `json:"custom_price,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	CreatedAt       time.Time       `json:"created_at"`
}

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// OrderStatusTerminal reports whether status permits no further
// transitions. Cancellation is allowed from any non-terminal state.
func OrderStatusTerminal(status string) bool {
	return status == OrderStatusDelivered || status == OrderStatusCancelled
}
