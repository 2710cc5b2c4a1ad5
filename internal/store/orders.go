package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/freshmart/storefront/internal/cart"
	"github.com/freshmart/storefront/internal/catalog"
	"github.com/freshmart/storefront/internal/database"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/pricing"
)

const orderColumns = `id, user_id, order_number, delivery_address, receiver_phone,
	order_status, payment_status, discount_type, discount_value, total_amount,
	created_at, updated_at, version`

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%d", time.Now().UnixNano())
}

type PlaceOrderRequest struct {
	UserID          int64
	DeliveryAddress string
	ReceiverPhone   string
}

// PlaceOrder turns the user's cart into an order: prices are already
// frozen on the cart lines, stock is decremented under lock, and the
// cart is cleared, all in one retried serializable transaction. The
// storefront path takes no discount.
func PlaceOrder(ctx context.Context, db *sql.DB, req PlaceOrderRequest) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		if err := checkUserExists(ctx, tx, req.UserID); err != nil {
			return err
		}

		c, err := lockCart(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return database.ErrEmptyCart
		}

		for i := range c.Items {
			item := &c.Items[i]
			if _, err := LockProduct(ctx, tx, item.ProductID); err != nil {
				return err
			}
			if err := DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		o, err := insertOrder(ctx, tx, orderDraft{
			UserID:          req.UserID,
			DeliveryAddress: req.DeliveryAddress,
			ReceiverPhone:   req.ReceiverPhone,
			OrderStatus:     models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			DiscountType:    pricing.DiscountNone,
			TotalAmount:     c.TotalPrice(),
			Items:           c.Items,
		})
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE cart_id = $1`, c.ID); err != nil {
			return fmt.Errorf("clear cart items: %w", err)
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

type CustomOrderItem struct {
	ProductID   int64
	Quantity    int
	Size        string
	Unit        models.Unit
	CustomPrice *decimal.Decimal
}

type CustomOrderRequest struct {
	UserID          int64
	DeliveryAddress string
	ReceiverPhone   string
	Items           []CustomOrderItem
	Discount        *pricing.DiscountSpec
}

// CreateCustomOrder is the admin order builder. Items are priced
// through the variant resolver (with optional per-item overrides) and
// merged through the line item engine, so identity and stock rules
// match the storefront cart. The order discount is validated up front
// and ignored when any line carries a custom price.
func CreateCustomOrder(ctx context.Context, db *sql.DB, req CustomOrderRequest) (*models.Order, error) {
	if req.Discount != nil {
		if err := req.Discount.Validate(); err != nil {
			return nil, err
		}
	}
	if len(req.Items) == 0 {
		return nil, database.ErrEmptyCart
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		if err := checkUserExists(ctx, tx, req.UserID); err != nil {
			return err
		}

		draft := &models.Cart{UserID: req.UserID}
		engine := cart.New(draft)

		for _, item := range req.Items {
			product, err := LockProduct(ctx, tx, item.ProductID)
			if err != nil {
				return err
			}

			selector := catalog.Selector{
				Unit:        item.Unit,
				Size:        item.Size,
				CustomPrice: item.CustomPrice,
			}
			if _, err := engine.AddItem(catalog.WithSeasonalOptions(product), selector, item.Quantity); err != nil {
				return err
			}
		}

		total, err := pricing.ComputeTotal(engine.Subtotal(), req.Discount, engine.HasCustomPriced())
		if err != nil {
			return err
		}

		for _, item := range engine.Items() {
			if err := DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		// Record the discount that actually applied.
		discountType := pricing.DiscountNone
		discountValue := decimal.Zero
		if req.Discount != nil && !engine.HasCustomPriced() && req.Discount.Type != "" {
			discountType = req.Discount.Type
			discountValue = req.Discount.Value
		}

		o, err := insertOrder(ctx, tx, orderDraft{
			UserID:          req.UserID,
			DeliveryAddress: req.DeliveryAddress,
			ReceiverPhone:   req.ReceiverPhone,
			OrderStatus:     models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			DiscountType:    discountType,
			DiscountValue:   discountValue,
			TotalAmount:     total,
			Items:           engine.Items(),
		})
		if err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

type orderDraft struct {
	UserID          int64
	DeliveryAddress string
	ReceiverPhone   string
	OrderStatus     string
	PaymentStatus   string
	DiscountType    string
	DiscountValue   decimal.Decimal
	TotalAmount     decimal.Decimal
	Items           []models.LineItem
}

func insertOrder(ctx context.Context, tx *sql.Tx, draft orderDraft) (*models.Order, error) {
	order := &models.Order{}

	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, order_number, delivery_address, receiver_phone,
			order_status, payment_status, discount_type, discount_value, total_amount,
			created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW(), 1)
		 RETURNING `+orderColumns,
		draft.UserID, generateOrderNumber(), draft.DeliveryAddress, draft.ReceiverPhone,
		draft.OrderStatus, draft.PaymentStatus, draft.DiscountType, draft.DiscountValue,
		draft.TotalAmount).Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.DeliveryAddress,
		&order.ReceiverPhone,
		&order.OrderStatus,
		&order.PaymentStatus,
		&order.DiscountType,
		&order.DiscountValue,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for _, item := range draft.Items {
		var oi models.OrderItem
		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, size, unit, quantity,
				price_at_purchase, custom_price, subtotal, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			 RETURNING id, order_id, product_id, size, unit, quantity,
				price_at_purchase, custom_price, subtotal, created_at`,
			order.ID, item.ProductID, item.Size, item.Unit, item.Quantity,
			item.UnitPrice, item.CustomPrice, item.Subtotal()).Scan(
			&oi.ID,
			&oi.OrderID,
			&oi.ProductID,
			&oi.Size,
			&oi.Unit,
			&oi.Quantity,
			&oi.PriceAtPurchase,
			&oi.CustomPrice,
			&oi.Subtotal,
			&oi.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		order.Items = append(order.Items, oi)
	}

	return order, nil
}

func checkUserExists(ctx context.Context, tx *sql.Tx, userID int64) error {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		return database.ErrUserNotFound
	}
	return nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}

	err := db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id).Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.DeliveryAddress,
		&order.ReceiverPhone,
		&order.OrderStatus,
		&order.PaymentStatus,
		&order.DiscountType,
		&order.DiscountValue,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := loadOrderItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func loadOrderItems(ctx context.Context, q rowQuerier, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, product_id, size, unit, quantity,
			price_at_purchase, custom_price, subtotal, created_at
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Size,
			&item.Unit,
			&item.Quantity,
			&item.PriceAtPurchase,
			&item.CustomPrice,
			&item.Subtotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func ListOrdersCursor(ctx context.Context, db *sql.DB, userID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListAllOrders is the admin listing. filter is "active" (pending,
// processing, shipped), "past" (delivered, cancelled) or empty for
// everything.
func ListAllOrders(ctx context.Context, db *sql.DB, filter string, page, pageSize int) (*OffsetPage, error) {
	var statuses []string
	switch filter {
	case "active":
		statuses = []string{models.OrderStatusPending, models.OrderStatusProcessing, models.OrderStatusShipped}
	case "past":
		statuses = []string{models.OrderStatusDelivered, models.OrderStatusCancelled}
	case "":
		statuses = []string{models.OrderStatusPending, models.OrderStatusProcessing,
			models.OrderStatusShipped, models.OrderStatusDelivered, models.OrderStatusCancelled}
	default:
		statuses = []string{filter}
	}

	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE order_status = ANY($1)`,
		pq.Array(statuses)).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := db.QueryContext(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE order_status = ANY($1)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		pq.Array(statuses), pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}

	return &OffsetPage{
		Items:      orders,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.OrderNumber,
			&order.DeliveryAddress,
			&order.ReceiverPhone,
			&order.OrderStatus,
			&order.PaymentStatus,
			&order.DiscountType,
			&order.DiscountValue,
			&order.TotalAmount,
			&order.CreatedAt,
			&order.UpdatedAt,
			&order.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

type OrderItemUpdate struct {
	ProductID       int64
	Quantity        int
	Size            string
	Unit            models.Unit
	PriceAtPurchase decimal.Decimal
	CustomPrice     bool
}

type OrderUpdate struct {
	OrderStatus     *string
	PaymentStatus   *string
	DeliveryAddress *string
	ReceiverPhone   *string
	Items           []OrderItemUpdate
}

var allowedTransitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusCancelled},
}

func validTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateOrder applies an admin edit. Status moves follow
// pending -> processing -> shipped -> delivered with cancellation
// allowed from any non-terminal state. Replacing the item list
// recomputes the total through the discount calculator using the
// discount recorded on the order.
func UpdateOrder(ctx context.Context, db *sql.DB, id int64, update OrderUpdate) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		current := &models.Order{}
		err := tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(
			&current.ID,
			&current.UserID,
			&current.OrderNumber,
			&current.DeliveryAddress,
			&current.ReceiverPhone,
			&current.OrderStatus,
			&current.PaymentStatus,
			&current.DiscountType,
			&current.DiscountValue,
			&current.TotalAmount,
			&current.CreatedAt,
			&current.UpdatedAt,
			&current.Version,
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		orderStatus := current.OrderStatus
		if update.OrderStatus != nil {
			if !validTransition(current.OrderStatus, *update.OrderStatus) {
				return database.ErrInvalidStatus
			}
			orderStatus = *update.OrderStatus
		}

		paymentStatus := current.PaymentStatus
		if update.PaymentStatus != nil {
			paymentStatus = *update.PaymentStatus
		}

		deliveryAddress := current.DeliveryAddress
		if update.DeliveryAddress != nil {
			deliveryAddress = *update.DeliveryAddress
		}

		receiverPhone := current.ReceiverPhone
		if update.ReceiverPhone != nil {
			receiverPhone = *update.ReceiverPhone
		}

		totalAmount := current.TotalAmount
		if update.Items != nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
				return fmt.Errorf("clear order items: %w", err)
			}

			subtotal := decimal.Zero
			hasCustom := false
			for _, item := range update.Items {
				if item.Quantity < 1 {
					return cart.ErrInvalidQuantity
				}
				var exists bool
				if err := tx.QueryRowContext(ctx,
					`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`,
					item.ProductID).Scan(&exists); err != nil {
					return fmt.Errorf("check product exists: %w", err)
				}
				if !exists {
					return database.ErrProductNotFound
				}

				lineSubtotal := item.PriceAtPurchase.Mul(decimal.NewFromInt(int64(item.Quantity)))
				subtotal = subtotal.Add(lineSubtotal)
				if item.CustomPrice {
					hasCustom = true
				}

				_, err := tx.ExecContext(ctx,
					`INSERT INTO order_items (order_id, product_id, size, unit, quantity,
						price_at_purchase, custom_price, subtotal, created_at)
					 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
					id, item.ProductID, item.Size, item.Unit, item.Quantity,
					item.PriceAtPurchase, item.CustomPrice, lineSubtotal)
				if err != nil {
					return fmt.Errorf("create order item: %w", err)
				}
			}

			spec := &pricing.DiscountSpec{Type: current.DiscountType, Value: current.DiscountValue}
			totalAmount, err = pricing.ComputeTotal(subtotal, spec, hasCustom)
			if err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders
			 SET order_status = $1, payment_status = $2, delivery_address = $3,
				 receiver_phone = $4, total_amount = $5, updated_at = NOW(),
				 version = version + 1
			 WHERE id = $6`,
			orderStatus, paymentStatus, deliveryAddress, receiverPhone, totalAmount, id)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err = GetOrder(ctx, db, id)
	if err != nil {
		return nil, err
	}

	return order, nil
}

// DeleteOrder removes an order outright. Delivered orders are kept
// forever; cancellation is the supported way to retire them.
func DeleteOrder(ctx context.Context, db *sql.DB, id int64) error {
	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT order_status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if status == models.OrderStatusDelivered {
			return database.ErrOrderDelivered
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM orders WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}

		return nil
	})
}

// RepeatOrder creates a fresh pending order from a previous one,
// copying items at their original purchase prices. Stock is checked
// and decremented again.
func RepeatOrder(ctx context.Context, db *sql.DB, orderID, userID int64) (*models.Order, error) {
	original, err := GetOrder(ctx, db, orderID)
	if err != nil {
		return nil, err
	}
	if original.UserID != userID {
		return nil, database.ErrOrderNotFound
	}

	var order *models.Order

	err = database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		items := make([]models.LineItem, 0, len(original.Items))
		for _, item := range original.Items {
			if _, err := LockProduct(ctx, tx, item.ProductID); err != nil {
				return err
			}
			if err := DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			items = append(items, models.LineItem{
				ProductID:   item.ProductID,
				Size:        item.Size,
				Unit:        item.Unit,
				Quantity:    item.Quantity,
				UnitPrice:   item.PriceAtPurchase,
				CustomPrice: item.CustomPrice,
			})
		}

		o, err := insertOrder(ctx, tx, orderDraft{
			UserID:          userID,
			DeliveryAddress: original.DeliveryAddress,
			ReceiverPhone:   original.ReceiverPhone,
			OrderStatus:     models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			DiscountType:    original.DiscountType,
			DiscountValue:   original.DiscountValue,
			TotalAmount:     original.TotalAmount,
			Items:           items,
		})
		if err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}
