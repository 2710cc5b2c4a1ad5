package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/freshmart/storefront/internal/database"
	"github.com/freshmart/storefront/internal/models"
)

// Carts are persisted as one row per user plus ordered item rows. All
// writes run through MutateCart, which locks the cart row so that two
// concurrent adds for the same user cannot race the merge-or-append
// rule into duplicate identity lines.

func LoadCart(ctx context.Context, db *sql.DB, userID int64) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}

	err := db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at FROM carts WHERE user_id = $1`,
		userID).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return createCart(ctx, db, userID)
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	items, err := loadCartItems(ctx, db, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

func createCart(ctx context.Context, db *sql.DB, userID int64) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}

	// Another request may create the row first; fall back to reading it.
	err := db.QueryRowContext(ctx,
		`INSERT INTO carts (user_id, created_at, updated_at)
		 VALUES ($1, NOW(), NOW())
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = carts.updated_at
		 RETURNING id, created_at, updated_at`,
		userID).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	return cart, nil
}

type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadCartItems(ctx context.Context, q rowQuerier, cartID int64) ([]models.LineItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT ci.product_id, p.name, ci.size, ci.unit, ci.quantity, ci.unit_price, ci.custom_price
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.cart_id = $1
		 ORDER BY ci.position`,
		cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var item models.LineItem
		err := rows.Scan(
			&item.ProductID,
			&item.ProductName,
			&item.Size,
			&item.Unit,
			&item.Quantity,
			&item.UnitPrice,
			&item.CustomPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// MutateCart loads the user's cart under a row lock, applies fn to it
// and writes the resulting item list back, all in one retried
// transaction. fn runs against the authoritative server-side state, so
// the engine's merge and stock rules hold under concurrency.
func MutateCart(ctx context.Context, db *sql.DB, userID int64, fn func(tx *sql.Tx, cart *models.Cart) error) (*models.Cart, error) {
	var cart *models.Cart

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		c, err := lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := fn(tx, c); err != nil {
			return err
		}

		if err := saveCartItems(ctx, tx, c); err != nil {
			return err
		}

		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func lockCart(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}

	err := tx.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at FROM carts WHERE user_id = $1 FOR UPDATE`,
		userID).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx,
			`INSERT INTO carts (user_id, created_at, updated_at)
			 VALUES ($1, NOW(), NOW())
			 RETURNING id, created_at, updated_at`,
			userID).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}

	items, err := loadCartItems(ctx, tx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

func saveCartItems(ctx context.Context, tx *sql.Tx, cart *models.Cart) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cart_items (cart_id, product_id, size, unit, quantity, unit_price, custom_price, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			cart.ID, item.ProductID, item.Size, item.Unit, item.Quantity,
			item.UnitPrice, item.CustomPrice, i)
		if err != nil {
			return fmt.Errorf("save cart item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE carts SET updated_at = NOW() WHERE id = $1`, cart.ID); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}

	return nil
}

// ClearCart empties the user's cart. Clearing an absent cart is a
// no-op.
func ClearCart(ctx context.Context, db *sql.DB, userID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM cart_items
		 WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1)`,
		userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
