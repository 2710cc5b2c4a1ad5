package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/freshmart/storefront/internal/database"
	"github.com/freshmart/storefront/internal/models"
)

const productColumns = `id, sku, name, description, category, packaging, price,
	stock_quantity, status, image_url, price_options, created_at, updated_at, version`

type ProductParams struct {
	SKU           string
	Name          string
	Description   string
	Category      string
	Packaging     models.Packaging
	Price         decimal.Decimal
	StockQuantity int
	Status        string
	ImageURL      string
	PriceOptions  []models.PriceOption
}

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	product := &models.Product{}
	var options []byte

	err := row.Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.Packaging,
		&product.Price,
		&product.StockQuantity,
		&product.Status,
		&product.ImageURL,
		&options,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)
	if err != nil {
		return nil, err
	}

	if len(options) > 0 {
		if err := json.Unmarshal(options, &product.PriceOptions); err != nil {
			return nil, fmt.Errorf("decode price options: %w", err)
		}
	}

	return product, nil
}

func encodeOptions(options []models.PriceOption) ([]byte, error) {
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		key := string(opt.Unit) + "|" + opt.Size
		if seen[key] {
			return nil, fmt.Errorf("duplicate price option (%s, %s)", opt.Unit, opt.Size)
		}
		seen[key] = true
	}
	if options == nil {
		options = []models.PriceOption{}
	}
	return json.Marshal(options)
}

func CreateProduct(ctx context.Context, db *sql.DB, params ProductParams) (*models.Product, error) {
	options, err := encodeOptions(params.PriceOptions)
	if err != nil {
		return nil, err
	}

	if params.Status == "" {
		params.Status = models.ProductStatusActive
	}
	if params.Packaging == "" {
		params.Packaging = models.PackagingBox
	}

	query := `
		INSERT INTO products (sku, name, description, category, packaging, price,
			stock_quantity, status, image_url, price_options, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW(), 1)
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		params.SKU, params.Name, params.Description, params.Category, params.Packaging,
		params.Price, params.StockQuantity, params.Status, params.ImageURL, options))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, database.ErrDuplicateSKU
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func UpdateProduct(ctx context.Context, db *sql.DB, id int64, params ProductParams) (*models.Product, error) {
	options, err := encodeOptions(params.PriceOptions)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE products
		SET sku = $1, name = $2, description = $3, category = $4, packaging = $5,
			price = $6, stock_quantity = $7, status = $8, image_url = $9,
			price_options = $10, updated_at = NOW(), version = version + 1
		WHERE id = $11
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		params.SKU, params.Name, params.Description, params.Category, params.Packaging,
		params.Price, params.StockQuantity, params.Status, params.ImageURL, options, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

// DeleteProduct removes a product. The row is locked NOWAIT first so a
// delete does not queue behind an in-flight checkout holding the row;
// contention surfaces as ErrLockTimeout instead.
func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if _, err := LockProductNoWait(ctx, tx, id); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return database.ErrProductNotFound
		}

		return nil
	})
}

// LockProduct reads the product inside tx with a row lock, for stock
// checks that must hold until commit.
func LockProduct(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	product, err := scanProduct(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}

	return product, nil
}

// LockProductNoWait is the non-blocking variant of LockProduct. A row
// already locked by another transaction returns ErrLockTimeout.
func LockProductNoWait(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE NOWAIT`

	product, err := scanProduct(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "55P03" {
			return nil, database.ErrLockTimeout
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}

	return product, nil
}

// DecrementStock reduces stock inside tx, failing when the remaining
// stock does not cover quantity.
func DecrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity - $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND stock_quantity >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrInsufficientStock
	}

	return nil
}

type ProductFilter struct {
	Category string
	Status   string
}

func ListProducts(ctx context.Context, db *sql.DB, filter ProductFilter, page, pageSize int) (*OffsetPage, error) {
	where := `WHERE ($1 = '' OR category = $1) AND ($2 = '' OR status = $2)`

	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products `+where,
		filter.Category, filter.Status).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + productColumns + `
		FROM products ` + where + `
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := db.QueryContext(ctx, query, filter.Category, filter.Status, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}
