package integration

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/freshmart/storefront/internal/catalog"
	"github.com/freshmart/storefront/internal/database"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/store"
)

func TestCreateProductDuplicateSKU(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestProduct(t, db, "PROD-001", 100, 10)

	_, err := store.CreateProduct(ctx, db, store.ProductParams{
		SKU:           "PROD-001",
		Name:          "Duplicate",
		Category:      "fruits",
		Packaging:     models.PackagingBox,
		Price:         decimal.NewFromInt(100),
		StockQuantity: 10,
		Status:        models.ProductStatusActive,
	})
	if !errors.Is(err, database.ErrDuplicateSKU) {
		t.Errorf("Expected duplicate SKU error, got: %v", err)
	}
}

func TestPriceOptionsRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product, err := store.CreateProduct(ctx, db, store.ProductParams{
		SKU:       "PROD-002",
		Name:      "Himsagar Mango",
		Category:  "mangoes",
		Packaging: models.PackagingLoose,
		Price:     decimal.NewFromInt(1200),
		PriceOptions: []models.PriceOption{
			{Unit: models.UnitDozen, Size: "Small", Price: decimal.NewFromInt(850)},
			{Unit: models.UnitDozen, Size: "Medium", Price: decimal.NewFromInt(1200)},
			{Unit: models.UnitDozen, Size: "Big", Price: decimal.NewFromInt(1550)},
		},
		StockQuantity: 40,
		Status:        models.ProductStatusActive,
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	loaded, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}

	if len(loaded.PriceOptions) != 3 {
		t.Fatalf("Expected 3 price options, got %d", len(loaded.PriceOptions))
	}

	variant, err := catalog.Resolve(loaded, catalog.Selector{Unit: models.UnitDozen, Size: "Big"})
	if err != nil {
		t.Fatalf("Resolve variant: %v", err)
	}
	if !variant.UnitPrice.Equal(decimal.NewFromInt(1550)) {
		t.Errorf("Expected variant price 1550, got %s", variant.UnitPrice)
	}

	_, err = catalog.Resolve(loaded, catalog.Selector{Unit: models.UnitDozen, Size: "Huge"})
	if !errors.Is(err, catalog.ErrInvalidVariant) {
		t.Errorf("Expected invalid variant error, got: %v", err)
	}
}

func TestDuplicateOptionsRejected(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateProduct(ctx, db, store.ProductParams{
		SKU:       "PROD-003",
		Name:      "Bad Options",
		Category:  "mangoes",
		Packaging: models.PackagingLoose,
		Price:     decimal.NewFromInt(1200),
		PriceOptions: []models.PriceOption{
			{Unit: models.UnitDozen, Size: "Small", Price: decimal.NewFromInt(850)},
			{Unit: models.UnitDozen, Size: "Small", Price: decimal.NewFromInt(900)},
		},
		StockQuantity: 10,
		Status:        models.ProductStatusActive,
	})
	if err == nil {
		t.Error("Expected duplicate (unit, size) options to be rejected")
	}
}

func TestConcurrentStockDecrement(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	product := createTestProduct(t, db, "PROD-004", 100, 10)

	concurrency := 8
	var wg sync.WaitGroup
	results := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
				if _, err := store.LockProduct(ctx, tx, product.ID); err != nil {
					return err
				}
				return store.DecrementStock(ctx, tx, product.ID, 2)
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
		} else if !errors.Is(err, database.ErrInsufficientStock) {
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if successCount != 5 {
		t.Errorf("Expected 5 successful decrements for stock 10, got %d", successCount)
	}

	finalProduct, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if finalProduct.StockQuantity != 0 {
		t.Errorf("Expected final stock 0, got %d", finalProduct.StockQuantity)
	}
}

func TestCreateUserDuplicatePhone(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestUser(t, db, "01733000001")

	_, err := store.CreateUser(ctx, db, "01733000001", "Another User", "", false)
	if !errors.Is(err, database.ErrDuplicatePhone) {
		t.Errorf("Expected duplicate phone error, got: %v", err)
	}
}
