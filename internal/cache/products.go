// Package cache keeps a read-through Redis cache in front of the product
// store. Redis failures degrade to plain database reads, never to request
// errors.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/freshmart/storefront/internal/database"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/store"
)

const notFoundSentinel = "notfound"

type ProductCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewProductCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{rdb: rdb, ttl: ttl, logger: logger}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func listKey(filter store.ProductFilter, page, pageSize int) string {
	return fmt.Sprintf("products:%s:%s:%d:%d", filter.Category, filter.Status, page, pageSize)
}

// productPage mirrors store.OffsetPage with typed items so cached pages
// round-trip through JSON without losing the product shape.
type productPage struct {
	Items      []models.Product `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

func (p *productPage) toOffsetPage() *store.OffsetPage {
	return &store.OffsetPage{
		Items:      p.Items,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}

// GetProduct serves product reads cache-first. A miss falls through to the
// store and populates the cache; a not-found result is cached briefly so
// repeated probes for dead IDs skip the database.
func (c *ProductCache) GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	key := productKey(id)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundSentinel {
			return nil, database.ErrProductNotFound
		}
		var product models.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
		c.logger.Warn("corrupt cache entry, falling back to db", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("redis get failed, falling back to db", zap.String("key", key), zap.Error(err))
	}

	product, err := store.GetProduct(ctx, db, id)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			if setErr := c.rdb.Set(ctx, key, notFoundSentinel, time.Minute).Err(); setErr != nil {
				c.logger.Warn("failed to cache notfound", zap.String("key", key), zap.Error(setErr))
			}
		}
		return nil, err
	}

	c.set(ctx, key, product, c.ttl)
	return product, nil
}

// ListProducts caches per (category, status, page) combination.
func (c *ProductCache) ListProducts(ctx context.Context, db *sql.DB, filter store.ProductFilter, page, pageSize int) (*store.OffsetPage, error) {
	key := listKey(filter, page, pageSize)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached productPage
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached.toOffsetPage(), nil
		}
		c.logger.Warn("corrupt cache entry, falling back to db", zap.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("redis get failed, falling back to db", zap.String("key", key), zap.Error(err))
	}

	result, err := store.ListProducts(ctx, db, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	items, _ := result.Items.([]models.Product)
	c.set(ctx, key, &productPage{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, c.ttl)
	return result, nil
}

// Invalidate drops the cached product and every list that could contain it.
// Called after any product mutation and after stock-changing order paths.
func (c *ProductCache) Invalidate(ctx context.Context, id int64) {
	keys := []string{productKey(id)}

	iter := c.rdb.Scan(ctx, 0, "products:*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("redis scan failed during invalidation", zap.Error(err))
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("redis delete failed", zap.Error(err))
	}
}

func (c *ProductCache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to marshal cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Connect opens and pings a Redis client.
func Connect(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}
