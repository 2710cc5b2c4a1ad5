package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/freshmart/storefront/internal/catalog"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/store"
)

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// listProducts serves the public catalog. Only active products show by
// default, and seasonal products are decorated with their derived size
// tiers on the way out.
func (s *Server) listProducts(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := store.ProductFilter{
		Category: c.Query("category"),
		Status:   c.DefaultQuery("status", models.ProductStatusActive),
	}

	result, err := s.products.ListProducts(c.Request.Context(), s.db, filter, page, pageSize)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if items, ok := result.Items.([]models.Product); ok {
		decorated := make([]models.Product, len(items))
		for i := range items {
			decorated[i] = *catalog.WithSeasonalOptions(&items[i])
		}
		result.Items = decorated
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := s.products.GetProduct(c.Request.Context(), s.db, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, catalog.WithSeasonalOptions(product))
}

// listAllProducts is the admin listing: every status, straight from
// the database so stock numbers are never stale.
func (s *Server) listAllProducts(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := store.ProductFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
	}

	result, err := store.ListProducts(c.Request.Context(), s.db, filter, page, pageSize)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type productRequest struct {
	SKU           string               `json:"sku" binding:"required"`
	Name          string               `json:"name" binding:"required"`
	Description   string               `json:"description"`
	Category      string               `json:"category" binding:"required"`
	Packaging     models.Packaging     `json:"packaging"`
	Price         decimal.Decimal      `json:"price"`
	StockQuantity int                  `json:"stock_quantity"`
	Status        string               `json:"status"`
	ImageURL      string               `json:"image_url"`
	PriceOptions  []models.PriceOption `json:"price_options"`
}

func (r *productRequest) params() store.ProductParams {
	return store.ProductParams{
		SKU:           r.SKU,
		Name:          r.Name,
		Description:   r.Description,
		Category:      r.Category,
		Packaging:     r.Packaging,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
		Status:        r.Status,
		ImageURL:      r.ImageURL,
		PriceOptions:  r.PriceOptions,
	}
}

func (s *Server) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := store.CreateProduct(c.Request.Context(), s.db, req.params())
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.products.Invalidate(c.Request.Context(), product.ID)
	c.JSON(http.StatusCreated, product)
}

func (s *Server) updateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := store.UpdateProduct(c.Request.Context(), s.db, id, req.params())
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.products.Invalidate(c.Request.Context(), id)
	c.JSON(http.StatusOK, product)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := store.DeleteProduct(c.Request.Context(), s.db, id); err != nil {
		s.respondError(c, err)
		return
	}

	s.products.Invalidate(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}
