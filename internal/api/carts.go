package api

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freshmart/storefront/internal/cart"
	"github.com/freshmart/storefront/internal/catalog"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/store"
)

type cartResponse struct {
	Cart     *models.Cart `json:"cart"`
	Subtotal string       `json:"subtotal"`
}

func newCartResponse(c *models.Cart) cartResponse {
	return cartResponse{
		Cart:     c,
		Subtotal: c.TotalPrice().Round(2).String(),
	}
}

func (s *Server) getCart(c *gin.Context) {
	user := currentUser(c)

	userCart, err := store.LoadCart(c.Request.Context(), s.db, user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCartResponse(userCart))
}

type addItemRequest struct {
	ProductID int64       `json:"product_id" binding:"required"`
	Quantity  int         `json:"quantity" binding:"required"`
	Unit      models.Unit `json:"unit"`
	Size      string      `json:"size"`
}

func (s *Server) addCartItem(c *gin.Context) {
	user := currentUser(c)

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userCart, err := store.MutateCart(c.Request.Context(), s.db, user.ID, func(tx *sql.Tx, uc *models.Cart) error {
		product, err := store.LockProduct(c.Request.Context(), tx, req.ProductID)
		if err != nil {
			return err
		}

		engine := cart.New(uc)
		_, err = engine.AddItem(catalog.WithSeasonalOptions(product), catalog.Selector{
			Unit: req.Unit,
			Size: req.Size,
		}, req.Quantity)
		return err
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCartResponse(userCart))
}

// itemKey builds the line identity from the path product ID and the
// unit/size query qualifiers, matching how lines were added.
func itemKey(c *gin.Context, productID int64) cart.ItemKey {
	return cart.ItemKey{
		ProductID: productID,
		Unit:      models.Unit(c.Query("unit")),
		Size:      c.Query("size"),
	}
}

type updateItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (s *Server) updateCartItem(c *gin.Context) {
	user := currentUser(c)

	productID, ok := parseID(c, "productID")
	if !ok {
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userCart, err := store.MutateCart(c.Request.Context(), s.db, user.ID, func(tx *sql.Tx, uc *models.Cart) error {
		product, err := store.LockProduct(c.Request.Context(), tx, productID)
		if err != nil {
			return err
		}

		engine := cart.New(uc)
		_, err = engine.UpdateItemQuantity(itemKey(c, productID), req.Quantity, product.StockQuantity)
		return err
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCartResponse(userCart))
}

func (s *Server) removeCartItem(c *gin.Context) {
	user := currentUser(c)

	productID, ok := parseID(c, "productID")
	if !ok {
		return
	}

	userCart, err := store.MutateCart(c.Request.Context(), s.db, user.ID, func(tx *sql.Tx, uc *models.Cart) error {
		cart.New(uc).RemoveItem(itemKey(c, productID))
		return nil
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCartResponse(userCart))
}

func (s *Server) clearCart(c *gin.Context) {
	user := currentUser(c)

	if err := store.ClearCart(c.Request.Context(), s.db, user.ID); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
