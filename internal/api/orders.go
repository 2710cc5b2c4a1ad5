package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/freshmart/storefront/internal/database"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/pricing"
	"github.com/freshmart/storefront/internal/store"
)

type placeOrderRequest struct {
	DeliveryAddress string `json:"delivery_address" binding:"required"`
	ReceiverPhone   string `json:"receiver_phone" binding:"required"`
}

func (s *Server) placeOrder(c *gin.Context) {
	user := currentUser(c)

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := store.PlaceOrder(c.Request.Context(), s.db, store.PlaceOrderRequest{
		UserID:          user.ID,
		DeliveryAddress: req.DeliveryAddress,
		ReceiverPhone:   req.ReceiverPhone,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.invalidateOrderProducts(c, order)
	c.JSON(http.StatusCreated, order)
}

func (s *Server) listOrders(c *gin.Context) {
	user := currentUser(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result, err := store.ListOrdersCursor(c.Request.Context(), s.db, user.ID, c.Query("cursor"), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) getOrder(c *gin.Context) {
	user := currentUser(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := store.GetOrder(c.Request.Context(), s.db, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if order.UserID != user.ID && !user.IsAdmin {
		s.respondError(c, database.ErrOrderNotFound)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (s *Server) repeatOrder(c *gin.Context) {
	user := currentUser(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := store.RepeatOrder(c.Request.Context(), s.db, id, user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.invalidateOrderProducts(c, order)
	c.JSON(http.StatusCreated, order)
}

func (s *Server) listAllOrders(c *gin.Context) {
	page, pageSize := pageParams(c)

	result, err := store.ListAllOrders(c.Request.Context(), s.db, c.Query("filter"), page, pageSize)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type orderItemRequest struct {
	ProductID       int64           `json:"product_id" binding:"required"`
	Quantity        int             `json:"quantity" binding:"required"`
	Size            string          `json:"size"`
	Unit            models.Unit     `json:"unit"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	CustomPrice     bool            `json:"custom_price"`
}

type updateOrderRequest struct {
	OrderStatus     *string            `json:"order_status"`
	PaymentStatus   *string            `json:"payment_status"`
	DeliveryAddress *string            `json:"delivery_address"`
	ReceiverPhone   *string            `json:"receiver_phone"`
	Items           []orderItemRequest `json:"items"`
}

func (s *Server) updateOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := store.OrderUpdate{
		OrderStatus:     req.OrderStatus,
		PaymentStatus:   req.PaymentStatus,
		DeliveryAddress: req.DeliveryAddress,
		ReceiverPhone:   req.ReceiverPhone,
	}
	for _, item := range req.Items {
		update.Items = append(update.Items, store.OrderItemUpdate{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			Size:            item.Size,
			Unit:            item.Unit,
			PriceAtPurchase: item.PriceAtPurchase,
			CustomPrice:     item.CustomPrice,
		})
	}

	order, err := store.UpdateOrder(c.Request.Context(), s.db, id, update)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (s *Server) deleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := store.DeleteOrder(c.Request.Context(), s.db, id); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type customOrderItemRequest struct {
	ProductID   int64            `json:"product_id" binding:"required"`
	Quantity    int              `json:"quantity" binding:"required"`
	Size        string           `json:"size"`
	Unit        models.Unit      `json:"unit"`
	CustomPrice *decimal.Decimal `json:"custom_price"`
}

type customOrderRequest struct {
	UserID          int64                    `json:"user_id" binding:"required"`
	DeliveryAddress string                   `json:"delivery_address" binding:"required"`
	ReceiverPhone   string                   `json:"receiver_phone" binding:"required"`
	Items           []customOrderItemRequest `json:"items" binding:"required"`
	DiscountType    string                   `json:"discount_type"`
	DiscountValue   decimal.Decimal          `json:"discount_value"`
}

func (s *Server) createCustomOrder(c *gin.Context) {
	var req customOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	storeReq := store.CustomOrderRequest{
		UserID:          req.UserID,
		DeliveryAddress: req.DeliveryAddress,
		ReceiverPhone:   req.ReceiverPhone,
	}
	for _, item := range req.Items {
		storeReq.Items = append(storeReq.Items, store.CustomOrderItem{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Size:        item.Size,
			Unit:        item.Unit,
			CustomPrice: item.CustomPrice,
		})
	}
	if req.DiscountType != "" && req.DiscountType != pricing.DiscountNone {
		storeReq.Discount = &pricing.DiscountSpec{
			Type:  req.DiscountType,
			Value: req.DiscountValue,
		}
	}

	order, err := store.CreateCustomOrder(c.Request.Context(), s.db, storeReq)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.invalidateOrderProducts(c, order)
	c.JSON(http.StatusCreated, order)
}

// invalidateOrderProducts drops cached products whose stock changed as
// part of placing an order.
func (s *Server) invalidateOrderProducts(c *gin.Context, order *models.Order) {
	for i := range order.Items {
		s.products.Invalidate(c.Request.Context(), order.Items[i].ProductID)
	}
}
