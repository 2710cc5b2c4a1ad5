package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/freshmart/storefront/internal/cart"
	"github.com/freshmart/storefront/internal/catalog"
	"github.com/freshmart/storefront/internal/database"
	"github.com/freshmart/storefront/internal/pricing"
)

// respondError maps domain errors to HTTP statuses. Anything unmapped
// is a 500 and gets logged; mapped errors surface their message as-is.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, catalog.ErrInvalidVariant),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidDiscount),
		errors.Is(err, database.ErrEmptyCart),
		errors.Is(err, database.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, cart.ErrInsufficientStock),
		errors.Is(err, database.ErrInsufficientStock),
		errors.Is(err, database.ErrDuplicateSKU),
		errors.Is(err, database.ErrDuplicatePhone),
		errors.Is(err, database.ErrOrderDelivered),
		errors.Is(err, database.ErrLockTimeout):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	default:
		s.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
