package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/freshmart/storefront/internal/cart"
	"github.com/freshmart/storefront/internal/catalog"
	"github.com/freshmart/storefront/internal/database"
	"github.com/freshmart/storefront/internal/pricing"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := &Server{logger: zap.NewNop()}

	tests := []struct {
		err    error
		status int
	}{
		{database.ErrProductNotFound, http.StatusNotFound},
		{database.ErrOrderNotFound, http.StatusNotFound},
		{database.ErrUserNotFound, http.StatusNotFound},
		{cart.ErrItemNotFound, http.StatusNotFound},
		{catalog.ErrInvalidVariant, http.StatusBadRequest},
		{cart.ErrInvalidQuantity, http.StatusBadRequest},
		{pricing.ErrInvalidDiscount, http.StatusBadRequest},
		{database.ErrEmptyCart, http.StatusBadRequest},
		{database.ErrInvalidStatus, http.StatusBadRequest},
		{cart.ErrInsufficientStock, http.StatusConflict},
		{database.ErrInsufficientStock, http.StatusConflict},
		{database.ErrDuplicateSKU, http.StatusConflict},
		{database.ErrDuplicatePhone, http.StatusConflict},
		{database.ErrOrderDelivered, http.StatusConflict},
		{database.ErrLockTimeout, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		s.respondError(c, tt.err)

		assert.Equal(t, tt.status, w.Code, "error %v", tt.err)
	}
}

func TestRespondErrorWrappedErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := &Server{logger: zap.NewNop()}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	s.respondError(c, fmt.Errorf("add item: %w", cart.ErrInsufficientStock))

	assert.Equal(t, http.StatusConflict, w.Code)
}
