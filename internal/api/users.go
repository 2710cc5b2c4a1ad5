package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freshmart/storefront/internal/store"
)

type createUserRequest struct {
	Phone   string `json:"phone" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	IsAdmin bool   `json:"is_admin"`
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := store.CreateUser(c.Request.Context(), s.db, req.Phone, req.Name, req.Address, req.IsAdmin)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := store.GetUser(c.Request.Context(), s.db, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) listUsers(c *gin.Context) {
	page, pageSize := pageParams(c)

	result, err := store.ListUsers(c.Request.Context(), s.db, page, pageSize)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
