// Package api exposes the storefront over HTTP. Handlers stay thin:
// request parsing and status mapping here, pricing and stock rules in
// the catalog, cart, pricing, and store packages.
package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/freshmart/storefront/internal/cache"
	"github.com/freshmart/storefront/internal/config"
)

type Server struct {
	cfg      *config.Config
	db       *sql.DB
	products *cache.ProductCache
	logger   *zap.Logger
	router   *gin.Engine
}

func NewServer(cfg *config.Config, db *sql.DB, products *cache.ProductCache, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	s := &Server{
		cfg:      cfg,
		db:       db,
		products: products,
		logger:   logger,
		router:   router,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", s.listProducts)
			products.GET("/:id", s.getProduct)
		}

		authed := v1.Group("")
		authed.Use(s.identify())
		{
			cart := authed.Group("/cart")
			{
				cart.GET("", s.getCart)
				cart.POST("/items", s.addCartItem)
				cart.PUT("/items/:productID", s.updateCartItem)
				cart.DELETE("/items/:productID", s.removeCartItem)
				cart.DELETE("", s.clearCart)
			}

			orders := authed.Group("/orders")
			{
				orders.POST("", s.placeOrder)
				orders.GET("", s.listOrders)
				orders.GET("/:id", s.getOrder)
				orders.POST("/:id/repeat", s.repeatOrder)
			}

			admin := authed.Group("/admin")
			admin.Use(s.requireAdmin())
			{
				admin.GET("/products", s.listAllProducts)
				admin.POST("/products", s.createProduct)
				admin.PUT("/products/:id", s.updateProduct)
				admin.DELETE("/products/:id", s.deleteProduct)

				admin.GET("/orders", s.listAllOrders)
				admin.PUT("/orders/:id", s.updateOrder)
				admin.DELETE("/orders/:id", s.deleteOrder)
				admin.POST("/custom-orders", s.createCustomOrder)

				admin.POST("/users", s.createUser)
				admin.GET("/users", s.listUsers)
				admin.GET("/users/:id", s.getUser)
			}
		}
	}
}

// Run blocks serving HTTP until the server fails or the listener closes.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	s.logger.Info("server starting", zap.String("address", addr))
	return srv.ListenAndServe()
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
