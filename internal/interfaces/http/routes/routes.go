// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/fincart/backend/internal/config"
	"github.com/fincart/backend/internal/domain/cart"
	"github.com/fincart/backend/internal/domain/checkout"
	"github.com/fincart/backend/internal/domain/order"
	"github.com/fincart/backend/internal/domain/payment"
	"github.com/fincart/backend/internal/domain/user"
	"github.com/fincart/backend/internal/infrastructure/database/redis"
	"github.com/fincart/backend/internal/interfaces/http/handlers"
	"github.com/fincart/backend/internal/interfaces/http/middleware"
	"github.com/fincart/backend/internal/pkg/pdf"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRoutes wires services and handlers onto the API group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	// Services
	addressService := user.NewAddressService(db, cfg)
	cartService := cart.NewService(db, cfg)
	orderService := order.NewService(db, cfg, cartService, addressService)
	refundService := order.NewRefundService(db, cfg, nil)
	gateway := payment.NewWalletGateway(cfg)
	checkoutService := checkout.NewService(cfg, cartService, orderService, gateway, redisClient, logger)
	pdfService := pdf.NewService(cfg)

	// Handlers
	cartHandler := handlers.NewCartHandler(db, cfg)
	addressHandler := handlers.NewUserAddressHandler(db, cfg)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, addressService, cfg)
	orderHandler := handlers.NewOrderHandler(orderService, refundService, pdfService, cfg)

	// User address book
	users := rg.Group("/users")
	users.Use(middleware.AuthMiddleware(cfg))
	{
		users.GET("/addresses", addressHandler.GetAddresses)
		users.GET("/addresses/:id", addressHandler.GetAddress)
		users.POST("/addresses", addressHandler.CreateAddress)
		users.PUT("/addresses/:id", addressHandler.UpdateAddress)
		users.DELETE("/addresses/:id", addressHandler.DeleteAddress)
	}

	// Cart
	cartGroup := rg.Group("/cart")
	cartGroup.Use(middleware.AuthMiddleware(cfg))
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.POST("/items", cartHandler.AddToCart)
		cartGroup.PUT("/items/:id", cartHandler.UpdateCartItem)
		cartGroup.DELETE("/items/:id", cartHandler.RemoveCartItem)
		cartGroup.DELETE("", cartHandler.ClearCart)
	}

	// Checkout
	checkoutGroup := rg.Group("/checkout")
	checkoutGroup.Use(middleware.AuthMiddleware(cfg))
	{
		checkoutGroup.GET("/summary", checkoutHandler.GetSummary)
		checkoutGroup.POST("", checkoutHandler.PlaceOrder)
	}

	// Orders
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", orderHandler.ListMyOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/number/:number", orderHandler.GetOrderByNumber)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
		orders.GET("/:id/refunds", orderHandler.ListRefunds)
		orders.GET("/:id/invoice", orderHandler.GetInvoice)
	}

	// Admin
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/orders", orderHandler.ListAllOrders)
		admin.PUT("/orders/:id/status", orderHandler.UpdateStatus)
		admin.POST("/orders/:id/cancel", orderHandler.CancelOrder)
		admin.POST("/orders/:id/refunds", orderHandler.CreateRefund)
		admin.POST("/refunds/:id/complete", orderHandler.CompleteRefund)
	}
}
