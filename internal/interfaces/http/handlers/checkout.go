// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/fincart/backend/internal/config"
	"github.com/fincart/backend/internal/domain/checkout"
	"github.com/fincart/backend/internal/domain/order"
	"github.com/fincart/backend/internal/domain/user"
	"github.com/fincart/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
	addressService  *user.AddressService
	config          *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service, addressService *user.AddressService, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		addressService:  addressService,
		config:          cfg,
	}
}

// GetSummary handles GET /checkout/summary
func (h *CheckoutHandler) GetSummary(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	shippingMethod := c.DefaultQuery("shipping_method", "standard")

	addresses, err := h.addressService.GetUserAddresses(userID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve addresses",
		})
		return
	}

	summary, err := h.checkoutService.GetSummary(userID, shippingMethod, addresses)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": summary,
	})
}

// PlaceOrder handles POST /checkout
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	placedOrder, err := h.checkoutService.PlaceOrder(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed",
		"data":    placedOrder,
	})
}
