// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/fincart/backend/internal/domain/cart"
	"github.com/fincart/backend/internal/domain/checkout"
	"github.com/fincart/backend/internal/domain/order"
	"github.com/fincart/backend/internal/domain/payment"
	"github.com/gin-gonic/gin"
)

// respondError translates domain errors to HTTP responses so every handler
// maps the same error to the same status code.
func respondError(c *gin.Context, err error) {
	var invalidAddress *order.InvalidAddressError
	var invalidTransition *order.InvalidTransitionError
	var refundExceeds *order.RefundExceedsBalanceError
	var rejected *payment.RejectedError

	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})

	case errors.Is(err, order.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})

	case errors.Is(err, cart.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})

	case errors.Is(err, cart.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})

	case errors.As(err, &invalidAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or unknown address"})

	case errors.As(err, &invalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Invalid status transition",
			"from":  invalidTransition.From,
			"to":    invalidTransition.To,
		})

	case errors.Is(err, order.ErrOrderNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": "Order can no longer be cancelled"})

	case errors.Is(err, order.ErrOrderNotRefundable):
		c.JSON(http.StatusConflict, gin.H{"error": "Order is not eligible for refund"})

	case errors.As(err, &refundExceeds):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Refund amount exceeds refundable balance",
			"available": refundExceeds.Available,
		})

	case errors.Is(err, checkout.ErrCheckoutInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Checkout already in progress"})

	case errors.As(err, &rejected):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":  "Payment rejected",
			"detail": rejected.Detail,
		})

	case payment.IsTransient(err), errors.Is(err, payment.ErrPaymentUnreachable):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     "Payment service unavailable",
			"retryable": true,
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
