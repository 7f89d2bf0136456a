// internal/domain/order/pricing.go
package order

import (
	"github.com/fincart/backend/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// Pricing functions are pure so they can be verified without a database.
// Rounding is deferred: intermediate amounts keep full precision and the
// storage layer's numeric(12,3) columns fix the final scale.

// Subtotal sums unit price times quantity over the cart lines
func Subtotal(items []cart.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].TotalPrice())
	}
	return subtotal
}

// Tax applies the configured tax rate to the subtotal
func Tax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate)
}

// Total combines the order's monetary components. The total is always
// derived here; it is never accepted from a request.
func Total(subtotal, shipping, tax, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(shipping).Add(tax).Sub(discount)
}

// ShippingCost returns the flat rate for a shipping method
func ShippingCost(method string) decimal.Decimal {
	switch method {
	case "express":
		return decimal.NewFromFloat(25.00)
	case "pickup":
		return decimal.Zero
	default: // standard
		return decimal.NewFromFloat(10.00)
	}
}
