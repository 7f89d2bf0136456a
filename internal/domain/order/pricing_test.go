// internal/domain/order/pricing_test.go
package order

import (
	"testing"

	"github.com/fincart/backend/internal/domain/cart"
	"github.com/fincart/backend/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestTaxKeepsSubCentPrecision(t *testing.T) {
	// 12.5% of 25.00 is 3.125, which cents cannot represent
	subtotal := dec("25.00")
	tax := Tax(subtotal, dec("0.125"))
	assert.True(t, tax.Equal(dec("3.125")), "got %s", tax)
}

func TestTotalCombinesComponents(t *testing.T) {
	total := Total(dec("25.00"), dec("10.00"), dec("3.125"), decimal.Zero)
	assert.True(t, total.Equal(dec("38.125")), "got %s", total)
}

func TestTotalAppliesDiscount(t *testing.T) {
	total := Total(dec("100.00"), dec("10.00"), dec("12.50"), dec("20.00"))
	assert.True(t, total.Equal(dec("102.50")), "got %s", total)
}

func TestSubtotalSumsCartLines(t *testing.T) {
	powerBank := &product.Product{Price: dec("25.00")}
	earbuds := &product.Product{Price: dec("60.00")}
	white := &product.ProductVariant{PriceAdjustment: dec("5.00")}

	items := []cart.CartItem{
		{Quantity: 2, Product: powerBank},
		{Quantity: 1, Product: earbuds, ProductVariant: white},
	}

	subtotal := Subtotal(items)
	require.True(t, subtotal.Equal(dec("115.00")), "got %s", subtotal)
}

func TestSubtotalEmptyCart(t *testing.T) {
	assert.True(t, Subtotal(nil).Equal(decimal.Zero))
}

func TestShippingCost(t *testing.T) {
	assert.True(t, ShippingCost("standard").Equal(dec("10.00")))
	assert.True(t, ShippingCost("express").Equal(dec("25.00")))
	assert.True(t, ShippingCost("pickup").Equal(decimal.Zero))
	assert.True(t, ShippingCost("unknown").Equal(dec("10.00")))
}
