// internal/domain/cart/entity_test.go
package cart

import (
	"testing"

	"github.com/fincart/backend/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCartItemUnitPrice(t *testing.T) {
	earbuds := &product.Product{Price: dec("60.00")}
	white := &product.ProductVariant{PriceAdjustment: dec("5.00")}

	base := CartItem{Product: earbuds, Quantity: 1}
	assert.True(t, base.UnitPrice().Equal(dec("60.00")))

	withVariant := CartItem{Product: earbuds, ProductVariant: white, Quantity: 1}
	assert.True(t, withVariant.UnitPrice().Equal(dec("65.00")))

	// Missing product association prices at zero rather than panicking
	orphan := CartItem{Quantity: 3}
	assert.True(t, orphan.UnitPrice().Equal(decimal.Zero))
}

func TestCartItemTotalPrice(t *testing.T) {
	powerBank := &product.Product{Price: dec("25.00")}
	item := CartItem{Product: powerBank, Quantity: 3}
	assert.True(t, item.TotalPrice().Equal(dec("75.00")), "got %s", item.TotalPrice())
}

func TestCartSubtotalAndQuantity(t *testing.T) {
	powerBank := &product.Product{Price: dec("25.00")}
	earbuds := &product.Product{Price: dec("60.00")}
	white := &product.ProductVariant{PriceAdjustment: dec("5.00")}

	c := Cart{Items: []CartItem{
		{Product: powerBank, Quantity: 2},
		{Product: earbuds, ProductVariant: white, Quantity: 1},
	}}

	assert.True(t, c.Subtotal().Equal(dec("115.00")), "got %s", c.Subtotal())
	assert.Equal(t, 3, c.TotalQuantity())
	assert.False(t, c.IsEmpty())

	empty := Cart{}
	assert.True(t, empty.IsEmpty())
	assert.True(t, empty.Subtotal().Equal(decimal.Zero))
}
