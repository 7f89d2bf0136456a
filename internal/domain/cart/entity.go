// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/fincart/backend/internal/domain/product"
	"github.com/shopspring/decimal"
)

// Cart is the per-buyer collection of intended purchase lines. Each user
// owns at most one cart; it is cleared when an order is placed.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// CartItem is a (cart, product, variant) line. No price is stored: the unit
// price is derived from the current catalog on every read, so it can drift
// between cart-add time and checkout. Snapshots happen at order creation.
type CartItem struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CartID           uint      `gorm:"not null;index;uniqueIndex:idx_cart_product_variant" json:"cart_id"`
	ProductID        uint      `gorm:"not null;index;uniqueIndex:idx_cart_product_variant" json:"product_id"`
	ProductVariantID *uint     `gorm:"uniqueIndex:idx_cart_product_variant" json:"product_variant_id"`
	Quantity         int       `gorm:"not null;default:1;check:quantity >= 1" json:"quantity"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relationships
	Product        *product.Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ProductVariant *product.ProductVariant `gorm:"foreignKey:ProductVariantID" json:"product_variant,omitempty"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// UnitPrice returns the current catalog price for this line: base product
// price plus the variant adjustment when a variant is selected.
func (i *CartItem) UnitPrice() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.UnitPrice(i.ProductVariant)
}

// TotalPrice returns UnitPrice multiplied by quantity
func (i *CartItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Subtotal sums the line totals of all items in the cart
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for i := range c.Items {
		subtotal = subtotal.Add(c.Items[i].TotalPrice())
	}
	return subtotal
}

// TotalQuantity sums item quantities
func (c *Cart) TotalQuantity() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Quantity
	}
	return total
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
