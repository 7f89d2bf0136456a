// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents the product entity. The order core consumes it as a
// read-only catalog: current price, name and SKU are snapshotted into order
// lines at checkout time.
type Product struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SellerID      uint           `gorm:"not null;index" json:"seller_id"`
	SKU           string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name          string         `gorm:"not null;size:255" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"price"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	TrackQuantity bool           `gorm:"default:true" json:"track_quantity"`
	Quantity      int            `gorm:"default:0" json:"quantity"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
}

// ProductVariant represents product variants (size, color, etc.). A variant
// adjusts the base product price rather than overriding it.
type ProductVariant struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ProductID       uint            `gorm:"not null;index" json:"product_id"`
	SKU             string          `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name            string          `gorm:"not null;size:255" json:"name"`
	PriceAdjustment decimal.Decimal `gorm:"type:numeric(12,3);default:0" json:"price_adjustment"`
	Quantity        int             `gorm:"default:0" json:"quantity"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string        { return "products" }
func (ProductVariant) TableName() string { return "product_variants" }

// UnitPrice returns the effective unit price for the product with an
// optional variant applied.
func (p *Product) UnitPrice(variant *ProductVariant) decimal.Decimal {
	if variant != nil {
		return p.Price.Add(variant.PriceAdjustment)
	}
	return p.Price
}

// IsInStock reports whether the product can currently be purchased
func (p *Product) IsInStock() bool {
	return p.Quantity > 0 || !p.TrackQuantity
}
