// internal/domain/seller/entity.go
package seller

import (
	"time"

	"gorm.io/gorm"
)

// SellerProfile represents a seller's storefront profile. Order items
// reference it so historical orders can be traced back to the selling party.
type SellerProfile struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	BusinessName string         `gorm:"not null;size:255" json:"business_name"`
	Description  string         `gorm:"type:text" json:"description"`
	IsVerified   bool           `gorm:"default:false" json:"is_verified"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (SellerProfile) TableName() string {
	return "seller_profiles"
}
