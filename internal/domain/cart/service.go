// internal/domain/cart/service.go
package cart

import (
	"errors"
	"fmt"

	"github.com/fincart/backend/internal/config"
	"github.com/fincart/backend/internal/domain/product"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrEmptyCart is returned when checkout is attempted against a missing or
// empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// ErrItemNotFound is returned when a cart line does not exist
var ErrItemNotFound = errors.New("item not found in cart")

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CartResponse represents a shopping cart with computed totals
type CartResponse struct {
	Cart          *Cart           `json:"cart"`
	ItemCount     int             `json:"item_count"`
	TotalQuantity int             `json:"total_quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID        uint  `json:"product_id" binding:"required"`
	ProductVariantID *uint `json:"product_variant_id"`
	Quantity         int   `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// GetCart retrieves the user's cart with items and current catalog prices
func (s *Service) GetCart(userID uint) (*CartResponse, error) {
	cart, err := s.getOrCreateCart(userID)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(cart), nil
}

// AddItem adds an item to the user's cart, merging quantities when the same
// (product, variant) line already exists.
func (s *Service) AddItem(userID uint, req *AddToCartRequest) (*CartResponse, error) {
	// Validate product exists and is active
	var prod product.Product
	result := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).First(&prod)
	if result.Error != nil {
		return nil, fmt.Errorf("product not found or inactive")
	}

	// Validate variant belongs to the product
	var variant *product.ProductVariant
	if req.ProductVariantID != nil {
		var v product.ProductVariant
		result := s.db.Where("id = ? AND product_id = ? AND is_active = ?",
			*req.ProductVariantID, req.ProductID, true).First(&v)
		if result.Error != nil {
			return nil, fmt.Errorf("product variant not found or inactive")
		}
		variant = &v
	}

	cart, err := s.getOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	// Check inventory availability
	availableQuantity := prod.Quantity
	if variant != nil {
		availableQuantity = variant.Quantity
	}

	var existing CartItem
	result = s.db.Where("cart_id = ? AND product_id = ? AND product_variant_id = ?",
		cart.ID, req.ProductID, req.ProductVariantID).First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		if prod.TrackQuantity && availableQuantity < req.Quantity {
			return nil, fmt.Errorf("insufficient inventory. Available: %d", availableQuantity)
		}
		newItem := CartItem{
			CartID:           cart.ID,
			ProductID:        req.ProductID,
			ProductVariantID: req.ProductVariantID,
			Quantity:         req.Quantity,
		}
		if err := s.db.Create(&newItem).Error; err != nil {
			return nil, fmt.Errorf("failed to add item to cart: %w", err)
		}
	} else if result.Error != nil {
		return nil, fmt.Errorf("failed to read cart item: %w", result.Error)
	} else {
		newQuantity := existing.Quantity + req.Quantity
		if prod.TrackQuantity && availableQuantity < newQuantity {
			return nil, fmt.Errorf("insufficient inventory for total quantity. Available: %d", availableQuantity)
		}
		existing.Quantity = newQuantity
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	}

	return s.GetCart(userID)
}

// UpdateItem updates the quantity of a cart line; quantity 0 removes it
func (s *Service) UpdateItem(userID, itemID uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	cart, err := s.getOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	var item CartItem
	result := s.db.Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to read cart item: %w", result.Error)
	}

	if req.Quantity == 0 {
		if err := s.db.Delete(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to remove cart item: %w", err)
		}
		return s.GetCart(userID)
	}

	// Validate inventory for the new quantity
	var prod product.Product
	if err := s.db.First(&prod, item.ProductID).Error; err == nil {
		availableQuantity := prod.Quantity
		if item.ProductVariantID != nil {
			var variant product.ProductVariant
			if err := s.db.First(&variant, *item.ProductVariantID).Error; err == nil {
				availableQuantity = variant.Quantity
			}
		}
		if prod.TrackQuantity && availableQuantity < req.Quantity {
			return nil, fmt.Errorf("insufficient inventory. Available: %d", availableQuantity)
		}
	}

	if err := s.db.Model(&item).Update("quantity", req.Quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return s.GetCart(userID)
}

// RemoveItem removes a line from the cart
func (s *Service) RemoveItem(userID, itemID uint) (*CartResponse, error) {
	return s.UpdateItem(userID, itemID, &UpdateCartItemRequest{Quantity: 0})
}

// Clear removes all items from the user's cart
func (s *Service) Clear(userID uint) error {
	var cart Cart
	result := s.db.Where("user_id = ?", userID).First(&cart)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read cart: %w", result.Error)
	}
	return ClearTx(s.db, cart.ID)
}

// ClearTx removes all items of a cart inside the caller's transaction. The
// checkout finalize step uses it so the cart is cleared atomically with the
// payment outcome.
func ClearTx(tx *gorm.DB, cartID uint) error {
	return tx.Where("cart_id = ?", cartID).Delete(&CartItem{}).Error
}

// Checkout resolves the cart for order creation: items eagerly loaded with
// their product and variant rows so prices can be locked in. Fails with
// ErrEmptyCart when the cart is missing or has no lines.
func (s *Service) Checkout(userID uint) (*Cart, error) {
	var cart Cart
	result := s.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Product").
		Preload("Items.ProductVariant").
		Where("user_id = ?", userID).
		First(&cart)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to retrieve cart: %w", result.Error)
	}

	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	return &cart, nil
}

// getOrCreateCart fetches the user's cart, creating an empty one on first use
func (s *Service) getOrCreateCart(userID uint) (*Cart, error) {
	var cart Cart
	result := s.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Product").
		Preload("Items.ProductVariant").
		Where("user_id = ?", userID).
		First(&cart)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		cart = Cart{UserID: userID}
		if err := s.db.Create(&cart).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
		return &cart, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", result.Error)
	}

	return &cart, nil
}

func (s *Service) buildResponse(cart *Cart) *CartResponse {
	return &CartResponse{
		Cart:          cart,
		ItemCount:     len(cart.Items),
		TotalQuantity: cart.TotalQuantity(),
		Subtotal:      cart.Subtotal(),
	}
}
