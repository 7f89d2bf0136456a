// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/fincart/backend/internal/domain/cart"
	"github.com/fincart/backend/internal/domain/order"
	"github.com/fincart/backend/internal/domain/product"
	"github.com/fincart/backend/internal/domain/seller"
	"github.com/fincart/backend/internal/domain/user"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		&user.User{},
		&user.Address{},
		&seller.SellerProfile{},
		&product.Product{},
		&product.ProductVariant{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
		&order.OrderRefund{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		// Order items indexes
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_seller ON order_items(seller_id)",

		// Status history indexes
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",

		// Refund indexes
		"CREATE INDEX IF NOT EXISTS idx_order_refunds_order_status ON order_refunds(order_id, status)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_seller_active ON products(seller_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku)",

		// Address indexes
		"CREATE INDEX IF NOT EXISTS idx_addresses_user_type ON addresses(user_id, type)",
		"CREATE INDEX IF NOT EXISTS idx_addresses_user_default ON addresses(user_id, is_default)",
	}

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("Failed to create index: %v", err)
		}
	}

	return nil
}

// SeedInitialData inserts development seed data
func (m *Migration) SeedInitialData() error {
	log.Println("Seeding initial data...")

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	seller, err := m.seedSeller()
	if err != nil {
		return fmt.Errorf("failed to seed seller: %w", err)
	}

	if err := m.seedBuyer(); err != nil {
		return fmt.Errorf("failed to seed buyer: %w", err)
	}

	if err := m.seedProducts(seller); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	log.Println("Initial data seeded")
	return nil
}

func (m *Migration) seedAdminUser() error {
	var existing user.User
	result := m.db.Where("email = ?", "admin@fincart.example").First(&existing)
	if result.Error == nil {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), 10)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	adminUser := user.User{
		Email:     "admin@fincart.example",
		Password:  string(hashedPassword),
		FirstName: "Admin",
		LastName:  "User",
		IsActive:  true,
		IsAdmin:   true,
	}
	if err := m.db.Create(&adminUser).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Println("Created admin user: admin@fincart.example")
	return nil
}

func (m *Migration) seedSeller() (*seller.SellerProfile, error) {
	var existingProfile seller.SellerProfile
	if err := m.db.Joins("JOIN users ON users.id = seller_profiles.user_id").
		Where("users.email = ?", "seller@fincart.example").
		First(&existingProfile).Error; err == nil {
		return &existingProfile, nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("seller123"), 10)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	sellerUser := user.User{
		Email:     "seller@fincart.example",
		Password:  string(hashedPassword),
		FirstName: "Ama",
		LastName:  "Mensah",
		IsActive:  true,
		IsSeller:  true,
	}
	if err := m.db.Create(&sellerUser).Error; err != nil {
		return nil, fmt.Errorf("failed to create seller user: %w", err)
	}

	profile := seller.SellerProfile{
		UserID:       sellerUser.ID,
		BusinessName: "Mensah Electronics",
		Description:  "Consumer electronics and accessories",
		IsVerified:   true,
		IsActive:     true,
	}
	if err := m.db.Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create seller profile: %w", err)
	}

	log.Println("Created seller: seller@fincart.example")
	return &profile, nil
}

func (m *Migration) seedBuyer() error {
	var existing user.User
	if err := m.db.Where("email = ?", "buyer@fincart.example").First(&existing).Error; err == nil {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("buyer123"), 10)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	buyer := user.User{
		Email:     "buyer@fincart.example",
		Password:  string(hashedPassword),
		FirstName: "Kofi",
		LastName:  "Owusu",
		Phone:     "+233501234567",
		IsActive:  true,
	}
	if err := m.db.Create(&buyer).Error; err != nil {
		return fmt.Errorf("failed to create buyer: %w", err)
	}

	address := user.Address{
		UserID:       buyer.ID,
		Type:         "shipping",
		FirstName:    "Kofi",
		LastName:     "Owusu",
		AddressLine1: "12 Independence Avenue",
		City:         "Accra",
		Region:       "Greater Accra",
		PostalCode:   "GA-145-8972",
		Country:      "GH",
		Phone:        "+233501234567",
		IsDefault:    true,
	}
	if err := m.db.Create(&address).Error; err != nil {
		return fmt.Errorf("failed to create buyer address: %w", err)
	}

	log.Println("Created buyer: buyer@fincart.example")
	return nil
}

func (m *Migration) seedProducts(profile *seller.SellerProfile) error {
	var productCount int64
	m.db.Model(&product.Product{}).Count(&productCount)
	if productCount > 0 {
		return nil
	}

	products := []product.Product{
		{
			SellerID:      profile.ID,
			SKU:           "ME-PBANK-001",
			Name:          "Portable Power Bank 20000mAh",
			Description:   "Fast-charging power bank with dual USB output.",
			Price:         decimal.NewFromFloat(25.00),
			IsActive:      true,
			TrackQuantity: true,
			Quantity:      40,
		},
		{
			SellerID:      profile.ID,
			SKU:           "ME-EARB-002",
			Name:          "Wireless Earbuds",
			Description:   "Bluetooth earbuds with charging case.",
			Price:         decimal.NewFromFloat(60.00),
			IsActive:      true,
			TrackQuantity: true,
			Quantity:      25,
			Variants: []product.ProductVariant{
				{
					SKU:             "ME-EARB-002-BLK",
					Name:            "Black",
					PriceAdjustment: decimal.Zero,
					Quantity:        15,
					IsActive:        true,
				},
				{
					SKU:             "ME-EARB-002-WHT",
					Name:            "White",
					PriceAdjustment: decimal.NewFromFloat(5.00),
					Quantity:        10,
					IsActive:        true,
				},
			},
		},
	}

	for i := range products {
		if err := m.db.Create(&products[i]).Error; err != nil {
			return fmt.Errorf("failed to create product %s: %w", products[i].SKU, err)
		}
	}

	log.Printf("Created %d seed products", len(products))
	return nil
}
