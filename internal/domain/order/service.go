// internal/domain/order/service.go
package order

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/fincart/backend/internal/config"
	"github.com/fincart/backend/internal/domain/cart"
	"github.com/fincart/backend/internal/domain/product"
	"github.com/fincart/backend/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service handles order business logic
type Service struct {
	db             *gorm.DB
	config         *config.Config
	cartService    *cart.Service
	addressService *user.AddressService
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, cartService *cart.Service, addressService *user.AddressService) *Service {
	return &Service{
		db:             db,
		config:         cfg,
		cartService:    cartService,
		addressService: addressService,
	}
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	ShippingAddressID uint   `json:"shipping_address_id" binding:"required"`
	BillingAddressID  *uint  `json:"billing_address_id"` // Defaults to shipping
	ShippingMethod    string `json:"shipping_method" binding:"required,oneof=standard express pickup"`
	PaymentMethod     string `json:"payment_method" binding:"required,oneof=wallet"`
	CustomerNotes     string `json:"customer_notes"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page      int         `form:"page,default=1"`
	Limit     int         `form:"limit,default=20"`
	Status    OrderStatus `form:"status"`
	UserID    uint        `form:"-"`
	SortBy    string      `form:"sort_by,default=created_at"`
	SortOrder string      `form:"sort_order,default=desc"`
}

// OrderListResponse represents orders with pagination
type OrderListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// CreateFromCart builds a pending order from the user's cart inside a single
// transaction: ownership-checked addresses, price snapshot, computed totals,
// unique order number, inventory reservation and the initial history row.
// The cart itself is left untouched; it is cleared only after payment
// succeeds.
func (s *Service) CreateFromCart(userID uint, req *CreateOrderRequest) (*Order, error) {
	resolvedCart, err := s.cartService.Checkout(userID)
	if err != nil {
		return nil, err
	}

	if err := s.validateCartItems(resolvedCart.Items); err != nil {
		return nil, err
	}

	shippingAddress, err := s.resolveAddress(userID, req.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	billingAddress := shippingAddress
	if req.BillingAddressID != nil {
		billingAddress, err = s.resolveAddress(userID, *req.BillingAddressID)
		if err != nil {
			return nil, err
		}
	}

	subtotal := Subtotal(resolvedCart.Items)
	shippingCost := ShippingCost(req.ShippingMethod)
	taxAmount := Tax(subtotal, s.config.Order.TaxRate)
	discountAmount := decimal.Zero
	totalAmount := Total(subtotal, shippingCost, taxAmount, discountAmount)

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	order := Order{
		UserID:            userID,
		Status:            OrderStatusPending,
		PaymentStatus:     PaymentStatusPending,
		SubtotalAmount:    subtotal,
		TaxAmount:         taxAmount,
		ShippingAmount:    shippingCost,
		DiscountAmount:    discountAmount,
		TotalAmount:       totalAmount,
		Currency:          s.config.Wallet.Currency,
		ShippingAddressID: shippingAddress.ID,
		BillingAddressID:  billingAddress.ID,
		PaymentMethod:     req.PaymentMethod,
		ShippingMethod:    req.ShippingMethod,
		CustomerNotes:     req.CustomerNotes,
	}

	if err := s.insertWithUniqueNumber(tx, &order); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Snapshot cart lines into immutable order items
	for i := range resolvedCart.Items {
		item := &resolvedCart.Items[i]
		orderItem := OrderItem{
			OrderID:          order.ID,
			ProductID:        item.ProductID,
			ProductVariantID: item.ProductVariantID,
			SellerID:         item.Product.SellerID,
			ProductName:      item.Product.Name,
			ProductSKU:       item.Product.SKU,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice(),
			TotalPrice:       item.TotalPrice(),
		}
		if item.ProductVariant != nil {
			orderItem.VariantName = item.ProductVariant.Name
			orderItem.ProductSKU = item.ProductVariant.SKU
		}

		if err := tx.Create(&orderItem).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := s.reserveInventory(tx, resolvedCart.Items); err != nil {
		tx.Rollback()
		return nil, err
	}

	history := OrderStatusHistory{
		OrderID:   order.ID,
		Status:    OrderStatusPending,
		Notes:     "Order created",
		CreatedBy: userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create status history: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}

	if err := s.db.Preload("Items").First(&order, order.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load created order: %w", err)
	}

	return &order, nil
}

// GetOrder retrieves an order by ID. Non-staff callers only see their own
// orders.
func (s *Service) GetOrder(orderID, requesterID uint, isStaff bool) (*Order, error) {
	var order Order
	result := s.db.
		Preload("Items").
		Preload("ShippingAddress").
		Preload("BillingAddress").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Refunds").
		First(&order, orderID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	if !isStaff && order.UserID != requesterID {
		return nil, ErrOrderNotFound
	}

	return &order, nil
}

// GetOrderByNumber retrieves an order by its public order number
func (s *Service) GetOrderByNumber(orderNumber string, requesterID uint, isStaff bool) (*Order, error) {
	var order Order
	result := s.db.Select("id").Where("order_number = ?", strings.ToUpper(orderNumber)).First(&order)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}
	return s.GetOrder(order.ID, requesterID, isStaff)
}

// GetOrders retrieves orders with filtering and pagination
func (s *Service) GetOrders(req *OrderListRequest) (*OrderListResponse, error) {
	var orders []Order
	var total int64

	query := s.db.Model(&Order{}).Preload("Items")

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.UserID > 0 {
		query = query.Where("user_id = ?", req.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	offset := (req.Page - 1) * req.Limit
	orderClause := s.buildOrderClause(req.SortBy, req.SortOrder)
	if err := query.Order(orderClause).Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	pagination := Pagination{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    req.Page < totalPages,
		HasPrev:    req.Page > 1,
	}

	return &OrderListResponse{Orders: orders, Pagination: pagination}, nil
}

// GetUserOrders retrieves orders for a specific user
func (s *Service) GetUserOrders(userID uint, page, limit int) (*OrderListResponse, error) {
	return s.GetOrders(&OrderListRequest{
		Page:   page,
		Limit:  limit,
		UserID: userID,
	})
}

// UpdateStatus moves an order through the fulfillment state machine. The
// handler layer restricts this to staff.
func (s *Service) UpdateStatus(orderID uint, next OrderStatus, actorID uint, notes string) (*Order, error) {
	var order Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := Transition(tx, &order, next, actorID, notes); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	return &order, nil
}

// Cancel cancels an order within the cancellation window, restoring reserved
// inventory. When the order was already paid, a full refund entry is opened
// in the same transaction.
func (s *Service) Cancel(orderID, requesterID uint, isStaff bool, reason string) (*Order, error) {
	order, err := s.GetOrder(orderID, requesterID, isStaff)
	if err != nil {
		return nil, err
	}

	if !order.CanBeCancelled() {
		return nil, ErrOrderNotCancellable
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := s.restoreInventory(tx, order.ID); err != nil {
		tx.Rollback()
		return nil, err
	}

	notes := "Order cancelled"
	if reason != "" {
		notes = fmt.Sprintf("Order cancelled: %s", reason)
	}
	if err := Transition(tx, order, OrderStatusCancelled, requesterID, notes); err != nil {
		tx.Rollback()
		return nil, err
	}

	if order.PaymentStatus == PaymentStatusPaid {
		if _, err := createRefundEntry(tx, order, order.TotalAmount, notes, requesterID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	return s.GetOrder(orderID, requesterID, isStaff)
}

// FinalizePaid applies a successful payment: records the gateway reference,
// marks the order paid and confirms it, and clears the buyer's cart, all in
// one transaction.
func (s *Service) FinalizePaid(orderID uint, paymentReference string, cartID uint) (*Order, error) {
	var order Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	updates := map[string]interface{}{
		"payment_status":    PaymentStatusPaid,
		"payment_reference": paymentReference,
	}
	if err := tx.Model(&order).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	order.PaymentStatus = PaymentStatusPaid
	order.PaymentReference = paymentReference

	if err := Transition(tx, &order, OrderStatusConfirmed, order.UserID, "Payment received"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := cart.ClearTx(tx, cartID); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit payment finalization: %w", err)
	}

	return &order, nil
}

// MarkPaymentFailed keeps the order with a failed payment status so the
// attempt stays auditable. The status update and its history note land
// together or not at all. The cart is not touched.
func (s *Service) MarkPaymentFailed(orderID uint, notes string) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	result := tx.Model(&Order{}).
		Where("id = ?", orderID).
		Update("payment_status", PaymentStatusFailed)
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to mark payment failed: %w", result.Error)
	}

	history := OrderStatusHistory{
		OrderID:   orderID,
		Status:    OrderStatusPending,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create status history: %w", err)
	}

	return tx.Commit().Error
}

// Discard removes a pending order whose payment was definitively rejected:
// reserved inventory goes back and the order row is deleted outright. Items
// and history go with it via cascading foreign keys.
func (s *Service) Discard(orderID uint) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := s.restoreInventory(tx, orderID); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Delete(&Order{}, orderID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to discard order: %w", err)
	}

	return tx.Commit().Error
}

// Private helper methods

func (s *Service) resolveAddress(userID, addressID uint) (*user.Address, error) {
	address, err := s.addressService.GetAddress(userID, addressID)
	if err != nil {
		if errors.Is(err, user.ErrAddressNotFound) {
			return nil, &InvalidAddressError{AddressID: addressID}
		}
		return nil, err
	}
	return address, nil
}

func (s *Service) validateCartItems(items []cart.CartItem) error {
	for i := range items {
		item := &items[i]
		if item.Product == nil {
			return fmt.Errorf("product %d not found", item.ProductID)
		}
		if !item.Product.IsActive {
			return fmt.Errorf("product '%s' is no longer available", item.Product.Name)
		}

		availableQuantity := item.Product.Quantity
		if item.ProductVariant != nil {
			availableQuantity = item.ProductVariant.Quantity
		}
		if item.Product.TrackQuantity && availableQuantity < item.Quantity {
			return fmt.Errorf("insufficient inventory for product '%s'. Available: %d, Requested: %d",
				item.Product.Name, availableQuantity, item.Quantity)
		}
	}
	return nil
}

// insertWithUniqueNumber assigns the order a <prefix><N random digits>
// number and inserts it. Collisions with a concurrent insert surface as a
// unique violation, so the uniqueness check is the insert itself: the
// savepoint lets the transaction survive the violation and re-roll, a
// bounded number of times before giving up.
func (s *Service) insertWithUniqueNumber(tx *gorm.DB, order *Order) error {
	for attempt := 0; attempt < s.config.Order.MaxNumberAttempts; attempt++ {
		candidate, err := randomDigits(s.config.Order.NumberDigits)
		if err != nil {
			return fmt.Errorf("failed to generate order number: %w", err)
		}
		order.OrderNumber = s.config.Order.NumberPrefix + candidate

		if err := tx.SavePoint("order_number").Error; err != nil {
			return fmt.Errorf("failed to create savepoint: %w", err)
		}
		err = tx.Create(order).Error
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := tx.RollbackTo("order_number").Error; err != nil {
			return fmt.Errorf("failed to roll back to savepoint: %w", err)
		}
		order.ID = 0
	}

	return ErrOrderCreationFailed
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func randomDigits(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

func (s *Service) reserveInventory(tx *gorm.DB, items []cart.CartItem) error {
	for i := range items {
		item := &items[i]
		if item.Product == nil || !item.Product.TrackQuantity {
			continue
		}

		if item.ProductVariantID != nil {
			result := tx.Model(&product.ProductVariant{}).
				Where("id = ? AND quantity >= ?", *item.ProductVariantID, item.Quantity).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", item.Quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to reserve variant inventory: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("insufficient inventory for product '%s'", item.Product.Name)
			}
		} else {
			result := tx.Model(&product.Product{}).
				Where("id = ? AND quantity >= ?", item.ProductID, item.Quantity).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", item.Quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to reserve inventory: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("insufficient inventory for product '%s'", item.Product.Name)
			}
		}
	}
	return nil
}

func (s *Service) restoreInventory(tx *gorm.DB, orderID uint) error {
	var orderItems []OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&orderItems).Error; err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}

	for _, item := range orderItems {
		if item.ProductVariantID != nil {
			result := tx.Model(&product.ProductVariant{}).
				Where("id = ?", *item.ProductVariantID).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", item.Quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to restore variant inventory: %w", result.Error)
			}
		} else {
			result := tx.Model(&product.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", item.Quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to restore inventory: %w", result.Error)
			}
		}
	}
	return nil
}

func (s *Service) buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"total_amount": true,
		"status":       true,
		"order_number": true,
	}
	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
