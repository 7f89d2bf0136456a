// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/fincart/backend/internal/domain/user"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// PaymentStatus represents the payment status of an order
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// RefundStatus represents the status of a refund entry
type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "pending"
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusCompleted  RefundStatus = "completed"
	RefundStatusFailed     RefundStatus = "failed"
)

// Order represents the order entity. The order number is assigned once at
// creation and never changes. Monetary amounts use numeric(12,3) so tax
// fractions below one cent survive storage. Orders are never soft deleted:
// failed checkouts are removed outright, everything else is permanent.
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:20" json:"order_number"`
	UserID        uint          `gorm:"not null;index" json:"user_id"`
	Status        OrderStatus   `gorm:"not null;default:'pending';size:20" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'pending';size:20" json:"payment_status"`

	// Financial information
	SubtotalAmount decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"subtotal_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(12,3);not null;default:0" json:"tax_amount"`
	ShippingAmount decimal.Decimal `gorm:"type:numeric(12,3);not null;default:0" json:"shipping_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,3);not null;default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"total_amount"`
	Currency       string          `gorm:"size:3;default:'GHS'" json:"currency"`

	// Addresses are referenced, not embedded. RESTRICT keeps an address row
	// alive for as long as any order points at it.
	ShippingAddressID uint `gorm:"not null" json:"shipping_address_id"`
	BillingAddressID  uint `gorm:"not null" json:"billing_address_id"`

	// Payment information
	PaymentMethod    string `gorm:"size:50" json:"payment_method"`
	PaymentReference string `gorm:"size:100" json:"payment_reference"`

	// Shipping information
	ShippingMethod string `gorm:"size:100" json:"shipping_method"`
	TrackingNumber string `gorm:"size:100" json:"tracking_number"`

	CustomerNotes string `gorm:"type:text" json:"customer_notes"`

	// Milestone timestamps, set once on the first transition into the
	// corresponding status
	ConfirmedAt *time.Time `json:"confirmed_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relationships
	ShippingAddress *user.Address        `gorm:"foreignKey:ShippingAddressID;constraint:OnDelete:RESTRICT" json:"shipping_address,omitempty"`
	BillingAddress  *user.Address        `gorm:"foreignKey:BillingAddressID;constraint:OnDelete:RESTRICT" json:"billing_address,omitempty"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory   []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
	Refunds         []OrderRefund        `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"refunds,omitempty"`
}

// OrderItem is a frozen snapshot of a purchased line. Product name, SKU and
// unit price are copied at order creation so later catalog edits cannot
// change what the customer agreed to pay.
type OrderItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OrderID          uint            `gorm:"not null;index" json:"order_id"`
	ProductID        uint            `gorm:"not null;index" json:"product_id"`
	ProductVariantID *uint           `gorm:"index" json:"product_variant_id"`
	SellerID         uint            `gorm:"not null;index" json:"seller_id"`
	ProductName      string          `gorm:"not null;size:255" json:"product_name"`
	ProductSKU       string          `gorm:"not null;size:100" json:"product_sku"`
	VariantName      string          `gorm:"size:255" json:"variant_name"`
	Quantity         int             `gorm:"not null;check:quantity >= 1" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"unit_price"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"total_price"`
	CreatedAt        time.Time       `json:"created_at"`
}

// OrderStatusHistory tracks order status changes. Rows are append only.
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"not null;size:20" json:"status"`
	Notes     string      `gorm:"type:text" json:"notes"`
	CreatedBy uint        `gorm:"index" json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderRefund is one entry in the order's refund sub-ledger
type OrderRefund struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;index" json:"order_id"`
	RefundReference string          `gorm:"uniqueIndex;not null;size:64" json:"refund_reference"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"amount"`
	Reason          string          `gorm:"type:text" json:"reason"`
	Status          RefundStatus    `gorm:"not null;default:'pending';size:20" json:"status"`
	CreatedBy       uint            `gorm:"index" json:"created_by"`
	ProcessedAt     *time.Time      `json:"processed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }
func (OrderRefund) TableName() string        { return "order_refunds" }

// CanBeCancelled reports whether the order is still inside the cancellation
// window. Once fulfillment starts (processing) the order can no longer be
// cancelled by the customer.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// CanBeRefunded reports whether refunds may be recorded against the order
func (o *Order) CanBeRefunded() bool {
	return o.PaymentStatus == PaymentStatusPaid &&
		o.Status != OrderStatusCancelled &&
		o.Status != OrderStatusRefunded
}

// CountsTowardRefunds reports whether a refund entry consumes refundable
// balance. Every entry holds balance from the moment it is recorded; only a
// failed entry releases it.
func (r *OrderRefund) CountsTowardRefunds() bool {
	return r.Status != RefundStatusFailed
}
