// internal/domain/order/statemachine.go
package order

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// validTransitions is the complete transition table. Delivered and refunded
// are terminal; refunded is reachable only from cancelled.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {OrderStatusRefunded},
	OrderStatusRefunded:   {},
}

// IsValidTransition reports whether from -> to is allowed
func IsValidTransition(from, to OrderStatus) bool {
	for _, status := range validTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}

// Transition moves an order to the next status inside the caller's
// transaction: validates against the table, updates the status, stamps the
// milestone timestamp on the first entry into a status, and appends a
// history row. There are no ORM hooks; this is the only write path for
// status changes.
func Transition(tx *gorm.DB, o *Order, next OrderStatus, actorID uint, notes string) error {
	if !IsValidTransition(o.Status, next) {
		return &InvalidTransitionError{From: o.Status, To: next}
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status": next,
	}

	switch next {
	case OrderStatusConfirmed:
		if o.ConfirmedAt == nil {
			updates["confirmed_at"] = now
		}
	case OrderStatusShipped:
		if o.ShippedAt == nil {
			updates["shipped_at"] = now
		}
	case OrderStatusDelivered:
		if o.DeliveredAt == nil {
			updates["delivered_at"] = now
		}
	case OrderStatusCancelled:
		if o.CancelledAt == nil {
			updates["cancelled_at"] = now
		}
	case OrderStatusRefunded:
		updates["payment_status"] = PaymentStatusRefunded
	}

	// The order may carry preloaded associations; restrict the update to
	// the order row itself
	if err := tx.Model(o).Omit(clause.Associations).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	history := OrderStatusHistory{
		OrderID:   o.ID,
		Status:    next,
		Notes:     notes,
		CreatedBy: actorID,
		CreatedAt: now,
	}
	if err := tx.Create(&history).Error; err != nil {
		return fmt.Errorf("failed to create status history: %w", err)
	}

	o.Status = next
	if next == OrderStatusRefunded {
		o.PaymentStatus = PaymentStatusRefunded
	}
	return nil
}
