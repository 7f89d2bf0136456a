// internal/domain/order/refund_service.go
package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fincart/backend/internal/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefundProcessor moves the money for a completed refund. Crediting the
// buyer's wallet is an integration concern outside this ledger, so the
// default implementation does nothing.
type RefundProcessor interface {
	Process(refund *OrderRefund) error
}

// NoopRefundProcessor records refunds without moving funds
type NoopRefundProcessor struct{}

func (NoopRefundProcessor) Process(*OrderRefund) error { return nil }

// RefundService maintains the per-order refund sub-ledger
type RefundService struct {
	db        *gorm.DB
	config    *config.Config
	processor RefundProcessor
}

// NewRefundService creates a new refund service
func NewRefundService(db *gorm.DB, cfg *config.Config, processor RefundProcessor) *RefundService {
	if processor == nil {
		processor = NoopRefundProcessor{}
	}
	return &RefundService{
		db:        db,
		config:    cfg,
		processor: processor,
	}
}

// CreateRefundRequest represents refund creation data
type CreateRefundRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"required"`
}

// CreateRefund records a refund against an order. The order row is locked
// for the duration of the transaction so concurrent refund requests see each
// other's entries; the sum of non-failed refunds can never exceed the order
// total.
func (s *RefundService) CreateRefund(orderID uint, req *CreateRefundRequest, actorID uint) (*OrderRefund, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("refund amount must be positive")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var order Order
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID)
	if result.Error != nil {
		tx.Rollback()
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	if !order.CanBeRefunded() {
		tx.Rollback()
		return nil, ErrOrderNotRefundable
	}

	refund, err := createRefundEntry(tx, &order, req.Amount, req.Reason, actorID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit refund: %w", err)
	}

	return refund, nil
}

// MarkRefundCompleted settles a refund entry: stamps processed_at, hands the
// entry to the processor and updates the order's payment status to refunded
// or partially_refunded depending on the settled total. Cancelled orders
// move to the refunded status once fully settled.
func (s *RefundService) MarkRefundCompleted(refundID, actorID uint) (*OrderRefund, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var refund OrderRefund
	if err := tx.First(&refund, refundID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("refund not found")
		}
		return nil, fmt.Errorf("failed to retrieve refund: %w", err)
	}

	if refund.Status == RefundStatusCompleted {
		tx.Rollback()
		return &refund, nil
	}
	if refund.Status == RefundStatusFailed {
		tx.Rollback()
		return nil, fmt.Errorf("failed refund cannot be completed")
	}

	var order Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, refund.OrderID).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       RefundStatusCompleted,
		"processed_at": now,
	}
	if err := tx.Model(&refund).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update refund: %w", err)
	}
	refund.Status = RefundStatusCompleted
	refund.ProcessedAt = &now

	if err := s.processor.Process(&refund); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("refund processing failed: %w", err)
	}

	settled, err := sumRefunds(tx, order.ID, RefundStatusCompleted)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if settled.GreaterThanOrEqual(order.TotalAmount) {
		if order.Status == OrderStatusCancelled {
			if err := Transition(tx, &order, OrderStatusRefunded, actorID, "Refund settled in full"); err != nil {
				tx.Rollback()
				return nil, err
			}
		} else if err := tx.Model(&order).Update("payment_status", PaymentStatusRefunded).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update payment status: %w", err)
		}
	} else if err := tx.Model(&order).Update("payment_status", PaymentStatusPartiallyRefunded).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit refund completion: %w", err)
	}

	return &refund, nil
}

// MarkRefundFailed releases a refund's hold on the order balance
func (s *RefundService) MarkRefundFailed(refundID uint, reason string) error {
	result := s.db.Model(&OrderRefund{}).
		Where("id = ? AND status IN ?", refundID, []RefundStatus{RefundStatusPending, RefundStatusProcessing}).
		Updates(map[string]interface{}{
			"status": RefundStatusFailed,
			"reason": gorm.Expr("reason || ?", fmt.Sprintf(" (failed: %s)", reason)),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark refund failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("refund not found or already settled")
	}
	return nil
}

// GetOrderRefunds lists the refund entries of an order, newest first
func (s *RefundService) GetOrderRefunds(orderID uint) ([]OrderRefund, error) {
	var refunds []OrderRefund
	err := s.db.Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&refunds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve refunds: %w", err)
	}
	return refunds, nil
}

// RefundableBalance returns the amount still refundable on an order
func (s *RefundService) RefundableBalance(orderID uint) (decimal.Decimal, error) {
	var order Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrOrderNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to retrieve order: %w", err)
	}

	held, err := sumRefunds(s.db, orderID,
		RefundStatusPending, RefundStatusProcessing, RefundStatusCompleted)
	if err != nil {
		return decimal.Zero, err
	}

	return order.TotalAmount.Sub(held), nil
}

// createRefundEntry appends a pending refund to the ledger after checking
// the remaining balance. The caller must hold the order row lock (or be the
// only writer, as in cancellation) and manage the transaction.
func createRefundEntry(tx *gorm.DB, order *Order, amount decimal.Decimal, reason string, actorID uint) (*OrderRefund, error) {
	held, err := sumRefunds(tx, order.ID,
		RefundStatusPending, RefundStatusProcessing, RefundStatusCompleted)
	if err != nil {
		return nil, err
	}

	available := order.TotalAmount.Sub(held)
	if amount.GreaterThan(available) {
		return nil, &RefundExceedsBalanceError{Requested: amount, Available: available}
	}

	refund := OrderRefund{
		OrderID:         order.ID,
		RefundReference: newRefundReference(),
		Amount:          amount,
		Reason:          reason,
		Status:          RefundStatusPending,
		CreatedBy:       actorID,
	}
	if err := tx.Create(&refund).Error; err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	return &refund, nil
}

func sumRefunds(tx *gorm.DB, orderID uint, statuses ...RefundStatus) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&OrderRefund{}).
		Where("order_id = ? AND status IN ?", orderID, statuses).
		Select("SUM(amount)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum refunds: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func newRefundReference() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "RF-" + strings.ToUpper(raw[:12])
}
