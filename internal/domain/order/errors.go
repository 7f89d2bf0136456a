// internal/domain/order/errors.go
package order

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderNotFound is returned when an order does not exist or is not
	// visible to the caller
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderCreationFailed is returned when a unique order number could
	// not be produced within the configured number of attempts
	ErrOrderCreationFailed = errors.New("order creation failed")

	// ErrOrderNotCancellable is returned when cancellation is requested in a
	// status past the cancellation window
	ErrOrderNotCancellable = errors.New("order cannot be cancelled in its current status")

	// ErrOrderNotRefundable is returned when the order's payment state does
	// not allow refunds
	ErrOrderNotRefundable = errors.New("order is not eligible for refund")

	// ErrPermissionDenied is returned when the caller does not own the
	// order and is not staff
	ErrPermissionDenied = errors.New("permission denied")
)

// InvalidAddressError indicates the referenced address does not exist or does
// not belong to the ordering user.
type InvalidAddressError struct {
	AddressID uint
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address: %d", e.AddressID)
}

// InvalidTransitionError indicates a disallowed status change
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// RefundExceedsBalanceError indicates the requested refund amount is larger
// than the order's remaining refundable balance.
type RefundExceedsBalanceError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *RefundExceedsBalanceError) Error() string {
	return fmt.Sprintf("refund amount %s exceeds refundable balance %s",
		e.Requested.StringFixed(3), e.Available.StringFixed(3))
}
