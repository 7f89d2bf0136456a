// internal/domain/order/entity_test.go
package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanBeCancelled(t *testing.T) {
	cases := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusPending, true},
		{OrderStatusConfirmed, true},
		{OrderStatusProcessing, false},
		{OrderStatusShipped, false},
		{OrderStatusDelivered, false},
		{OrderStatusCancelled, false},
		{OrderStatusRefunded, false},
	}

	for _, tc := range cases {
		o := Order{Status: tc.status}
		assert.Equal(t, tc.want, o.CanBeCancelled(), "status %s", tc.status)
	}
}

func TestCanBeRefunded(t *testing.T) {
	paid := Order{Status: OrderStatusDelivered, PaymentStatus: PaymentStatusPaid}
	assert.True(t, paid.CanBeRefunded())

	unpaid := Order{Status: OrderStatusDelivered, PaymentStatus: PaymentStatusPending}
	assert.False(t, unpaid.CanBeRefunded())

	cancelled := Order{Status: OrderStatusCancelled, PaymentStatus: PaymentStatusPaid}
	assert.False(t, cancelled.CanBeRefunded())

	refunded := Order{Status: OrderStatusRefunded, PaymentStatus: PaymentStatusRefunded}
	assert.False(t, refunded.CanBeRefunded())
}

func TestRefundCountsTowardRefunds(t *testing.T) {
	assert.True(t, (&OrderRefund{Status: RefundStatusPending}).CountsTowardRefunds())
	assert.True(t, (&OrderRefund{Status: RefundStatusProcessing}).CountsTowardRefunds())
	assert.True(t, (&OrderRefund{Status: RefundStatusCompleted}).CountsTowardRefunds())
	assert.False(t, (&OrderRefund{Status: RefundStatusFailed}).CountsTowardRefunds())
}
