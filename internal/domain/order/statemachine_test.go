// internal/domain/order/statemachine_test.go
package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTransition(t *testing.T) {
	allStatuses := []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusRefunded,
	}

	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
		OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:    {OrderStatusDelivered},
		OrderStatusDelivered:  {},
		OrderStatusCancelled:  {OrderStatusRefunded},
		OrderStatusRefunded:   {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			got := IsValidTransition(from, to)
			assert.Equal(t, want, got, "transition %s -> %s", from, to)
		}
	}
}

func TestIsValidTransitionRejectsBackwardMoves(t *testing.T) {
	// A delivered order cannot move back to shipped
	assert.False(t, IsValidTransition(OrderStatusDelivered, OrderStatusShipped))

	// Terminal statuses go nowhere
	assert.False(t, IsValidTransition(OrderStatusRefunded, OrderStatusPending))
	assert.False(t, IsValidTransition(OrderStatusDelivered, OrderStatusDelivered))

	// Refunded is only reachable from cancelled
	assert.False(t, IsValidTransition(OrderStatusDelivered, OrderStatusRefunded))
	assert.True(t, IsValidTransition(OrderStatusCancelled, OrderStatusRefunded))
}

func TestIsValidTransitionUnknownStatus(t *testing.T) {
	assert.False(t, IsValidTransition(OrderStatus("bogus"), OrderStatusConfirmed))
	assert.False(t, IsValidTransition(OrderStatusPending, OrderStatus("bogus")))
}
