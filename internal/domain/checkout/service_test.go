// internal/domain/checkout/service_test.go
package checkout

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fincart/backend/internal/config"
	"github.com/fincart/backend/internal/domain/cart"
	"github.com/fincart/backend/internal/domain/order"
	"github.com/fincart/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCarts struct {
	cart *cart.Cart
	err  error
}

func (f *fakeCarts) Checkout(userID uint) (*cart.Cart, error) {
	return f.cart, f.err
}

type fakeOrders struct {
	pending *order.Order

	createCalls   int
	finalizedRef  string
	finalizedCart uint
	finalized     bool
	failedNotes   string
	markedFailed  bool
	discarded     bool
}

func (f *fakeOrders) CreateFromCart(userID uint, req *order.CreateOrderRequest) (*order.Order, error) {
	f.createCalls++
	return f.pending, nil
}

func (f *fakeOrders) FinalizePaid(orderID uint, paymentReference string, cartID uint) (*order.Order, error) {
	f.finalized = true
	f.finalizedRef = paymentReference
	f.finalizedCart = cartID
	confirmed := *f.pending
	confirmed.Status = order.OrderStatusConfirmed
	confirmed.PaymentStatus = order.PaymentStatusPaid
	confirmed.PaymentReference = paymentReference
	return &confirmed, nil
}

func (f *fakeOrders) MarkPaymentFailed(orderID uint, notes string) error {
	f.markedFailed = true
	f.failedNotes = notes
	return nil
}

func (f *fakeOrders) Discard(orderID uint) error {
	f.discarded = true
	return nil
}

type fakeGateway struct {
	result  *payment.ChargeResult
	err     error
	lastReq *payment.ChargeRequest
}

func (g *fakeGateway) Charge(ctx context.Context, req *payment.ChargeRequest) (*payment.ChargeResult, error) {
	g.lastReq = req
	return g.result, g.err
}

type fakeLocker struct {
	acquired bool
	released bool
}

func (l *fakeLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.acquired, nil
}

func (l *fakeLocker) ReleaseLock(ctx context.Context, key string) error {
	l.released = true
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestService(gateway *fakeGateway) (*Service, *fakeOrders, *fakeLocker) {
	cfg := &config.Config{}
	cfg.Order.CheckoutLockExpiry = time.Minute

	orders := &fakeOrders{pending: &order.Order{
		ID:          7,
		OrderNumber: "FC12345678",
		Status:      order.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("38.125"),
	}}
	carts := &fakeCarts{cart: &cart.Cart{ID: 3, UserID: 42, Items: []cart.CartItem{{ID: 1}}}}
	locker := &fakeLocker{acquired: true}

	return NewService(cfg, carts, orders, gateway, locker, quietLogger()), orders, locker
}

func placeOrderRequest() *order.CreateOrderRequest {
	return &order.CreateOrderRequest{
		ShippingAddressID: 5,
		ShippingMethod:    "standard",
		PaymentMethod:     "wallet",
	}
}

func TestPlaceOrderSuccess(t *testing.T) {
	gateway := &fakeGateway{result: &payment.ChargeResult{TransactionID: "txn-001", Reference: 7}}
	service, orders, locker := newTestService(gateway)

	placed, err := service.PlaceOrder(context.Background(), 42, placeOrderRequest())
	require.NoError(t, err)

	assert.Equal(t, order.OrderStatusConfirmed, placed.Status)
	assert.Equal(t, order.PaymentStatusPaid, placed.PaymentStatus)
	assert.Equal(t, "txn-001", placed.PaymentReference)

	// The wallet is charged for the full order total, referenced by order id
	require.NotNil(t, gateway.lastReq)
	assert.Equal(t, uint(7), gateway.lastReq.ReferenceID)
	assert.True(t, gateway.lastReq.Amount.Equal(decimal.RequireFromString("38.125")))

	assert.True(t, orders.finalized)
	assert.Equal(t, "txn-001", orders.finalizedRef)
	assert.Equal(t, uint(3), orders.finalizedCart)
	assert.False(t, orders.markedFailed)
	assert.False(t, orders.discarded)
	assert.True(t, locker.released)
}

func TestPlaceOrderTimeoutKeepsOrderForReconciliation(t *testing.T) {
	gateway := &fakeGateway{err: payment.ErrPaymentTimeout}
	service, orders, locker := newTestService(gateway)

	_, err := service.PlaceOrder(context.Background(), 42, placeOrderRequest())
	require.ErrorIs(t, err, payment.ErrPaymentTimeout)

	// Outcome unknown: the order stays unconfirmed with a failed payment,
	// nothing is discarded and the cart is never cleared
	assert.True(t, orders.markedFailed)
	assert.Contains(t, orders.failedNotes, "Payment failed")
	assert.False(t, orders.discarded)
	assert.False(t, orders.finalized)
	assert.True(t, locker.released)
}

func TestPlaceOrderGatewayErrorKeepsOrder(t *testing.T) {
	gateway := &fakeGateway{err: &payment.GatewayError{Detail: "unexpected status 500"}}
	service, orders, _ := newTestService(gateway)

	_, err := service.PlaceOrder(context.Background(), 42, placeOrderRequest())
	require.Error(t, err)

	assert.True(t, orders.markedFailed)
	assert.False(t, orders.discarded)
	assert.False(t, orders.finalized)
}

func TestPlaceOrderRejectionDiscardsOrder(t *testing.T) {
	gateway := &fakeGateway{err: &payment.RejectedError{Detail: "Insufficient balance"}}
	service, orders, locker := newTestService(gateway)

	_, err := service.PlaceOrder(context.Background(), 42, placeOrderRequest())
	require.Error(t, err)

	var rejected *payment.RejectedError
	require.True(t, errors.As(err, &rejected))

	// No money moved; the pending order and its stock reservation go away,
	// the cart stays as it was
	assert.True(t, orders.discarded)
	assert.False(t, orders.markedFailed)
	assert.False(t, orders.finalized)
	assert.True(t, locker.released)
}

func TestPlaceOrderUnreachableDiscardsOrder(t *testing.T) {
	gateway := &fakeGateway{err: payment.ErrPaymentUnreachable}
	service, orders, _ := newTestService(gateway)

	_, err := service.PlaceOrder(context.Background(), 42, placeOrderRequest())
	require.ErrorIs(t, err, payment.ErrPaymentUnreachable)

	assert.True(t, orders.discarded)
	assert.False(t, orders.markedFailed)
	assert.False(t, orders.finalized)
}

func TestPlaceOrderSerializedPerUser(t *testing.T) {
	gateway := &fakeGateway{result: &payment.ChargeResult{TransactionID: "txn-001"}}
	service, orders, locker := newTestService(gateway)
	locker.acquired = false

	_, err := service.PlaceOrder(context.Background(), 42, placeOrderRequest())
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	assert.Equal(t, 0, orders.createCalls)
	assert.False(t, locker.released, "a lock we never held must not be released")
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	gateway := &fakeGateway{result: &payment.ChargeResult{TransactionID: "txn-001"}}
	service, orders, locker := newTestService(gateway)
	service.cartService = &fakeCarts{err: cart.ErrEmptyCart}

	_, err := service.PlaceOrder(context.Background(), 42, placeOrderRequest())
	assert.ErrorIs(t, err, cart.ErrEmptyCart)
	assert.Equal(t, 0, orders.createCalls)
	assert.True(t, locker.released)
}
