// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fincart/backend/internal/config"
	"github.com/fincart/backend/internal/domain/cart"
	"github.com/fincart/backend/internal/domain/order"
	"github.com/fincart/backend/internal/domain/payment"
	"github.com/fincart/backend/internal/domain/user"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrCheckoutInProgress is returned when the user already has a checkout
// running. Order creation is serialized per user so one cart cannot produce
// two orders.
var ErrCheckoutInProgress = errors.New("checkout already in progress")

// CartResolver resolves the buyer's cart for checkout
type CartResolver interface {
	Checkout(userID uint) (*cart.Cart, error)
}

// OrderManager is the slice of the order service the checkout flow drives
type OrderManager interface {
	CreateFromCart(userID uint, req *order.CreateOrderRequest) (*order.Order, error)
	FinalizePaid(orderID uint, paymentReference string, cartID uint) (*order.Order, error)
	MarkPaymentFailed(orderID uint, notes string) error
	Discard(orderID uint) error
}

// Locker serializes checkouts per user
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// Service orchestrates the checkout flow: order creation, wallet charge and
// payment finalization.
type Service struct {
	config       *config.Config
	cartService  CartResolver
	orderService OrderManager
	gateway      payment.Gateway
	locks        Locker
	logger       *logrus.Logger
}

// NewService creates a new checkout service
func NewService(
	cfg *config.Config,
	cartService CartResolver,
	orderService OrderManager,
	gateway payment.Gateway,
	locks Locker,
	logger *logrus.Logger,
) *Service {
	return &Service{
		config:       cfg,
		cartService:  cartService,
		orderService: orderService,
		gateway:      gateway,
		locks:        locks,
		logger:       logger,
	}
}

// Summary previews the checkout before the user commits
type Summary struct {
	Cart           *cart.CartResponse `json:"cart"`
	Addresses      []user.Address     `json:"addresses"`
	ShippingAmount decimal.Decimal    `json:"shipping_amount"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
}

// GetSummary computes the checkout preview for the user's current cart
func (s *Service) GetSummary(userID uint, shippingMethod string, addresses []user.Address) (*Summary, error) {
	resolvedCart, err := s.cartService.Checkout(userID)
	if err != nil {
		return nil, err
	}

	subtotal := order.Subtotal(resolvedCart.Items)
	shipping := order.ShippingCost(shippingMethod)
	tax := order.Tax(subtotal, s.config.Order.TaxRate)
	total := order.Total(subtotal, shipping, tax, decimal.Zero)

	return &Summary{
		Cart: &cart.CartResponse{
			Cart:          resolvedCart,
			ItemCount:     len(resolvedCart.Items),
			TotalQuantity: resolvedCart.TotalQuantity(),
			Subtotal:      subtotal,
		},
		Addresses:      addresses,
		ShippingAmount: shipping,
		TaxAmount:      tax,
		TotalAmount:    total,
	}, nil
}

// PlaceOrder runs the full checkout. The pending order is created and
// committed before the wallet is contacted, so a crash mid-charge leaves an
// auditable order rather than an orphaned debit. The charge itself runs
// outside any database transaction.
//
// Outcomes:
//   - charge succeeded: order is paid and confirmed, cart cleared
//   - charge rejected or wallet unreachable: no money moved, the pending
//     order is discarded and inventory restored
//   - timeout or unclassifiable answer: outcome unknown, the order is kept
//     with a failed payment status for reconciliation
//
// The cart is only cleared on success.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, req *order.CreateOrderRequest) (*order.Order, error) {
	lockKey := fmt.Sprintf("checkout:lock:%d", userID)
	acquired, err := s.locks.AcquireLock(ctx, lockKey, s.config.Order.CheckoutLockExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}
	if !acquired {
		return nil, ErrCheckoutInProgress
	}
	defer func() {
		if err := s.locks.ReleaseLock(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).
				Warn("failed to release checkout lock")
		}
	}()

	resolvedCart, err := s.cartService.Checkout(userID)
	if err != nil {
		return nil, err
	}

	pendingOrder, err := s.orderService.CreateFromCart(userID, req)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"order_id":     pendingOrder.ID,
		"order_number": pendingOrder.OrderNumber,
	})

	result, chargeErr := s.gateway.Charge(ctx, &payment.ChargeRequest{
		UserID:      userID,
		Amount:      pendingOrder.TotalAmount,
		ReferenceID: pendingOrder.ID,
		Description: fmt.Sprintf("Payment for order %s", pendingOrder.OrderNumber),
	})
	if chargeErr != nil {
		return nil, s.handleChargeFailure(log, pendingOrder, chargeErr)
	}

	finalized, err := s.orderService.FinalizePaid(pendingOrder.ID, result.TransactionID, resolvedCart.ID)
	if err != nil {
		log.WithError(err).Error("payment succeeded but finalization failed")
		return nil, err
	}

	log.WithField("transaction_id", result.TransactionID).Info("order placed")
	return finalized, nil
}

// handleChargeFailure applies the compensation that matches what we know
// about the money.
func (s *Service) handleChargeFailure(log *logrus.Entry, pendingOrder *order.Order, chargeErr error) error {
	if payment.IsTransient(chargeErr) {
		// Outcome unknown. Keep the order so reconciliation has something
		// to match a stray debit against.
		log.WithError(chargeErr).Warn("payment outcome unknown, keeping order for reconciliation")
		if err := s.orderService.MarkPaymentFailed(pendingOrder.ID,
			fmt.Sprintf("Payment failed: %v", chargeErr)); err != nil {
			log.WithError(err).Error("failed to mark payment failed")
		}
		return chargeErr
	}

	// Definitive failure: nothing was charged, the order has no reason to
	// exist.
	log.WithError(chargeErr).Info("payment failed, discarding order")
	if err := s.orderService.Discard(pendingOrder.ID); err != nil {
		log.WithError(err).Error("failed to discard order after payment failure")
	}
	return chargeErr
}
