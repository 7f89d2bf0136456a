// internal/domain/order/service_test.go
package order

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fincart/backend/internal/config"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Order.NumberPrefix = "FC"
	cfg.Order.NumberDigits = 8
	cfg.Order.MaxNumberAttempts = 5
	return cfg
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "idx_orders_order_number"}
}

func TestInsertWithUniqueNumber(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewService(db, testConfig(), nil, nil)

	mock.ExpectExec(`SAVEPOINT order_number`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	o := &Order{UserID: 42}
	require.NoError(t, service.insertWithUniqueNumber(db, o))
	assert.Regexp(t, `^FC\d{8}$`, o.OrderNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertWithUniqueNumberRerollsOnCollision(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewService(db, testConfig(), nil, nil)

	// A concurrent insert can win the same number after any pre-check, so
	// the collision shows up as a unique violation on the insert itself
	mock.ExpectExec(`SAVEPOINT order_number`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "orders"`).WillReturnError(uniqueViolation())
	mock.ExpectExec(`ROLLBACK TO SAVEPOINT order_number`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SAVEPOINT order_number`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	o := &Order{UserID: 42}
	require.NoError(t, service.insertWithUniqueNumber(db, o))
	assert.Regexp(t, `^FC\d{8}$`, o.OrderNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertWithUniqueNumberGivesUpAfterCollisions(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewService(db, testConfig(), nil, nil)

	for i := 0; i < 5; i++ {
		mock.ExpectExec(`SAVEPOINT order_number`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`INSERT INTO "orders"`).WillReturnError(uniqueViolation())
		mock.ExpectExec(`ROLLBACK TO SAVEPOINT order_number`).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	err := service.insertWithUniqueNumber(db, &Order{UserID: 42})
	assert.ErrorIs(t, err, ErrOrderCreationFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertWithUniqueNumberDoesNotRetryOtherErrors(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewService(db, testConfig(), nil, nil)

	mock.ExpectExec(`SAVEPOINT order_number`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnError(&pgconn.PgError{Code: "23502", Message: "null value"})

	err := service.insertWithUniqueNumber(db, &Order{UserID: 42})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOrderCreationFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaymentFailedIsAtomic(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewService(db, testConfig(), nil, nil)

	// Status update and audit note commit together
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "order_status_history"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))
	mock.ExpectCommit()

	require.NoError(t, service.MarkPaymentFailed(1, "Payment failed: timed out"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelPaidOrderOpensFullRefund(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewService(db, testConfig(), nil, nil)

	// Preload order is not deterministic, so expectations match by query
	// shape rather than position
	mock.MatchExpectationsInOrder(false)

	fullOrder := func(status OrderStatus) *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "order_number", "user_id", "status", "payment_status",
			"total_amount", "currency", "shipping_address_id", "billing_address_id",
		}).AddRow(1, "FC12345678", 42, string(status), string(PaymentStatusPaid),
			"38.125", "GHS", 5, 5)
	}
	itemRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "order_id", "product_id", "seller_id", "product_name",
			"product_sku", "quantity", "unit_price", "total_price",
		}).AddRow(11, 1, 3, 2, "Power bank", "PB-001", 1, "25.00", "25.00")
	}
	addressRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "user_id", "city", "country"}).
			AddRow(5, 42, "Accra", "GH")
	}
	emptyHistory := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "order_id", "status"})
	}
	emptyRefunds := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "order_id", "amount", "status"})
	}

	// Initial lookup with preloads
	mock.ExpectQuery(`SELECT (.+) FROM "orders"`).WillReturnRows(fullOrder(OrderStatusConfirmed))
	mock.ExpectQuery(`SELECT (.+) FROM "order_items"`).WillReturnRows(itemRows())
	mock.ExpectQuery(`SELECT (.+) FROM "addresses"`).WillReturnRows(addressRows())
	mock.ExpectQuery(`SELECT (.+) FROM "addresses"`).WillReturnRows(addressRows())
	mock.ExpectQuery(`SELECT (.+) FROM "order_status_history"`).WillReturnRows(emptyHistory())
	mock.ExpectQuery(`SELECT (.+) FROM "order_refunds" WHERE`).WillReturnRows(emptyRefunds())

	mock.ExpectBegin()
	// Inventory restore reads the frozen items and puts the stock back
	mock.ExpectQuery(`SELECT (.+) FROM "order_items"`).WillReturnRows(itemRows())
	mock.ExpectExec(`UPDATE "products"`).WillReturnResult(sqlmock.NewResult(0, 1))
	// Transition to cancelled with its history row
	mock.ExpectExec(`UPDATE "orders"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "order_status_history"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	// Full refund entry for the paid amount
	mock.ExpectQuery(`SELECT SUM\(amount\) FROM "order_refunds"`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))
	mock.ExpectQuery(`INSERT INTO "order_refunds"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
	mock.ExpectCommit()

	// Reload after commit
	mock.ExpectQuery(`SELECT (.+) FROM "orders"`).WillReturnRows(fullOrder(OrderStatusCancelled))
	mock.ExpectQuery(`SELECT (.+) FROM "order_items"`).WillReturnRows(itemRows())
	mock.ExpectQuery(`SELECT (.+) FROM "addresses"`).WillReturnRows(addressRows())
	mock.ExpectQuery(`SELECT (.+) FROM "addresses"`).WillReturnRows(addressRows())
	mock.ExpectQuery(`SELECT (.+) FROM "order_status_history"`).WillReturnRows(emptyHistory())
	mock.ExpectQuery(`SELECT (.+) FROM "order_refunds" WHERE`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "order_id", "amount", "status"}).
			AddRow(31, 1, "38.125", string(RefundStatusPending)))

	cancelled, err := service.Cancel(1, 42, false, "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, OrderStatusCancelled, cancelled.Status)
	require.Len(t, cancelled.Refunds, 1)
	assert.Equal(t, RefundStatusPending, cancelled.Refunds[0].Status)
	assert.True(t, cancelled.Refunds[0].Amount.Equal(decimal.RequireFromString("38.125")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRejectedOnceFulfillmentStarted(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewService(db, testConfig(), nil, nil)
	mock.MatchExpectationsInOrder(false)

	rows := sqlmock.NewRows([]string{"id", "user_id", "status", "payment_status", "total_amount"}).
		AddRow(1, 42, string(OrderStatusShipped), string(PaymentStatusPaid), "38.125")
	mock.ExpectQuery(`SELECT (.+) FROM "orders"`).WillReturnRows(rows)
	mock.ExpectQuery(`SELECT (.+) FROM "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "addresses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "addresses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "order_status_history"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "order_refunds"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}))

	_, err := service.Cancel(1, 42, false, "")
	assert.ErrorIs(t, err, ErrOrderNotCancellable)
}

func TestGetOrderHidesOtherUsersOrders(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewService(db, testConfig(), nil, nil)
	mock.MatchExpectationsInOrder(false)

	rows := sqlmock.NewRows([]string{"id", "user_id", "status", "payment_status", "total_amount"}).
		AddRow(1, 42, string(OrderStatusConfirmed), string(PaymentStatusPaid), "38.125")
	mock.ExpectQuery(`SELECT (.+) FROM "orders"`).WillReturnRows(rows)
	mock.ExpectQuery(`SELECT (.+) FROM "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "addresses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "addresses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "order_status_history"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "order_refunds"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}))

	// Requester 99 does not own order 1; the mismatch reads as not found
	_, err := service.GetOrder(1, 99, false)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
