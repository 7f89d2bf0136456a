// internal/domain/order/refund_service_test.go
package order

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fincart/backend/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func orderRows(status OrderStatus, paymentStatus PaymentStatus, total string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "order_number", "user_id", "status", "payment_status", "total_amount", "currency"}).
		AddRow(1, "FC12345678", 42, string(status), string(paymentStatus), total, "GHS")
}

func TestCreateRefundWithinBalance(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewRefundService(db, &config.Config{}, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "orders" WHERE (.+)FOR UPDATE`).
		WillReturnRows(orderRows(OrderStatusDelivered, PaymentStatusPaid, "31.125"))
	mock.ExpectQuery(`SELECT SUM\(amount\) FROM "order_refunds"`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))
	mock.ExpectQuery(`INSERT INTO "order_refunds"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	refund, err := service.CreateRefund(1, &CreateRefundRequest{
		Amount: decimal.RequireFromString("20.000"),
		Reason: "Damaged on arrival",
	}, 9)
	require.NoError(t, err)

	assert.Equal(t, RefundStatusPending, refund.Status)
	assert.Regexp(t, `^RF-[0-9A-F]{12}$`, refund.RefundReference)
	assert.True(t, refund.Amount.Equal(decimal.RequireFromString("20.000")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefundExceedsBalance(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewRefundService(db, &config.Config{}, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "orders" WHERE (.+)FOR UPDATE`).
		WillReturnRows(orderRows(OrderStatusDelivered, PaymentStatusPaid, "31.125"))
	// 20.000 already held by earlier entries, only 11.125 left
	mock.ExpectQuery(`SELECT SUM\(amount\) FROM "order_refunds"`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("20.000"))
	mock.ExpectRollback()

	_, err := service.CreateRefund(1, &CreateRefundRequest{
		Amount: decimal.RequireFromString("15.000"),
		Reason: "Second refund attempt",
	}, 9)
	require.Error(t, err)

	var exceeds *RefundExceedsBalanceError
	require.True(t, errors.As(err, &exceeds))
	assert.True(t, exceeds.Requested.Equal(decimal.RequireFromString("15.000")))
	assert.True(t, exceeds.Available.Equal(decimal.RequireFromString("11.125")), "got %s", exceeds.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefundPendingEntriesHoldBalance(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewRefundService(db, &config.Config{}, nil)

	// A pending entry consumes the full total, so even a minimal second
	// refund must be rejected
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "orders" WHERE (.+)FOR UPDATE`).
		WillReturnRows(orderRows(OrderStatusDelivered, PaymentStatusPaid, "31.125"))
	mock.ExpectQuery(`SELECT SUM\(amount\) FROM "order_refunds"`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("31.125"))
	mock.ExpectRollback()

	_, err := service.CreateRefund(1, &CreateRefundRequest{
		Amount: decimal.RequireFromString("0.001"),
		Reason: "Second refund on an exhausted balance",
	}, 9)

	var exceeds *RefundExceedsBalanceError
	require.True(t, errors.As(err, &exceeds))
	assert.True(t, exceeds.Available.Equal(decimal.Zero))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefundRejectsUnpaidOrder(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewRefundService(db, &config.Config{}, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "orders" WHERE (.+)FOR UPDATE`).
		WillReturnRows(orderRows(OrderStatusConfirmed, PaymentStatusPending, "31.125"))
	mock.ExpectRollback()

	_, err := service.CreateRefund(1, &CreateRefundRequest{
		Amount: decimal.RequireFromString("10.000"),
		Reason: "No payment yet",
	}, 9)
	assert.ErrorIs(t, err, ErrOrderNotRefundable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefundRejectsNonPositiveAmount(t *testing.T) {
	db, _ := newMockDB(t)
	service := NewRefundService(db, &config.Config{}, nil)

	_, err := service.CreateRefund(1, &CreateRefundRequest{
		Amount: decimal.Zero,
		Reason: "Zero amount",
	}, 9)
	assert.Error(t, err)

	_, err = service.CreateRefund(1, &CreateRefundRequest{
		Amount: decimal.RequireFromString("-5"),
		Reason: "Negative amount",
	}, 9)
	assert.Error(t, err)
}

func TestCreateRefundOrderNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewRefundService(db, &config.Config{}, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "orders" WHERE (.+)FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := service.CreateRefund(404, &CreateRefundRequest{
		Amount: decimal.RequireFromString("10.000"),
		Reason: "Missing order",
	}, 9)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
