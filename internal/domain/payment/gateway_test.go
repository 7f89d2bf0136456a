// internal/domain/payment/gateway_test.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fincart/backend/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(baseURL string, timeout time.Duration) *WalletGateway {
	cfg := &config.Config{}
	cfg.Wallet.BaseURL = baseURL
	cfg.Wallet.APIToken = "test-token"
	cfg.Wallet.Currency = "GHS"
	cfg.Wallet.Timeout = timeout
	return NewWalletGateway(cfg)
}

func chargeRequest() *ChargeRequest {
	return &ChargeRequest{
		UserID:      42,
		Amount:      decimal.RequireFromString("38.125"),
		ReferenceID: 1007,
		Description: "Payment for order FC12345678",
	}
}

func TestChargeSuccess(t *testing.T) {
	var captured struct {
		method string
		path   string
		auth   string
		body   map[string]interface{}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.body))

		// The wallet answers with its transaction id and the echoed reference
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":        "txn-001",
			"reference": 1007,
		})
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL, 5*time.Second)
	result, err := gateway.Charge(context.Background(), chargeRequest())
	require.NoError(t, err)

	assert.Equal(t, "txn-001", result.TransactionID)
	assert.Equal(t, uint(1007), result.Reference)
	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/transactions/debit", captured.path)
	assert.Equal(t, "Bearer test-token", captured.auth)
	assert.Equal(t, "38.125", captured.body["amount"])
	assert.Equal(t, "GHS", captured.body["currency"])
	assert.Equal(t, float64(1007), captured.body["reference_id"])
}

func TestChargeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Insufficient balance"})
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL, 5*time.Second)
	_, err := gateway.Charge(context.Background(), chargeRequest())
	require.Error(t, err)

	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "Insufficient balance", rejected.Detail)
	assert.False(t, IsTransient(err), "a rejection is a definitive outcome")
}

func TestChargeErrorWithoutDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL, 5*time.Second)
	_, err := gateway.Charge(context.Background(), chargeRequest())
	require.Error(t, err)

	var gatewayErr *GatewayError
	require.True(t, errors.As(err, &gatewayErr))
	assert.True(t, IsTransient(err), "an uninterpretable answer leaves the outcome unknown")
}

func TestChargeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL, 5*time.Second)
	_, err := gateway.Charge(context.Background(), chargeRequest())
	require.Error(t, err)

	var gatewayErr *GatewayError
	assert.True(t, errors.As(err, &gatewayErr))
	assert.True(t, IsTransient(err))
}

func TestChargeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL, 50*time.Millisecond)
	_, err := gateway.Charge(context.Background(), chargeRequest())
	require.ErrorIs(t, err, ErrPaymentTimeout)
	assert.True(t, IsTransient(err), "a timeout leaves the outcome unknown")
}

func TestChargeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	gateway := newTestGateway(server.URL, time.Second)
	_, err := gateway.Charge(context.Background(), chargeRequest())
	require.ErrorIs(t, err, ErrPaymentUnreachable)
	assert.False(t, IsTransient(err), "connection refused means no money moved")
}
