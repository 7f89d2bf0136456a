// internal/domain/payment/gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fincart/backend/internal/config"
	"github.com/shopspring/decimal"
)

var (
	// ErrPaymentTimeout is returned when the wallet service did not answer
	// within the configured deadline. The charge outcome is unknown.
	ErrPaymentTimeout = errors.New("payment request timed out")

	// ErrPaymentUnreachable is returned when the wallet service could not
	// be reached at all. No charge was made.
	ErrPaymentUnreachable = errors.New("payment service unreachable")
)

// RejectedError indicates the wallet service refused the charge, for example
// because of insufficient balance. The detail comes from the service.
type RejectedError struct {
	Detail string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("payment rejected: %s", e.Detail)
}

// GatewayError indicates the wallet service answered with something this
// client could not interpret.
type GatewayError struct {
	Detail string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error: %s", e.Detail)
}

// IsTransient reports whether an error leaves the charge outcome unknown.
// Transient failures must not discard the order; a later reconciliation may
// find the money moved.
func IsTransient(err error) bool {
	var gatewayErr *GatewayError
	return errors.Is(err, ErrPaymentTimeout) || errors.As(err, &gatewayErr)
}

// ChargeRequest represents a debit to apply to a user's wallet. ReferenceID
// is the order's database ID, which the wallet records for reconciliation.
type ChargeRequest struct {
	UserID      uint
	Amount      decimal.Decimal
	ReferenceID uint
	Description string
}

// ChargeResult represents a successful wallet debit as the wallet service
// reports it: its transaction id plus the echoed reference.
type ChargeResult struct {
	TransactionID string `json:"id"`
	Reference     uint   `json:"reference"`
}

// Gateway charges users for their orders
type Gateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}

// WalletGateway talks to the external wallet service over HTTP. One request
// per charge; retries are the caller's decision, never this adapter's.
type WalletGateway struct {
	baseURL  string
	apiToken string
	currency string
	client   *http.Client
}

// NewWalletGateway creates a wallet gateway from config
func NewWalletGateway(cfg *config.Config) *WalletGateway {
	return &WalletGateway{
		baseURL:  cfg.Wallet.BaseURL,
		apiToken: cfg.Wallet.APIToken,
		currency: cfg.Wallet.Currency,
		client: &http.Client{
			Timeout: cfg.Wallet.Timeout,
		},
	}
}

type debitRequest struct {
	UserID      uint   `json:"user_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	ReferenceID uint   `json:"reference_id"`
	Description string `json:"description"`
}

type debitErrorResponse struct {
	Detail string `json:"detail"`
}

// Charge debits the user's wallet for the given amount
func (g *WalletGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	payload := debitRequest{
		UserID:      req.UserID,
		Amount:      req.Amount.StringFixed(3),
		Currency:    g.currency,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode debit request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/transactions/debit", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build debit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiToken)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var rejection debitErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&rejection); err != nil || rejection.Detail == "" {
			return nil, &GatewayError{Detail: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
		}
		return nil, &RejectedError{Detail: rejection.Detail}
	}

	var result ChargeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &GatewayError{Detail: fmt.Sprintf("malformed response: %v", err)}
	}

	return &result, nil
}

// classifyTransportError separates "no answer in time" from "could not
// reach". A timeout leaves the outcome unknown; a connection failure means
// no money moved.
func classifyTransportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ErrPaymentTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrPaymentTimeout
	}
	return ErrPaymentUnreachable
}
