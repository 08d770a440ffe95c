package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/config"
	"github.com/greenmart/groceryapi/internal/domain"
)

// ChargeStatus is the gateway's verdict on a charge attempt.
type ChargeStatus string

const (
	ChargeStatusCompleted ChargeStatus = "completed"
	ChargeStatusFailed    ChargeStatus = "failed"
)

// Charger is the boundary this service depends on; the HTTP client below
// is the production implementation.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (*ChargeResult, error)
}

// Card carries the details needed for a single charge. It is passed
// through to the gateway and never persisted.
type Card struct {
	Number      string `json:"number" binding:"required"`
	ExpiryMonth string `json:"expiry_month" binding:"required"`
	ExpiryYear  string `json:"expiry_year" binding:"required"`
	CVV         string `json:"cvv" binding:"required"`
	HolderName  string `json:"holder_name" binding:"required"`
}

// Brand guesses the card network from the leading digit. Display use
// only; the gateway does its own validation.
func (c Card) Brand() string {
	switch {
	case strings.HasPrefix(c.Number, "4"):
		return "visa"
	case strings.HasPrefix(c.Number, "5"):
		return "mastercard"
	case strings.HasPrefix(c.Number, "3"):
		return "amex"
	default:
		return "card"
	}
}

// Last4 returns the trailing digits safe to store.
func (c Card) Last4() string {
	if len(c.Number) < 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

type ChargeRequest struct {
	Amount          decimal.Decimal
	Card            Card
	InvoiceNumber   string
	BillingAddress  domain.Address
	ShippingAddress domain.Address
}

type ChargeResult struct {
	Status         ChargeStatus
	TransactionID  string
	AuthCode       string
	FailureMessage string
}

type Client struct {
	baseURL    string
	merchantID string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a card gateway client. The configured timeout bounds
// every charge round-trip; expiry is reported as a failure, never as
// success.
func NewClient(cfg config.GatewayConfig, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	baseURL = strings.TrimSuffix(baseURL, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		merchantID: cfg.MerchantID,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type chargePayload struct {
	MerchantID      string          `json:"merchant_id"`
	Amount          string          `json:"amount"`
	Currency        string          `json:"currency"`
	InvoiceNumber   string          `json:"invoice_number"`
	Card            Card            `json:"card"`
	BillingAddress  domain.Address  `json:"billing_address"`
	ShippingAddress domain.Address  `json:"shipping_address"`
}

type chargeResponse struct {
	Status         string `json:"status"`
	TransactionID  string `json:"transaction_id"`
	AuthCode       string `json:"auth_code"`
	FailureMessage string `json:"failure_message"`
}

// Charge submits a card charge synchronously. A transport error or
// timeout yields an error; a declined card yields a failed ChargeResult.
func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	payload := chargePayload{
		MerchantID:      c.merchantID,
		Amount:          req.Amount.StringFixed(2),
		Currency:        "USD",
		InvoiceNumber:   req.InvoiceNumber,
		Card:            req.Card,
		BillingAddress:  req.BillingAddress,
		ShippingAddress: req.ShippingAddress,
	}

	return c.post(ctx, "/v1/charges", payload)
}

// Refund reverses a completed charge.
func (c *Client) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (*ChargeResult, error) {
	payload := map[string]string{
		"merchant_id":    c.merchantID,
		"transaction_id": transactionID,
		"amount":         amount.StringFixed(2),
	}

	return c.post(ctx, "/v1/refunds", payload)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*ChargeResult, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var gatewayResp chargeResponse
	if err := json.Unmarshal(body, &gatewayResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	result := &ChargeResult{
		TransactionID:  gatewayResp.TransactionID,
		AuthCode:       gatewayResp.AuthCode,
		FailureMessage: gatewayResp.FailureMessage,
	}

	// Anything other than an explicit completed status is a failure.
	if gatewayResp.Status == string(ChargeStatusCompleted) {
		result.Status = ChargeStatusCompleted
	} else {
		result.Status = ChargeStatusFailed
	}

	return result, nil
}
