package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/config"
)

func TestCardBrand(t *testing.T) {
	assert.Equal(t, "visa", Card{Number: "4111111111111111"}.Brand())
	assert.Equal(t, "mastercard", Card{Number: "5500000000000004"}.Brand())
	assert.Equal(t, "amex", Card{Number: "340000000000009"}.Brand())
	assert.Equal(t, "card", Card{Number: "6011000000000004"}.Brand())
}

func TestCardLast4(t *testing.T) {
	assert.Equal(t, "1111", Card{Number: "4111111111111111"}.Last4())
	assert.Equal(t, "123", Card{Number: "123"}.Last4())
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.GatewayConfig{
		BaseURL:    server.URL,
		MerchantID: "merchant-1",
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
	}, zap.NewNop())
	return client, server
}

func TestChargeCompleted(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/charges", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "merchant-1", payload["merchant_id"])
		assert.Equal(t, "120.00", payload["amount"])
		assert.Equal(t, "INV-2025-000003", payload["invoice_number"])

		json.NewEncoder(w).Encode(map[string]string{
			"status":         "completed",
			"transaction_id": "txn-99",
			"auth_code":      "A1B2",
		})
	})

	result, err := client.Charge(context.Background(), ChargeRequest{
		Amount:        decimal.NewFromInt(120),
		Card:          Card{Number: "4111111111111111"},
		InvoiceNumber: "INV-2025-000003",
	})
	require.NoError(t, err)
	assert.Equal(t, ChargeStatusCompleted, result.Status)
	assert.Equal(t, "txn-99", result.TransactionID)
	assert.Equal(t, "A1B2", result.AuthCode)
}

// Any status other than an explicit "completed" is treated as failed.
func TestChargeDeclined(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"status":          "declined",
			"failure_message": "insufficient funds",
		})
	})

	result, err := client.Charge(context.Background(), ChargeRequest{Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.Equal(t, ChargeStatusFailed, result.Status)
	assert.Equal(t, "insufficient funds", result.FailureMessage)
}

func TestChargeNon200IsError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Charge(context.Background(), ChargeRequest{Amount: decimal.NewFromInt(10)})
	assert.Error(t, err)
}

func TestRefund(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "txn-99", payload["transaction_id"])
		assert.Equal(t, "120.00", payload["amount"])

		json.NewEncoder(w).Encode(map[string]string{
			"status":         "completed",
			"transaction_id": "txn-99",
		})
	})

	result, err := client.Refund(context.Background(), "txn-99", decimal.NewFromInt(120))
	require.NoError(t, err)
	assert.Equal(t, ChargeStatusCompleted, result.Status)
}
