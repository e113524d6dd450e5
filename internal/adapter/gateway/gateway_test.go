package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"installment-platform/config"
	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatewayConfig(url string) config.GatewayConfig {
	return config.GatewayConfig{Address: url, Key: "test-key", Timeout: 2 * time.Second}
}

func TestMidtransChargeCaptured(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/charge", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"transaction_id": "mt-123",
			"transaction_status": "capture",
			"payment_type": "credit_card",
			"transaction_time": "2025-06-01 10:30:00"
		}`))
	}))
	defer server.Close()

	gw := NewMidtransGateway(gatewayConfig(server.URL), zerolog.Nop())
	result, err := gw.Charge(context.Background(), ports.ChargeRequest{
		OrderID:   "2-T.ABC123-1",
		Amount:    10025,
		CardToken: "tok-1",
	})

	require.NoError(t, err)
	assert.True(t, result.Captured())
	assert.Equal(t, "mt-123", result.PaymentID)
	assert.Equal(t, "credit_card", result.Method)
	// Basic base64("test-key:")
	assert.Equal(t, "Basic dGVzdC1rZXk6", gotAuth)
	details := gotBody["transaction_details"].(map[string]any)
	assert.Equal(t, "2-T.ABC123-1", details["order_id"])
	assert.EqualValues(t, 10025, details["gross_amount"])
}

func TestMidtransChargeDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transaction_status": "deny", "status_message": "card declined"}`))
	}))
	defer server.Close()

	gw := NewMidtransGateway(gatewayConfig(server.URL), zerolog.Nop())
	result, err := gw.Charge(context.Background(), ports.ChargeRequest{OrderID: "o", Amount: 1, CardToken: "t"})

	require.NoError(t, err)
	assert.Equal(t, ports.ChargeDeclined, result.Outcome)
	assert.Equal(t, "card declined", result.Reason)
}

func TestMidtransChargeNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	gw := NewMidtransGateway(gatewayConfig(server.URL), zerolog.Nop())
	result, err := gw.Charge(context.Background(), ports.ChargeRequest{OrderID: "o", Amount: 1, CardToken: "t"})

	require.NoError(t, err)
	assert.Equal(t, ports.ChargeNetworkError, result.Outcome)
}

func TestMidtransCancel(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"status_code": "200"}`))
	}))
	defer server.Close()

	gw := NewMidtransGateway(gatewayConfig(server.URL), zerolog.Nop())
	require.NoError(t, gw.Cancel(context.Background(), "2-T.ABC123-1"))
	assert.Equal(t, "/2-T.ABC123-1/cancel", gotPath)
}

func TestXenditChargeCaptured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/credit_card_charges", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "xd-9", "status": "CAPTURED", "created": "2025-06-01T10:30:00Z"}`))
	}))
	defer server.Close()

	gw := NewXenditGateway(gatewayConfig(server.URL), zerolog.Nop())
	result, err := gw.Charge(context.Background(), ports.ChargeRequest{OrderID: "o", Amount: 1, CardToken: "t", AuthID: "auth"})

	require.NoError(t, err)
	assert.True(t, result.Captured())
	assert.Equal(t, "xd-9", result.PaymentID)
}

func TestXenditChargeFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status": "FAILED", "failure_reason": "INSUFFICIENT_BALANCE"}`))
	}))
	defer server.Close()

	gw := NewXenditGateway(gatewayConfig(server.URL), zerolog.Nop())
	result, err := gw.Charge(context.Background(), ports.ChargeRequest{OrderID: "o", Amount: 1, CardToken: "t"})

	require.NoError(t, err)
	assert.Equal(t, ports.ChargeDeclined, result.Outcome)
	assert.Equal(t, "INSUFFICIENT_BALANCE", result.Reason)
}

func TestResolver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	midtrans := NewMidtransGateway(gatewayConfig(server.URL), zerolog.Nop())
	xendit := NewXenditGateway(gatewayConfig(server.URL), zerolog.Nop())
	resolver := NewResolver(midtrans, xendit)

	got, err := resolver.For(domain.GatewayMidtrans)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayMidtrans, got.Name())

	got, err = resolver.For(domain.GatewayXendit)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayXendit, got.Name())

	_, err = resolver.For(domain.GatewayDana)
	assert.Error(t, err)
}

func TestBreakerOpensAfterConsecutiveNetworkFailures(t *testing.T) {
	inner := &outcomeGateway{result: ports.ChargeResult{
		Outcome: ports.ChargeNetworkError,
		Reason:  "connection refused",
	}}
	gw := WithBreaker(inner, zerolog.Nop())

	// The adapters report outages as a network outcome with a nil
	// error; the breaker must still count them as failures.
	for i := 0; i < 5; i++ {
		result, err := gw.Charge(context.Background(), ports.ChargeRequest{OrderID: "o", Amount: 1})
		require.NoError(t, err)
		assert.Equal(t, ports.ChargeNetworkError, result.Outcome)
		assert.Equal(t, "connection refused", result.Reason)
	}
	assert.Equal(t, 5, inner.calls)

	// Sixth call must be short-circuited without reaching the provider.
	result, err := gw.Charge(context.Background(), ports.ChargeRequest{OrderID: "o", Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, ports.ChargeNetworkError, result.Outcome)
	assert.Equal(t, "circuit open", result.Reason)
	assert.Equal(t, 5, inner.calls)
}

func TestBreakerStaysClosedOnDeclines(t *testing.T) {
	inner := &outcomeGateway{result: ports.ChargeResult{
		Outcome: ports.ChargeDeclined,
		Reason:  "card declined",
	}}
	gw := WithBreaker(inner, zerolog.Nop())

	for i := 0; i < 10; i++ {
		result, err := gw.Charge(context.Background(), ports.ChargeRequest{OrderID: "o", Amount: 1})
		require.NoError(t, err)
		assert.Equal(t, ports.ChargeDeclined, result.Outcome)
	}

	// Every call reached the provider; declines never open the circuit.
	assert.Equal(t, 10, inner.calls)
}

func TestVAIssue(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/virtual-accounts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"account_number": "8808123456789"}`))
	}))
	defer server.Close()

	issuer := NewVAClient(gatewayConfig(server.URL), zerolog.Nop())
	result, err := issuer.Issue(context.Background(), ports.VARequest{
		Number:     "T.ABC123",
		TermNumber: 2,
		Amount:     10000,
		DueDate:    time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, "8808123456789", result.PaymentID)
	assert.Equal(t, "vabni", result.Method)
	assert.Equal(t, "T.ABC123-2", gotBody["external_id"])
	assert.Equal(t, "2025-06-15", gotBody["expiry_date"])
}

// outcomeGateway answers every charge with a fixed result and a nil
// error, the way the provider adapters do.
type outcomeGateway struct {
	result ports.ChargeResult
	calls  int
}

func (f *outcomeGateway) Name() domain.Gateway { return domain.GatewayMidtrans }

func (f *outcomeGateway) Charge(ctx context.Context, req ports.ChargeRequest) (ports.ChargeResult, error) {
	f.calls++
	return f.result, nil
}

func (f *outcomeGateway) Cancel(ctx context.Context, orderID string) error {
	return nil
}
