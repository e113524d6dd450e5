package ports

import (
	"context"
	"encoding/json"
	"time"

	"installment-platform/internal/core/domain"
)

// ChargeOutcome is the tri-state result of a gateway charge attempt.
// NetworkError is distinct from Declined for observability, but the
// orchestrator rolls back identically for both.
type ChargeOutcome int

const (
	ChargeCaptured ChargeOutcome = iota
	ChargeDeclined
	ChargeNetworkError
)

// ChargeRequest is the normalized charge input across providers.
type ChargeRequest struct {
	OrderID   string
	Amount    int64
	CardToken string
	AuthID    string
}

// ChargeResult is the normalized provider response.
type ChargeResult struct {
	Outcome   ChargeOutcome
	PaymentID string
	Method    string
	Time      time.Time
	Reason    string
	Raw       json.RawMessage
}

// Captured reports whether funds were taken.
func (r ChargeResult) Captured() bool {
	return r.Outcome == ChargeCaptured
}

// PaymentGateway is one external charge provider. Each implementation
// hides its own authentication scheme and wire format.
type PaymentGateway interface {
	Name() domain.Gateway
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	// Cancel reverses a captured charge during compensation.
	Cancel(ctx context.Context, orderID string) error
}

// GatewayResolver selects the provider for a stored payment method.
type GatewayResolver interface {
	For(gw domain.Gateway) (PaymentGateway, error)
}

// VARequest asks the banking integration for a deferred-payment
// virtual account covering one later installment.
type VARequest struct {
	Number     string
	TermNumber int
	Amount     int64
	DueDate    time.Time
}

// VAResult carries the issued virtual account reference.
type VAResult struct {
	PaymentID string
	Method    string
}

// VAIssuer issues virtual accounts for terms 2-4.
type VAIssuer interface {
	Issue(ctx context.Context, req VARequest) (VAResult, error)
}
