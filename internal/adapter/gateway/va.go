package gateway

import (
	"context"
	"fmt"

	"installment-platform/config"
	"installment-platform/internal/core/ports"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// VAClient issues deferred-payment virtual accounts for the later
// installments through the banking integration.
type VAClient struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewVAClient creates the virtual account issuer.
func NewVAClient(cfg config.GatewayConfig, log zerolog.Logger) *VAClient {
	client := newClient(cfg).SetHeader("X-API-Key", cfg.Key)
	return &VAClient{client: client, log: log}
}

// Issue requests a virtual account covering one later installment.
func (c *VAClient) Issue(ctx context.Context, req ports.VARequest) (ports.VAResult, error) {
	body := map[string]any{
		"external_id": fmt.Sprintf("%s-%d", req.Number, req.TermNumber),
		"amount":      req.Amount,
		"expiry_date": req.DueDate.Format("2006-01-02"),
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/virtual-accounts")
	if err != nil {
		return ports.VAResult{}, fmt.Errorf("issuing va for %s term %d: %w", req.Number, req.TermNumber, err)
	}
	if resp.IsError() {
		return ports.VAResult{}, fmt.Errorf("issuing va for %s term %d: http %d", req.Number, req.TermNumber, resp.StatusCode())
	}

	raw := resp.Body()
	result := ports.VAResult{
		PaymentID: gjson.GetBytes(raw, "account_number").String(),
		Method:    "vabni",
	}
	if result.PaymentID == "" {
		return ports.VAResult{}, fmt.Errorf("issuing va for %s term %d: empty account number", req.Number, req.TermNumber)
	}
	return result, nil
}
