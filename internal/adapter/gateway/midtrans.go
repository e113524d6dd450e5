package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"installment-platform/config"
	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// MidtransGateway charges saved card tokens through the Midtrans Core
// API. Authentication is HTTP Basic with the server key as username and
// an empty password.
type MidtransGateway struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewMidtransGateway creates the Midtrans adapter.
func NewMidtransGateway(cfg config.GatewayConfig, log zerolog.Logger) *MidtransGateway {
	client := newClient(cfg).
		SetHeader("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(cfg.Key+":")))
	return &MidtransGateway{client: client, log: log}
}

// Name identifies this provider.
func (g *MidtransGateway) Name() domain.Gateway {
	return domain.GatewayMidtrans
}

// Charge captures the first installment against a saved card token.
func (g *MidtransGateway) Charge(ctx context.Context, req ports.ChargeRequest) (ports.ChargeResult, error) {
	body := map[string]any{
		"payment_type": "credit_card",
		"transaction_details": map[string]any{
			"order_id":     req.OrderID,
			"gross_amount": req.Amount,
		},
		"credit_card": map[string]any{
			"token_id": req.CardToken,
		},
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/charge")
	if err != nil {
		g.log.Warn().Err(err).Str("order_id", req.OrderID).Msg("midtrans charge request failed")
		return ports.ChargeResult{Outcome: ports.ChargeNetworkError, Reason: err.Error()}, nil
	}

	raw := resp.Body()
	result := ports.ChargeResult{
		Raw:       json.RawMessage(raw),
		PaymentID: gjson.GetBytes(raw, "transaction_id").String(),
		Method:    gjson.GetBytes(raw, "payment_type").String(),
		Time:      time.Now(),
	}
	if t := gjson.GetBytes(raw, "transaction_time").String(); t != "" {
		if parsed, perr := time.Parse("2006-01-02 15:04:05", t); perr == nil {
			result.Time = parsed
		}
	}

	status := gjson.GetBytes(raw, "transaction_status").String()
	switch status {
	case "capture", "settlement":
		result.Outcome = ports.ChargeCaptured
	default:
		result.Outcome = ports.ChargeDeclined
		result.Reason = gjson.GetBytes(raw, "status_message").String()
		if result.Reason == "" {
			result.Reason = fmt.Sprintf("transaction_status %q", status)
		}
	}
	return result, nil
}

// Cancel reverses a captured charge during compensation.
func (g *MidtransGateway) Cancel(ctx context.Context, orderID string) error {
	resp, err := g.client.R().
		SetContext(ctx).
		Post("/" + orderID + "/cancel")
	if err != nil {
		return fmt.Errorf("midtrans cancel %s: %w", orderID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("midtrans cancel %s: http %d", orderID, resp.StatusCode())
	}
	return nil
}
