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

// XenditGateway charges saved card tokens through the Xendit credit
// card API. Authentication is HTTP Basic with the secret key as
// username and an empty password.
type XenditGateway struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewXenditGateway creates the Xendit adapter.
func NewXenditGateway(cfg config.GatewayConfig, log zerolog.Logger) *XenditGateway {
	client := newClient(cfg).
		SetHeader("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(cfg.Key+":")))
	return &XenditGateway{client: client, log: log}
}

// Name identifies this provider.
func (g *XenditGateway) Name() domain.Gateway {
	return domain.GatewayXendit
}

// Charge captures the first installment against a saved card token.
func (g *XenditGateway) Charge(ctx context.Context, req ports.ChargeRequest) (ports.ChargeResult, error) {
	body := map[string]any{
		"token_id":    req.CardToken,
		"external_id": req.OrderID,
		"amount":      req.Amount,
	}
	if req.AuthID != "" {
		body["authentication_id"] = req.AuthID
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/credit_card_charges")
	if err != nil {
		g.log.Warn().Err(err).Str("order_id", req.OrderID).Msg("xendit charge request failed")
		return ports.ChargeResult{Outcome: ports.ChargeNetworkError, Reason: err.Error()}, nil
	}

	raw := resp.Body()
	result := ports.ChargeResult{
		Raw:       json.RawMessage(raw),
		PaymentID: gjson.GetBytes(raw, "id").String(),
		Method:    "credit_card",
		Time:      time.Now(),
	}
	if t := gjson.GetBytes(raw, "created").String(); t != "" {
		if parsed, perr := time.Parse(time.RFC3339, t); perr == nil {
			result.Time = parsed
		}
	}

	if gjson.GetBytes(raw, "status").String() == "CAPTURED" {
		result.Outcome = ports.ChargeCaptured
	} else {
		result.Outcome = ports.ChargeDeclined
		result.Reason = gjson.GetBytes(raw, "failure_reason").String()
		if result.Reason == "" {
			result.Reason = gjson.GetBytes(raw, "message").String()
		}
	}
	return result, nil
}

// Cancel refunds a captured charge during compensation. Xendit has no
// void for captured card charges, so compensation issues a full refund.
func (g *XenditGateway) Cancel(ctx context.Context, orderID string) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"external_id": orderID}).
		Post("/credit_card_charges/" + orderID + "/refunds")
	if err != nil {
		return fmt.Errorf("xendit refund %s: %w", orderID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("xendit refund %s: http %d", orderID, resp.StatusCode())
	}
	return nil
}
