// Package gateway contains the external payment provider adapters.
// Each provider hides its own authentication scheme and wire format
// behind ports.PaymentGateway; charge calls run through a circuit
// breaker so a degraded provider fails fast instead of tying up
// request handlers.
package gateway

import (
	"time"

	"installment-platform/config"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 5 * time.Second

func newClient(cfg config.GatewayConfig) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return resty.New().
		SetBaseURL(cfg.Address).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}
