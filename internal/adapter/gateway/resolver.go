package gateway

import (
	"fmt"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"
)

// Resolver maps a stored payment method's gateway to its adapter.
// Wallet gateways (dana, gopay) are intentionally absent: wallet money
// moves outside our control and arrives via callback, so nothing ever
// charges through them.
type Resolver struct {
	gateways map[domain.Gateway]ports.PaymentGateway
}

// NewResolver builds a resolver over the given adapters.
func NewResolver(gateways ...ports.PaymentGateway) *Resolver {
	m := make(map[domain.Gateway]ports.PaymentGateway, len(gateways))
	for _, gw := range gateways {
		m[gw.Name()] = gw
	}
	return &Resolver{gateways: m}
}

// For returns the adapter for gw.
func (r *Resolver) For(gw domain.Gateway) (ports.PaymentGateway, error) {
	adapter, ok := r.gateways[gw]
	if !ok {
		return nil, fmt.Errorf("no charge gateway for %q", gw)
	}
	return adapter, nil
}
