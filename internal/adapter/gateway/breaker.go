package gateway

import (
	"context"
	"errors"
	"time"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// breakerGateway wraps a provider so charge and cancel calls trip a
// circuit after repeated failures. An open circuit surfaces as a
// network-class error, which the orchestrator maps to 215.
type breakerGateway struct {
	inner ports.PaymentGateway
	cb    *gobreaker.CircuitBreaker
}

// WithBreaker wraps gw with a circuit breaker tuned for charge calls.
func WithBreaker(gw ports.PaymentGateway, log zerolog.Logger) ports.PaymentGateway {
	settings := gobreaker.Settings{
		Name:        string(gw.Name()),
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("gateway", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("gateway circuit state changed")
		},
	}
	return &breakerGateway{inner: gw, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerGateway) Name() domain.Gateway {
	return b.inner.Name()
}

// errNetworkOutcome marks a transport failure inside the breaker
// closure. The adapters report outages as ChargeNetworkError with a nil
// error, which the breaker would otherwise count as a success.
var errNetworkOutcome = errors.New("gateway network failure")

func (b *breakerGateway) Charge(ctx context.Context, req ports.ChargeRequest) (ports.ChargeResult, error) {
	res, err := b.cb.Execute(func() (any, error) {
		result, err := b.inner.Charge(ctx, req)
		if err != nil {
			return result, err
		}
		if result.Outcome == ports.ChargeNetworkError {
			return result, errNetworkOutcome
		}
		// A decline is a provider answer, not a provider outage. It
		// must not open the circuit.
		return result, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ports.ChargeResult{Outcome: ports.ChargeNetworkError, Reason: "circuit open"}, nil
		}
		result, _ := res.(ports.ChargeResult)
		if errors.Is(err, errNetworkOutcome) {
			return result, nil
		}
		return result, err
	}
	result, _ := res.(ports.ChargeResult)
	return result, nil
}

func (b *breakerGateway) Cancel(ctx context.Context, orderID string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.Cancel(ctx, orderID)
	})
	return err
}
