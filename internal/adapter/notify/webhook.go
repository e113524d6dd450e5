// Package notify contains the outbound delivery adapters for the
// transaction fan-out: merchant webhooks, email, and mobile push.
package notify

import (
	"context"
	"time"

	"installment-platform/internal/core/domain"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const webhookTimeout = 10 * time.Second

// WebhookSender POSTs merchant callback payloads over HTTPS.
type WebhookSender struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewWebhookSender creates the webhook delivery adapter.
func NewWebhookSender(log zerolog.Logger) *WebhookSender {
	client := resty.New().
		SetTimeout(webhookTimeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &WebhookSender{client: client, log: log}
}

// Send delivers one payload and records the attempt. A nil return means
// the URL was empty and nothing was tried.
func (s *WebhookSender) Send(ctx context.Context, url string, payload []byte) *domain.CallbackAttempt {
	if url == "" {
		return nil
	}

	attempt := &domain.CallbackAttempt{At: time.Now()}
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(url)
	if err != nil {
		attempt.Err = err.Error()
		return attempt
	}

	attempt.StatusCode = resp.StatusCode()
	body := resp.String()
	if len(body) > 2048 {
		body = body[:2048]
	}
	attempt.Body = body
	return attempt
}
