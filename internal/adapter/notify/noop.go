package notify

import (
	"context"

	"installment-platform/internal/core/domain"
)

// NopMailer drops email jobs. Used when SMTP is not configured.
type NopMailer struct{}

func (NopMailer) Send(ctx context.Context, job domain.EmailJob) error { return nil }

// NopPusher drops push jobs. Used when FCM is not configured.
type NopPusher struct{}

func (NopPusher) Push(ctx context.Context, job domain.PushJob) error { return nil }
