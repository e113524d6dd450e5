package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"installment-platform/config"
	"installment-platform/internal/core/domain"

	"github.com/rs/zerolog"
)

// FCMPusher delivers mobile push notifications through Firebase Cloud
// Messaging.
type FCMPusher struct {
	client *messaging.Client
	log    zerolog.Logger
}

// NewFCMPusher creates the FCM delivery adapter.
func NewFCMPusher(ctx context.Context, cfg config.FCMConfig, log zerolog.Logger) (*FCMPusher, error) {
	app, err := firebase.NewApp(ctx,
		&firebase.Config{ProjectID: cfg.ProjectID},
		option.WithCredentialsFile(cfg.CredentialsFile),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing fcm client: %w", err)
	}
	return &FCMPusher{client: client, log: log}, nil
}

// Push delivers one notification to the user's registered device.
func (p *FCMPusher) Push(ctx context.Context, job domain.PushJob) error {
	msg := &messaging.Message{
		Token: job.FCMToken,
		Notification: &messaging.Notification{
			Title: job.Title,
			Body:  job.Body,
		},
	}
	id, err := p.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("sending push: %w", err)
	}
	p.log.Debug().Str("message_id", id).Msg("push delivered")
	return nil
}
