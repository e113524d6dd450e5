package notify

import (
	"context"
	"fmt"

	"installment-platform/config"
	"installment-platform/internal/core/domain"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"
)

// SMTPMailer delivers templated email jobs over SMTP.
type SMTPMailer struct {
	client *gomail.Client
	from   string
	log    zerolog.Logger
}

// NewSMTPMailer creates the SMTP delivery adapter.
func NewSMTPMailer(cfg config.SMTPConfig, log zerolog.Logger) (*SMTPMailer, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From, log: log}, nil
}

// Send delivers one email job.
func (m *SMTPMailer) Send(ctx context.Context, job domain.EmailJob) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("setting email from: %w", err)
	}
	if err := msg.To(job.To); err != nil {
		return fmt.Errorf("setting email recipient: %w", err)
	}
	msg.Subject(job.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, job.Body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email to %s: %w", job.To, err)
	}
	return nil
}
